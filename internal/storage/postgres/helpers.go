package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"service-jobs-api/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// buildListQuery constructs the SQL query for listing rows based on filters.
func buildListQuery(baseQuery string, conditions []string, args *[]interface{}, orderBy string, reqOffset, reqLimit int) string {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(baseQuery)

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY ")
	queryBuilder.WriteString(orderBy)

	if reqLimit > 0 {
		*args = append(*args, reqLimit)
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", len(*args)))
	}
	if reqOffset > 0 {
		*args = append(*args, reqOffset)
		queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", len(*args)))
	}

	return queryBuilder.String()
}

// mapPgError translates constraint violations and connection failures into
// storage errors.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if wrapped := storage.WrapUnavailable(err); wrapped != err {
		return wrapped
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", storage.ErrConflict, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: invalid reference (%s)", storage.ErrConflict, pgErr.ConstraintName)
		}
	}
	return err
}
