package services

import (
	"errors"
	"fmt"

	"service-jobs-api/internal/models"
	"service-jobs-api/internal/storage"

	"go.uber.org/zap"
)

// mapRepoError maps storage errors to service errors
func mapRepoError(err error, operation string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, operation)
	case errors.Is(err, storage.ErrDuplicateEmail):
		return fmt.Errorf("%w: %s (duplicate email)", ErrConflict, operation)
	case errors.Is(err, storage.ErrConflict):
		return fmt.Errorf("%w: %s (%v)", ErrConflict, operation, err)
	case errors.Is(err, storage.ErrUnavailable):
		return fmt.Errorf("%w: %s", ErrStorageUnavailable, operation)
	}
	zap.S().Errorf("Unexpected repository error during %s: %v", operation, err)
	return fmt.Errorf("internal error during %s: %w", operation, err)
}

func beginError(err error) error {
	if errors.Is(storage.WrapUnavailable(err), storage.ErrUnavailable) {
		return fmt.Errorf("%w: starting transaction: %w", ErrStorageUnavailable, err)
	}
	return fmt.Errorf("internal error starting transaction: %w", err)
}

// mapModelError wraps lifecycle errors so callers can match service sentinels
// while the typed model error stays reachable with errors.As.
func mapModelError(err error) error {
	switch {
	case errors.Is(err, models.ErrIllegalTransition):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	case errors.Is(err, models.ErrInvalidField):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, models.ErrInvalidState):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return err
}
