package report

import (
	"fmt"
	"io"
	"time"

	"service-jobs-api/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	JobsSheet    = "Jobs"
	HistorySheet = "History"
)

var jobHeaders = []string{
	"ID", "Client ID", "Provider ID", "Service Type", "City", "State", "Label",
	"Estimated Price", "Final Price", "Escrow Amount", "Transaction ID",
	"Created At", "Completed At", "Rating",
}

var historyHeaders = []string{"Job ID", "Step", "From", "To", "Timestamp", "Reason"}

// WriteJobsWorkbook writes one row per job on the Jobs sheet and one row per
// transition on the History sheet.
func WriteJobsWorkbook(w io.Writer, jobs []models.ServiceJob) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), JobsSheet); err != nil {
		return fmt.Errorf("failed to name jobs sheet: %w", err)
	}
	if _, err := f.NewSheet(HistorySheet); err != nil {
		return fmt.Errorf("failed to create history sheet: %w", err)
	}

	if err := writeRow(f, JobsSheet, 1, toRow(jobHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, HistorySheet, 1, toRow(historyHeaders)); err != nil {
		return err
	}

	historyRow := 2
	for i, job := range jobs {
		if err := writeRow(f, JobsSheet, i+2, jobRow(job)); err != nil {
			return err
		}
		for step, t := range job.StateHistory {
			reason := ""
			if t.Reason != nil {
				reason = *t.Reason
			}
			row := []interface{}{
				job.ID.String(), step + 1, t.From.Label(), t.To.Label(),
				t.Timestamp.UTC().Format(time.RFC3339), reason,
			}
			if err := writeRow(f, HistorySheet, historyRow, row); err != nil {
				return err
			}
			historyRow++
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func jobRow(job models.ServiceJob) []interface{} {
	provider := ""
	if job.ProviderID != nil {
		provider = job.ProviderID.String()
	}
	completedAt := ""
	if job.CompletedAt != nil {
		completedAt = job.CompletedAt.UTC().Format(time.RFC3339)
	}
	var rating interface{} = ""
	if job.Rating != nil {
		rating = *job.Rating
	}
	return []interface{}{
		job.ID.String(), job.ClientID.String(), provider, job.ServiceType, job.Location.City,
		string(job.State.Kind), job.State.Label(),
		job.EstimatedPrice, job.FinalPrice, job.EscrowAmount, job.TransactionID,
		job.CreatedAt.UTC().Format(time.RFC3339), completedAt, rating,
	}
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", rowNum, sheet, err)
	}
	return nil
}
