package submissionservice

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Submissions"

var exportHeader = []string{
	"Attempt ID", "Team", "Round", "Challenge", "Attempt #", "Correct",
	"Penalty", "Base Points", "Time Multiplier", "Hint Penalty", "Points",
	"Submitted At", "Verified At",
}

// ExportXLSX writes the whole attempt ledger as a spreadsheet. Flag text is not exported.
func (s *SubmissionService) ExportXLSX(ctx context.Context, w io.Writer) error {
	attempts, err := s.ListAttempts(ctx, "")
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, a := range attempts {
		verifiedAt := ""
		if a.VerifiedAt != nil {
			verifiedAt = a.VerifiedAt.UTC().Format(time.RFC3339)
		}
		row := []any{
			a.ID.String(), a.TeamCode, a.Round, a.ChallengeType.Label(), a.AttemptNumber, a.IsCorrect,
			a.PointDeduction, a.BasePoints, a.TimeMultiplier, a.HintPenalty, a.Points,
			a.SubmittedAt.UTC().Format(time.RFC3339), verifiedAt,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
