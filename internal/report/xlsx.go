// Package report renders quiz responses for recruiters: a spreadsheet of
// every response to a quiz, or a one-page PDF for a single candidate.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jobiai/jobiai-assess/internal/quiz"
)

const sheet = "Sheet1"

var responseHeader = []any{"Candidate", "Score (%)", "Time taken", "Submitted at"}

// WriteResponsesXLSX writes one row per response below a header row.
func WriteResponsesXLSX(w io.Writer, q quiz.Quiz, responses []quiz.Response) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(sheet, "A1", &[]any{q.Title, "job " + q.JobPostID}); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A2", &responseHeader); err != nil {
		return err
	}
	for i, r := range responses {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		row := []any{r.CandidateID, r.Score, FormatDuration(r.TimeTaken), formatUnix(r.SubmittedAt)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 40)
	_ = f.SetColWidth(sheet, "B", "D", 18)
	return f.Write(w)
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func formatUnix(sec int64) string {
	if sec == 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format("2006-01-02 15:04 UTC")
}
