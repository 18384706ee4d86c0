package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/jobiai/jobiai-assess/internal/quiz"
)

// WriteResponsePDF writes a single candidate's result sheet.
// Core fonts only; text is mapped to cp1252.
func WriteResponsePDF(w io.Writer, q quiz.Quiz, r quiz.Response) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 10, tr("Assessment result: "+q.Title), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	info := fmt.Sprintf("Candidate: %s\nJob post: %s\nScore: %.0f%%\nTime taken: %s of %d min\n",
		r.CandidateID, q.JobPostID, r.Score, FormatDuration(r.TimeTaken), q.Duration)
	if at := formatUnix(r.SubmittedAt); at != "" {
		info += "Submitted: " + at + "\n"
	}
	pdf.MultiCell(0, 8, tr(info), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.MultiCell(0, 8, "Questions", "", "L", false)
	for i, qq := range q.Questions {
		pdf.SetFont("Helvetica", "", 11)
		line := fmt.Sprintf("%d. %s (%s, %d pt)", i+1, qq.Text, qq.Type, qq.Points)
		pdf.MultiCell(0, 7, tr(line), "", "L", false)
	}

	return pdf.Output(w)
}
