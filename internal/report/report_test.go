package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jobiai/jobiai-assess/internal/quiz"
)

func sampleQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID: "quiz-1", Title: "Go basics – café", JobPostID: "job-1", Duration: 10,
		Questions: []quiz.Question{
			{ID: "q1", Text: "Is Go compiled?", Type: quiz.TypeTrueFalse, CorrectAnswer: "true", Points: 1},
			{ID: "q2", Text: "Explain channels", Type: quiz.TypeShortAnswer, Points: 2},
		},
	}
}

func TestWriteResponsesXLSX(t *testing.T) {
	var buf bytes.Buffer
	err := WriteResponsesXLSX(&buf, sampleQuiz(), []quiz.Response{
		{CandidateID: "cand-1", Score: 75, TimeTaken: 125, SubmittedAt: 1_700_000_000},
		{CandidateID: "cand-2", Score: 0, TimeTaken: 600},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, "Candidate", rows[1][0])
	require.Equal(t, []string{"cand-1", "75", "2:05", "2023-11-14 22:13 UTC"}, rows[2])
	require.Equal(t, "cand-2", rows[3][0])
	require.Equal(t, "10:00", rows[3][2])
}

func TestWriteResponsesXLSX_NoResponses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponsesXLSX(&buf, sampleQuiz(), nil))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, _ := f.GetRows(sheet)
	require.Len(t, rows, 2)
}

func TestWriteResponsePDF(t *testing.T) {
	var buf bytes.Buffer
	err := WriteResponsePDF(&buf, sampleQuiz(), quiz.Response{CandidateID: "cand-1", Score: 50, TimeTaken: 61})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestFormatDuration(t *testing.T) {
	for in, want := range map[int]string{0: "0:00", 59: "0:59", 61: "1:01", -3: "0:00", 3600: "60:00"} {
		require.Equal(t, want, FormatDuration(in))
	}
}
