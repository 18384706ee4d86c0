package quiz

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestQuestionUnmarshal_CorrectAnswerForms(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"string", `{"id":"a","type":"multiple-choice","correctAnswer":"B","points":1}`, "B"},
		{"bool true", `{"id":"a","type":"true-false","correctAnswer":true,"points":1}`, "true"},
		{"bool false", `{"id":"a","type":"true-false","correctAnswer":false,"points":1}`, "false"},
		{"number", `{"id":"a","type":"multiple-choice","correctAnswer":42,"points":1}`, "42"},
		{"null", `{"id":"a","type":"short-answer","correctAnswer":null,"points":1}`, ""},
		{"absent", `{"id":"a","type":"short-answer","points":1}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var q Question
			if err := json.Unmarshal([]byte(tc.in), &q); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if q.CorrectAnswer != tc.want {
				t.Fatalf("correctAnswer = %q, want %q", q.CorrectAnswer, tc.want)
			}
			if q.ID != "a" || q.Points != 1 {
				t.Fatalf("other fields lost: %+v", q)
			}
		})
	}
}

func TestQuizUnmarshal_DocumentID(t *testing.T) {
	var q Quiz
	if err := json.Unmarshal([]byte(`{"_id":"665f","title":"Go","jobPostId":"job-1","duration":5,"questions":[]}`), &q); err != nil {
		t.Fatal(err)
	}
	if q.ID != "665f" || q.JobPostID != "job-1" || q.Duration != 5 {
		t.Fatalf("unexpected quiz: %+v", q)
	}
}

func TestNormalize_FillsDefaults(t *testing.T) {
	q := Quiz{Questions: []Question{{Text: "a"}, {ID: "keep"}, {Text: "c"}}}
	q.Normalize()
	if q.Duration != DefaultDurationMinutes {
		t.Fatalf("duration = %d", q.Duration)
	}
	got := []string{q.Questions[0].ID, q.Questions[1].ID, q.Questions[2].ID}
	want := []string{"q-0", "keep", "q-2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	ok := Quiz{
		Title: "Backend", JobPostID: "job-1", Duration: 10,
		Questions: []Question{
			{ID: "1", Type: TypeMultipleChoice, Options: []string{"A", "B"}, CorrectAnswer: "A", Points: 1},
			{ID: "2", Type: TypeTrueFalse, CorrectAnswer: "true", Points: 2},
			{ID: "3", Type: TypeShortAnswer, Points: 3},
		},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid quiz rejected: %v", err)
	}

	bad := map[string]func(q *Quiz){
		"no title":       func(q *Quiz) { q.Title = " " },
		"no job":         func(q *Quiz) { q.JobPostID = "" },
		"neg duration":   func(q *Quiz) { q.Duration = -1 },
		"zero points":    func(q *Quiz) { q.Questions[1].Points = 0 },
		"unknown type":   func(q *Quiz) { q.Questions[0].Type = "essay" },
		"mc no options":  func(q *Quiz) { q.Questions[0].Options = nil },
		"duplicate id":   func(q *Quiz) { q.Questions[2].ID = "1" },
	}
	for name, mutate := range bad {
		t.Run(name, func(t *testing.T) {
			q := ok
			q.Questions = append([]Question(nil), ok.Questions...)
			mutate(&q)
			if err := q.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestRedacted_DoesNotTouchOriginal(t *testing.T) {
	q := Quiz{Questions: []Question{{ID: "1", Type: TypeTrueFalse, CorrectAnswer: "true", Points: 1}}}
	r := q.Redacted()
	if r.Questions[0].CorrectAnswer != "" {
		t.Fatalf("answer key leaked")
	}
	if q.Questions[0].CorrectAnswer != "true" {
		t.Fatalf("original mutated")
	}
}

func TestResponseValidate(t *testing.T) {
	if err := (Response{QuizID: "q", CandidateID: "c", Score: 50, TimeTaken: 12}).Validate(); err != nil {
		t.Fatal(err)
	}
	for _, r := range []Response{
		{CandidateID: "c"},
		{QuizID: "q"},
		{QuizID: "q", CandidateID: "c", Score: 101},
		{QuizID: "q", CandidateID: "c", Score: -1},
		{QuizID: "q", CandidateID: "c", TimeTaken: -5},
	} {
		if err := r.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%+v: expected ErrInvalid, got %v", r, err)
		}
	}
}
