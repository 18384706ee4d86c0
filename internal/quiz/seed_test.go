package quiz

import (
	"errors"
	"strings"
	"testing"
)

const seedYAML = `
quizzes:
  - title: Go basics
    jobPostId: job-1
    questions:
      - text: Go has generics
        type: true-false
        correctAnswer: true
        points: 1
      - id: pick
        text: Pick the channel keyword
        type: multiple-choice
        options: [chan, pipe]
        correctAnswer: chan
        points: 2
  - title: Essay
    jobPostId: job-2
    duration: 30
    questions:
      - text: Describe a project
        type: short-answer
        points: 5
`

func TestLoadSeed(t *testing.T) {
	qs, err := LoadSeed(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d quizzes", len(qs))
	}
	first := qs[0]
	if first.Duration != DefaultDurationMinutes || first.Questions[0].ID != "q-0" || first.Questions[1].ID != "pick" {
		t.Fatalf("not normalized: %+v", first)
	}
	if first.Questions[0].CorrectAnswer != "true" || first.Questions[1].CorrectAnswer != "chan" {
		t.Fatalf("answers: %+v", first.Questions)
	}
	if qs[1].Duration != 30 || qs[1].Questions[0].CorrectAnswer != "" {
		t.Fatalf("second quiz: %+v", qs[1])
	}
}

func TestLoadSeed_Invalid(t *testing.T) {
	_, err := LoadSeed(strings.NewReader("quizzes:\n  - title: no job\n"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := LoadSeed(strings.NewReader("quizzes: [")); err == nil {
		t.Fatal("expected a yaml error")
	}
}
