package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultDurationMinutes applies when a quiz is stored without a duration.
const DefaultDurationMinutes = 30

var (
	ErrNotFound         = errors.New("quiz not found")
	ErrResponseNotFound = errors.New("quiz response not found")
	ErrInvalid          = errors.New("invalid quiz")
)

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeTrueFalse      QuestionType = "true-false"
	TypeShortAnswer    QuestionType = "short-answer"
)

func (t QuestionType) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer:
		return true
	}
	return false
}

// IsScorable reports whether answers of this type are checked automatically.
func (t QuestionType) IsScorable() bool {
	return t == TypeMultipleChoice || t == TypeTrueFalse
}

type Question struct {
	ID            string       `json:"id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	Points        int          `json:"points"`
}

// UnmarshalJSON accepts correctAnswer as a string, a boolean or a number.
// Quizzes authored against the document store kept true/false keys as booleans.
func (q *Question) UnmarshalJSON(b []byte) error {
	type plain Question
	var raw struct {
		plain
		CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*q = Question(raw.plain)
	q.CorrectAnswer = ""

	ca := bytes.TrimSpace(raw.CorrectAnswer)
	if len(ca) == 0 || bytes.Equal(ca, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(ca, &s); err == nil {
		q.CorrectAnswer = s
		return nil
	}
	var v bool
	if err := json.Unmarshal(ca, &v); err == nil {
		q.CorrectAnswer = strconv.FormatBool(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(ca, &n); err == nil {
		q.CorrectAnswer = n.String()
		return nil
	}
	return fmt.Errorf("question %q: unsupported correctAnswer %s", q.ID, string(ca))
}

type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	JobPostID   string     `json:"jobPostId"`
	Duration    int        `json:"duration"` // minutes
	Questions   []Question `json:"questions"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   int64      `json:"createdAt,omitempty"`
	UpdatedAt   int64      `json:"updatedAt,omitempty"`
}

// UnmarshalJSON also understands the "_id" key used by document-store backends.
func (q *Quiz) UnmarshalJSON(b []byte) error {
	type plain Quiz
	var raw struct {
		plain
		DocID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*q = Quiz(raw.plain)
	if q.ID == "" {
		q.ID = raw.DocID
	}
	return nil
}

// Normalize fills defaults: the duration and ids for questions that came without one.
func (q *Quiz) Normalize() {
	if q.Duration == 0 {
		q.Duration = DefaultDurationMinutes
	}
	for i := range q.Questions {
		if strings.TrimSpace(q.Questions[i].ID) == "" {
			q.Questions[i].ID = fmt.Sprintf("q-%d", i)
		}
	}
}

func (q Quiz) DurationSeconds() int { return q.Duration * 60 }

func (q Quiz) QuestionByID(id string) (Question, bool) {
	for _, qq := range q.Questions {
		if qq.ID == id {
			return qq, true
		}
	}
	return Question{}, false
}

// Validate checks a quiz before it is stored.
func (q Quiz) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalid)
	}
	if strings.TrimSpace(q.JobPostID) == "" {
		return fmt.Errorf("%w: jobPostId required", ErrInvalid)
	}
	if q.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalid)
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for i, qq := range q.Questions {
		if !qq.Type.Valid() {
			return fmt.Errorf("%w: question %d: unknown type %q", ErrInvalid, i, qq.Type)
		}
		if qq.Points <= 0 {
			return fmt.Errorf("%w: question %d: points must be positive", ErrInvalid, i)
		}
		if qq.Type == TypeMultipleChoice && len(qq.Options) == 0 {
			return fmt.Errorf("%w: question %d: multiple-choice needs options", ErrInvalid, i)
		}
		if qq.ID != "" {
			if _, dup := seen[qq.ID]; dup {
				return fmt.Errorf("%w: duplicate question id %q", ErrInvalid, qq.ID)
			}
			seen[qq.ID] = struct{}{}
		}
	}
	return nil
}

// Redacted returns a copy without answer keys, safe to serve to candidates.
func (q Quiz) Redacted() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, qq := range q.Questions {
		qq.CorrectAnswer = ""
		qq.Options = append([]string(nil), qq.Options...)
		out.Questions[i] = qq
	}
	return out
}

// Response is a candidate's recorded result for one quiz.
type Response struct {
	ID          string  `json:"id"`
	QuizID      string  `json:"quizId"`
	CandidateID string  `json:"candidateId"`
	Score       float64 `json:"score"`
	TimeTaken   int     `json:"timeTaken"` // seconds
	SubmittedAt int64   `json:"submittedAt"`
}

func (r Response) Validate() error {
	if strings.TrimSpace(r.QuizID) == "" || strings.TrimSpace(r.CandidateID) == "" {
		return fmt.Errorf("%w: quizId and candidateId required", ErrInvalid)
	}
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("%w: score must be within [0,100]", ErrInvalid)
	}
	if r.TimeTaken < 0 {
		return fmt.Errorf("%w: timeTaken must not be negative", ErrInvalid)
	}
	return nil
}
