package grading

import (
	"github.com/jobiai/jobiai-assess/internal/quiz"
)

// Result is the outcome of grading a single answered question.
type Result struct {
	AutoPoints  int  // points awarded automatically
	MaxPoints   int  // the question's points, counted toward the total
	NeedsManual bool // true if a recruiter has to review the answer
}

// Strategy grades a single question.
type Strategy interface {
	Grade(q quiz.Question, answer string) Result
}

// Summary aggregates a whole quiz.
type Summary struct {
	Earned      int      `json:"earned"`
	Total       int      `json:"total"`
	Percent     float64  `json:"score"`
	NeedsManual []string `json:"needsManual,omitempty"`
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Score(q quiz.Quiz, answers map[string]string) Summary
}

type defaultGrader struct {
	strategies map[quiz.QuestionType]Strategy
}

// Score walks the quiz in order. Only answered questions are graded;
// unanswered ones add nothing to earned or total.
func (g *defaultGrader) Score(q quiz.Quiz, answers map[string]string) Summary {
	var s Summary
	for _, qq := range q.Questions {
		ans, ok := answers[qq.ID]
		if !ok {
			continue
		}
		st, ok := g.strategies[qq.Type]
		if !ok {
			s.NeedsManual = append(s.NeedsManual, qq.ID)
			continue
		}
		r := st.Grade(qq, ans)
		if r.NeedsManual {
			s.NeedsManual = append(s.NeedsManual, qq.ID)
		}
		s.Earned += r.AutoPoints
		s.Total += r.MaxPoints
	}
	s.Percent = Percent(s.Earned, s.Total)
	return s
}

// Percent is earned/total*100, and 0 when nothing was scorable.
func Percent(earned, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(earned) / float64(total) * 100
}

// Engine options

type Option func(*config)

type config struct {
	strategies map[quiz.QuestionType]Strategy
}

// WithStrategy installs or replaces the strategy for a question type.
func WithStrategy(t quiz.QuestionType, s Strategy) Option {
	return func(c *config) { c.strategies[t] = s }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{
		strategies: map[quiz.QuestionType]Strategy{
			quiz.TypeMultipleChoice: exactMatchStrategy{},
			quiz.TypeTrueFalse:      exactMatchStrategy{},
			quiz.TypeShortAnswer:    manualStrategy{},
		},
	}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{strategies: cfg.strategies}
}

var std = NewDefaultGrader()

// Score grades with the built-in strategies.
func Score(q quiz.Quiz, answers map[string]string) Summary {
	return std.Score(q, answers)
}

// --- Strategies ---

// exactMatchStrategy compares the stored answer with the key as plain strings.
type exactMatchStrategy struct{}

func (exactMatchStrategy) Grade(q quiz.Question, answer string) Result {
	res := Result{MaxPoints: q.Points}
	if answer == q.CorrectAnswer {
		res.AutoPoints = q.Points
	}
	return res
}

// manualStrategy never scores; the question stays out of the total.
type manualStrategy struct{}

func (manualStrategy) Grade(quiz.Question, string) Result {
	return Result{NeedsManual: true}
}
