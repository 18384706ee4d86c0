package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jobiai/jobiai-assess/internal/grading"
	"github.com/jobiai/jobiai-assess/internal/quiz"
)

var (
	ErrEmptyQuiz        = errors.New("quiz has no questions")
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrSessionClosed    = errors.New("session is no longer in progress")
	ErrUnknownQuestion  = errors.New("question not in quiz")
)

type State int

const (
	StateInProgress State = iota
	StateSubmitting
	StateCompleted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateInProgress, StateSubmitting, StateCompleted, StateClosed} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// Result is handed to the completion callback once per session.
type Result struct {
	QuizID         string    `json:"quizId"`
	CandidateID    string    `json:"candidateId"`
	JobPostID      string    `json:"jobPostId"`
	Score          float64   `json:"score"`
	Earned         int       `json:"earned"`
	Total          int       `json:"total"`
	ElapsedSeconds int       `json:"timeTaken"`
	Forced         bool      `json:"forced"`
	NeedsManual    []string  `json:"needsManual,omitempty"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Response converts the result into the record stored by the backend.
func (r Result) Response() quiz.Response {
	return quiz.Response{
		QuizID:      r.QuizID,
		CandidateID: r.CandidateID,
		Score:       r.Score,
		TimeTaken:   r.ElapsedSeconds,
	}
}

// Snapshot is a read-only view for rendering.
type Snapshot struct {
	QuizID     string    `json:"quizId"`
	Title      string    `json:"title"`
	Index      int       `json:"index"`
	Questions  int       `json:"questions"`
	Answered   int       `json:"answered"`
	Remaining  int       `json:"remaining"`
	Clock      string    `json:"clock"`
	State      State     `json:"state"`
	StartedAt  time.Time `json:"startedAt"`
	IsFirst    bool      `json:"isFirst"`
	IsLast     bool      `json:"isLast"`
	QuestionID string    `json:"questionId"`
}

type Option func(*Controller)

func WithTimerOptions(opts ...TimerOption) Option {
	return func(c *Controller) { c.timerOpts = append(c.timerOpts, opts...) }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithOnTick observes every timer tick, for live clock rendering.
func WithOnTick(fn func(remaining int)) Option {
	return func(c *Controller) { c.onTick = fn }
}

func WithGrader(g grading.Grader) Option {
	return func(c *Controller) { c.grader = g }
}

// Controller drives one candidate through one quiz. It does no network I/O;
// the completion callback decides what to do with the result.
type Controller struct {
	mu     sync.Mutex
	quiz   quiz.Quiz
	cand   string
	index  int
	state  State
	ledger *Ledger
	timer  *Timer
	result *Result

	submitting atomic.Bool
	startedAt  time.Time

	onComplete func(Result)
	onTick     func(int)
	timerOpts  []TimerOption
	grader     grading.Grader
	now        func() time.Time
	log        *zap.Logger
}

// Start begins a session at the first question with the timer running.
func Start(q quiz.Quiz, candidateID string, onComplete func(Result), opts ...Option) (*Controller, error) {
	if len(q.Questions) == 0 {
		return nil, ErrEmptyQuiz
	}
	q.Normalize()
	c := &Controller{
		quiz:       q,
		cand:       candidateID,
		ledger:     NewLedger(),
		onComplete: onComplete,
		grader:     grading.NewDefaultGrader(),
		now:        time.Now,
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.startedAt = c.now()

	c.mu.Lock()
	c.timer = StartTimer(q.DurationSeconds(), c.tick, c.expire, c.timerOpts...)
	c.mu.Unlock()

	c.log.Debug("session started",
		zap.String("quiz_id", q.ID),
		zap.String("candidate_id", candidateID),
		zap.Int("duration_sec", q.DurationSeconds()))
	return c, nil
}

func (c *Controller) tick(remaining int) {
	if c.onTick != nil {
		c.onTick(remaining)
	}
}

func (c *Controller) expire() {
	if _, err := c.submit(true); err != nil && !errors.Is(err, ErrAlreadySubmitted) && !errors.Is(err, ErrSessionClosed) {
		c.log.Warn("forced submit failed", zap.Error(err))
	}
}

func (c *Controller) inProgress() bool {
	return c.state == StateInProgress && !c.submitting.Load()
}

// Next moves forward; false at the last question or once the session has left InProgress.
func (c *Controller) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inProgress() || c.index >= len(c.quiz.Questions)-1 {
		return false
	}
	c.index++
	return true
}

// Previous moves back; false at the first question.
func (c *Controller) Previous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inProgress() || c.index == 0 {
		return false
	}
	c.index--
	return true
}

// Answer records value for the question currently shown.
func (c *Controller) Answer(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inProgress() {
		return ErrSessionClosed
	}
	c.ledger.Set(c.quiz.Questions[c.index].ID, value)
	return nil
}

func (c *Controller) AnswerQuestion(questionID, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inProgress() {
		return ErrSessionClosed
	}
	if _, ok := c.quiz.QuestionByID(questionID); !ok {
		return ErrUnknownQuestion
	}
	c.ledger.Set(questionID, value)
	return nil
}

func (c *Controller) CurrentQuestion() quiz.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiz.Questions[c.index]
}

func (c *Controller) CurrentAnswer() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Get(c.quiz.Questions[c.index].ID)
}

func (c *Controller) Quiz() quiz.Quiz { return c.quiz }

func (c *Controller) CandidateID() string { return c.cand }

// Submit ends the session by candidate action.
func (c *Controller) Submit() (Result, error) {
	return c.submit(false)
}

func (c *Controller) submit(forced bool) (Result, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		c.mu.Lock()
		closed := c.state == StateClosed
		c.mu.Unlock()
		if closed {
			return Result{}, ErrSessionClosed
		}
		return Result{}, ErrAlreadySubmitted
	}

	c.mu.Lock()
	t := c.timer
	c.mu.Unlock()
	t.Stop()

	c.mu.Lock()
	c.state = StateSubmitting
	remaining := t.Remaining()
	answers := c.ledger.Answers()
	c.mu.Unlock()

	sum := c.grader.Score(c.quiz, answers)
	res := Result{
		QuizID:         c.quiz.ID,
		CandidateID:    c.cand,
		JobPostID:      c.quiz.JobPostID,
		Score:          sum.Percent,
		Earned:         sum.Earned,
		Total:          sum.Total,
		ElapsedSeconds: c.quiz.DurationSeconds() - remaining,
		Forced:         forced,
		NeedsManual:    sum.NeedsManual,
		SubmittedAt:    c.now(),
	}

	c.mu.Lock()
	c.state = StateCompleted
	c.result = &res
	c.mu.Unlock()

	c.log.Info("session submitted",
		zap.String("quiz_id", res.QuizID),
		zap.String("candidate_id", res.CandidateID),
		zap.Float64("score", res.Score),
		zap.Int("elapsed_sec", res.ElapsedSeconds),
		zap.Bool("forced", forced))

	if c.onComplete != nil {
		c.onComplete(res)
	}
	return res, nil
}

// Close abandons the session: the timer stops and no result is produced.
func (c *Controller) Close() {
	if !c.submitting.CompareAndSwap(false, true) {
		return
	}
	c.mu.Lock()
	c.state = StateClosed
	t := c.timer
	c.mu.Unlock()
	t.Stop()
}

// Result returns the outcome once the session has completed.
func (c *Controller) Result() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	rem := c.timer.Remaining()
	n := len(c.quiz.Questions)
	return Snapshot{
		QuizID:     c.quiz.ID,
		Title:      c.quiz.Title,
		Index:      c.index,
		Questions:  n,
		Answered:   c.ledger.Len(),
		Remaining:  rem,
		Clock:      FormatClock(rem),
		State:      c.state,
		StartedAt:  c.startedAt,
		IsFirst:    c.index == 0,
		IsLast:     c.index == n-1,
		QuestionID: c.quiz.Questions[c.index].ID,
	}
}
