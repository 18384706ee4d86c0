package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jobiai/jobiai-assess/internal/candidacy"
	"github.com/jobiai/jobiai-assess/internal/quiz"
)

// Submission is everything needed to record a finished session.
type Submission struct {
	JobPostID   string
	CandidateID string
	Response    quiz.Response
}

type Outcome struct {
	Response  quiz.Response
	Candidacy candidacy.Candidacy
	// Pending means the application step was logged for a later retry.
	Pending bool
}

type Clock func() time.Time

// Submitter records a submission in two steps: the quiz response, then the
// application. The second step is idempotent, so it is retried and, if it
// keeps failing, left in the PendingLog for the sweeper.
type Submitter struct {
	GW      Gateway
	Pending PendingLog

	Attempts   int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxReplays int
	ReplayBase time.Duration

	Now   Clock
	Sleep func(ctx context.Context, d time.Duration) error
	Log   *zap.Logger
}

type SubmitterOption func(*Submitter)

func WithRetry(attempts int, base time.Duration) SubmitterOption {
	return func(s *Submitter) {
		if attempts > 0 {
			s.Attempts = attempts
		}
		if base > 0 {
			s.BaseDelay = base
		}
	}
}

func WithSubmitterLogger(l *zap.Logger) SubmitterOption {
	return func(s *Submitter) {
		if l != nil {
			s.Log = l
		}
	}
}

func NewSubmitter(gw Gateway, pending PendingLog, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		GW:         gw,
		Pending:    pending,
		Attempts:   3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		MaxReplays: 20,
		ReplayBase: time.Minute,
		Now:        time.Now,
		Sleep:      sleepCtx,
		Log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Submitter) backoff(attempt int, ceiling time.Duration) time.Duration {
	d := s.BaseDelay
	for i := 0; i < attempt && d < ceiling; i++ {
		d *= 2
	}
	if d > ceiling {
		d = ceiling
	}
	return d
}

// replayDelay doubles from ReplayBase per failed replay, capped at an hour.
func (s *Submitter) replayDelay(attempts int) time.Duration {
	d := s.ReplayBase
	for i := 0; i < attempts && d < time.Hour; i++ {
		d *= 2
	}
	return min(d, time.Hour)
}

func (s *Submitter) apply(ctx context.Context, jobPostID, candidateID string) (candidacy.Candidacy, error) {
	c, err := s.GW.Apply(ctx, jobPostID, candidateID)
	if errors.Is(err, candidacy.ErrAlreadyApplied) {
		return c, nil
	}
	return c, err
}

// Submit runs both steps. A failed first step aborts with its error. A
// second step that still fails after retries returns ErrApplicationPending
// with the outcome marked Pending.
func (s *Submitter) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	log := s.Log.With(zap.String("quiz_id", sub.Response.QuizID), zap.String("candidate_id", sub.CandidateID))

	resp, err := s.GW.CreateQuizResponse(ctx, sub.Response)
	if err != nil {
		log.Error("create quiz response failed", zap.Error(err))
		return Outcome{}, fmt.Errorf("create quiz response: %w", err)
	}
	out := Outcome{Response: resp}

	var lastErr error
	for i := 0; i < max(s.Attempts, 1); i++ {
		if i > 0 {
			if err := s.Sleep(ctx, s.backoff(i-1, s.MaxDelay)); err != nil {
				lastErr = err
				break
			}
		}
		c, err := s.apply(ctx, sub.JobPostID, sub.CandidateID)
		if err == nil {
			out.Candidacy = c
			return out, nil
		}
		lastErr = err
		log.Warn("apply failed", zap.Int("attempt", i+1), zap.Error(err))
		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			break
		}
	}

	if s.Pending == nil {
		return out, fmt.Errorf("apply: %w", lastErr)
	}
	// record with a fresh context, the caller's may be the reason we stopped
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Pending.Add(rctx, sub.JobPostID, sub.CandidateID, lastErr.Error()); err != nil {
		log.Error("record pending application failed", zap.Error(err))
		return out, fmt.Errorf("apply: %w (pending log: %v)", lastErr, err)
	}
	out.Pending = true
	log.Info("application left pending", zap.Error(lastErr))
	return out, fmt.Errorf("%w: %v", ErrApplicationPending, lastErr)
}

// ReplayPending retries due applications once each and returns how many completed.
func (s *Submitter) ReplayPending(ctx context.Context, limit int) (int, error) {
	if s.Pending == nil {
		return 0, nil
	}
	due, err := s.Pending.Due(ctx, s.Now(), limit)
	if err != nil {
		return 0, fmt.Errorf("load pending applications: %w", err)
	}
	done := 0
	for _, p := range due {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if _, err := s.apply(ctx, p.JobPostID, p.CandidateID); err != nil {
			var retryAt time.Time
			if p.Attempts+1 < s.MaxReplays {
				retryAt = s.Now().Add(s.replayDelay(p.Attempts))
			}
			if mErr := s.Pending.MarkFailed(ctx, p.ID, err.Error(), retryAt); mErr != nil {
				return done, mErr
			}
			s.Log.Warn("pending application retry failed",
				zap.String("job_post_id", p.JobPostID),
				zap.String("candidate_id", p.CandidateID),
				zap.Int("attempts", p.Attempts+1),
				zap.Bool("gave_up", retryAt.IsZero()),
				zap.Error(err))
			continue
		}
		if err := s.Pending.MarkDone(ctx, p.ID); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}
