package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobiai/jobiai-assess/internal/gateway"
	"github.com/jobiai/jobiai-assess/internal/quiz"
	"github.com/jobiai/jobiai-assess/internal/session"
)

const submitFailed = "submission failed, please try again"

var errSubmitFailed = errors.New(submitFailed)

// sessionAPI is the server-hosted session surface. The server keeps the
// timer and the answer key; the terminal only renders and forwards input.
type sessionAPI interface {
	StartSession(ctx context.Context, jobPostID string) (gateway.SessionView, error)
	GetSession(ctx context.Context, id string) (gateway.SessionView, error)
	AnswerSession(ctx context.Context, id, questionID, value string) (gateway.SessionView, error)
	NextQuestion(ctx context.Context, id string) (gateway.SessionView, error)
	PreviousQuestion(ctx context.Context, id string) (gateway.SessionView, error)
	SubmitSession(ctx context.Context, id string) (gateway.SessionView, error)
	CloseSession(ctx context.Context, id string) error
}

// taker runs one timed session on the terminal.
type taker struct {
	api sessionAPI
	in  io.Reader
	out io.Writer
	log *zap.Logger
	// poll is how often the server is asked whether the timer ran out.
	poll time.Duration
}

func (t *taker) printf(format string, args ...any) { fmt.Fprintf(t.out, format, args...) }

func (t *taker) run(ctx context.Context, jobPostID string) error {
	v, err := t.api.StartSession(ctx, jobPostID)
	switch {
	case gateway.IsNotFound(err):
		t.printf("No quiz is available for this job post.\n")
		return nil
	case errors.Is(err, session.ErrEmptyQuiz):
		t.printf("This quiz has no questions.\n")
		return nil
	case err != nil:
		t.log.Error("start session", zap.String("job_post_id", jobPostID), zap.Error(err))
		t.printf("Could not load the quiz, please try again later.\n")
		return err
	}
	id := v.ID
	if v.Result != nil {
		return t.finish(v, nil)
	}
	t.printf("%s: %d questions, %s left. Type an answer, :n next, :p previous, :s submit, :q quit.\n",
		v.Snapshot.Title, v.Snapshot.Questions, v.Snapshot.Clock)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	poll := t.poll
	if poll <= 0 {
		poll = 5 * time.Second
	}
	tick := time.NewTicker(poll)
	defer tick.Stop()

	t.render(v)
	for {
		var (
			next gateway.SessionView
			err  error
		)
		select {
		case <-ctx.Done():
			t.abandon(id)
			return ctx.Err()
		case <-tick.C:
			next, err = t.api.GetSession(ctx, id)
			if err == nil && next.Result == nil {
				// still running; the next keystroke redraws the clock
				continue
			}
		case line, ok := <-lines:
			if !ok {
				t.abandon(id)
				t.printf("Input closed, quiz abandoned.\n")
				return nil
			}
			switch cmd := strings.TrimSpace(line); cmd {
			case ":q":
				t.abandon(id)
				t.printf("Quiz abandoned.\n")
				return nil
			case ":s":
				next, err = t.api.SubmitSession(ctx, id)
				if next.Result != nil || errors.Is(err, gateway.ErrApplicationPending) || errors.Is(err, gateway.ErrResultNotStored) {
					return t.finish(next, err)
				}
			case ":n":
				next, err = t.api.NextQuestion(ctx, id)
			case ":p":
				next, err = t.api.PreviousQuestion(ctx, id)
			case "":
				continue
			default:
				qid := ""
				var cur quiz.Question
				if v.Question != nil {
					cur = *v.Question
					qid = cur.ID
				}
				next, err = t.api.AnswerSession(ctx, id, qid, answerValue(cur, cmd))
			}
		}

		if errors.Is(err, session.ErrSessionClosed) {
			// the timer submitted on the server first
			next, err = t.api.GetSession(ctx, id)
		}
		if err != nil {
			t.log.Warn("session request", zap.String("session_id", id), zap.Error(err))
			t.printf("Could not reach the server, please try again.\n")
			continue
		}
		if next.Result != nil {
			return t.finish(next, nil)
		}
		v = next
		t.render(v)
	}
}

// abandon tells the server the candidate left; a fresh context is used
// because the caller's may already be cancelled.
func (t *taker) abandon(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.api.CloseSession(ctx, id); err != nil {
		t.log.Warn("close session", zap.String("session_id", id), zap.Error(err))
	}
}

// answerValue maps a 1-based option number to the option text.
func answerValue(q quiz.Question, in string) string {
	if q.Type == quiz.TypeMultipleChoice {
		if n, err := strconv.Atoi(in); err == nil && n >= 1 && n <= len(q.Options) {
			return q.Options[n-1]
		}
	}
	return in
}

func (t *taker) render(v gateway.SessionView) {
	if v.Question == nil {
		return
	}
	q := v.Question
	t.printf("\n[%d/%d] %s  %s\n", v.Snapshot.Index+1, v.Snapshot.Questions, v.Snapshot.Clock, q.Text)
	switch q.Type {
	case quiz.TypeMultipleChoice:
		for i, o := range q.Options {
			t.printf("  %d) %s\n", i+1, o)
		}
	case quiz.TypeTrueFalse:
		t.printf("  true / false\n")
	}
	if v.Answer != "" {
		t.printf("  current answer: %s\n", v.Answer)
	}
}

func (t *taker) finish(v gateway.SessionView, err error) error {
	r := v.Result
	if r == nil || v.Error != "" || (err != nil && !errors.Is(err, gateway.ErrApplicationPending)) {
		t.log.Error("submit", zap.String("session_id", v.ID), zap.String("server_error", v.Error), zap.Error(err))
		t.printf("%s\n", submitFailed)
		return errSubmitFailed
	}
	if r.Forced {
		t.printf("\nTime is up, your answers were submitted.\n")
	}
	t.printf("Submitted. Score: %.0f%% (%d/%d points) in %s.\n", r.Score, r.Earned, r.Total, session.FormatClock(r.ElapsedSeconds))
	if len(r.NeedsManual) > 0 {
		t.printf("%d answer(s) will be reviewed by the recruiter.\n", len(r.NeedsManual))
	}
	if v.Pending || errors.Is(err, gateway.ErrApplicationPending) {
		t.printf("Your application will be completed shortly.\n")
	}
	return nil
}
