// Package gateway is the boundary between a finished quiz session and the
// backend that records it: fetching a quiz for a job, storing the response
// and applying the candidate to the job.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/jobiai/jobiai-assess/internal/candidacy"
	"github.com/jobiai/jobiai-assess/internal/quiz"
)

var (
	ErrQuizNotFound       = errors.New("no quiz configured for this job")
	ErrApplicationPending = errors.New("response recorded, application pending")
)

// Gateway is what the session runner needs from the backend.
type Gateway interface {
	FetchQuiz(ctx context.Context, jobPostID string) (quiz.Quiz, error)
	CreateQuizResponse(ctx context.Context, r quiz.Response) (quiz.Response, error)
	Apply(ctx context.Context, jobPostID, candidateID string) (candidacy.Candidacy, error)
}

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

// Temporary reports whether retrying could help.
func (e *StatusError) Temporary() bool {
	return e.Status >= 500 || e.Status == 429 || e.Status == 408
}
