package gateway

import (
	"context"

	"github.com/jobiai/jobiai-assess/internal/session"
)

// SessionHook records every finished session through the submitter. The
// job post comes from the session, falling back to the quiz's.
func (s *Submitter) SessionHook() session.CompletionHook {
	return func(ctx context.Context, r session.Result) error {
		_, err := s.Submit(ctx, Submission{
			JobPostID:   r.JobPostID,
			CandidateID: r.CandidateID,
			Response:    r.Response(),
		})
		return err
	}
}
