package candidacy

import (
	"context"
	"errors"
)

var (
	ErrNotFound       = errors.New("candidacy not found")
	ErrAlreadyApplied = errors.New("already applied to this job")
	ErrInvalidStatus  = errors.New("invalid candidacy status")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Candidacy is a candidate's application to a job post.
type Candidacy struct {
	ID          string `json:"id"`
	JobPostID   string `json:"jobPostId"`
	CandidateID string `json:"candidateId"`
	Status      Status `json:"status"`
	AppliedAt   int64  `json:"appliedAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

type Store interface {
	// Apply is idempotent per (job, candidate): a repeated call returns the
	// existing row with created=false.
	Apply(ctx context.Context, jobPostID, candidateID string) (c Candidacy, created bool, err error)
	Get(ctx context.Context, id string) (Candidacy, error)
	ListByCandidate(ctx context.Context, candidateID string) ([]Candidacy, error)
	ListByJob(ctx context.Context, jobPostID string) ([]Candidacy, error)
	UpdateStatus(ctx context.Context, id string, st Status) (Candidacy, error)
	Delete(ctx context.Context, id string) error
}
