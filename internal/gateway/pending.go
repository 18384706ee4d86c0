package gateway

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	PendingStatusPending = "pending"
	PendingStatusDone    = "done"
	PendingStatusFailed  = "failed"
)

// PendingApplication is an Apply step that still has to happen.
type PendingApplication struct {
	ID            string
	JobPostID     string
	CandidateID   string
	Status        string
	Attempts      int
	LastError     string
	CreatedAt     int64
	NextAttemptAt int64
}

// PendingLog remembers second steps that did not go through.
type PendingLog interface {
	Add(ctx context.Context, jobPostID, candidateID, lastErr string) error
	Due(ctx context.Context, now time.Time, limit int) ([]PendingApplication, error)
	MarkDone(ctx context.Context, id string) error
	// MarkFailed bumps the attempt counter. A zero retryAt gives up on the entry.
	MarkFailed(ctx context.Context, id, lastErr string, retryAt time.Time) error
}

type SQLPendingLog struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLPendingLog(db *sql.DB) *SQLPendingLog { return &SQLPendingLog{db: db, now: time.Now} }

// Add queues the pair. A pair already queued, or given up on, starts over
// with a fresh attempt budget.
func (p *SQLPendingLog) Add(ctx context.Context, jobPostID, candidateID, lastErr string) error {
	now := p.now().Unix()
	_, err := p.db.ExecContext(ctx, `INSERT INTO pending_applications
		(id, job_post_id, candidate_id, status, attempts, last_error, created_at, next_attempt_at)
		VALUES ($1,$2,$3,'pending',0,$4,$5,$6)
		ON CONFLICT (job_post_id, candidate_id) DO UPDATE
		SET status='pending', attempts=0, last_error=excluded.last_error, next_attempt_at=excluded.next_attempt_at`,
		uuid.NewString(), jobPostID, candidateID, lastErr, now, now)
	return err
}

func (p *SQLPendingLog) Due(ctx context.Context, now time.Time, limit int) ([]PendingApplication, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id, job_post_id, candidate_id, status, attempts, last_error, created_at, next_attempt_at
		FROM pending_applications
		WHERE status='pending' AND next_attempt_at <= $1
		ORDER BY next_attempt_at ASC, id ASC
		LIMIT $2`, now.Unix(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PendingApplication
	for rows.Next() {
		var a PendingApplication
		if err := rows.Scan(&a.ID, &a.JobPostID, &a.CandidateID, &a.Status, &a.Attempts,
			&a.LastError, &a.CreatedAt, &a.NextAttemptAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *SQLPendingLog) MarkDone(ctx context.Context, id string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE pending_applications SET status='done', last_error='' WHERE id=$1`, id)
	return err
}

func (p *SQLPendingLog) MarkFailed(ctx context.Context, id, lastErr string, retryAt time.Time) error {
	status, next := PendingStatusPending, retryAt.Unix()
	if retryAt.IsZero() {
		status, next = PendingStatusFailed, p.now().Unix()
	}
	_, err := p.db.ExecContext(ctx, `UPDATE pending_applications
		SET status=$1, attempts=attempts+1, last_error=$2, next_attempt_at=$3
		WHERE id=$4`, status, lastErr, next, id)
	return err
}
