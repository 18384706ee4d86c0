package candidacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db, now: time.Now} }

const columns = `id,job_post_id,candidate_id,status,applied_at,updated_at`

func scan(row interface{ Scan(...any) error }) (Candidacy, error) {
	var c Candidacy
	var st string
	if err := row.Scan(&c.ID, &c.JobPostID, &c.CandidateID, &st, &c.AppliedAt, &c.UpdatedAt); err != nil {
		return Candidacy{}, err
	}
	c.Status = Status(st)
	return c, nil
}

func (s *SQLStore) Apply(ctx context.Context, jobPostID, candidateID string) (Candidacy, bool, error) {
	if strings.TrimSpace(jobPostID) == "" || strings.TrimSpace(candidateID) == "" {
		return Candidacy{}, false, fmt.Errorf("apply: jobPostId and candidateId required")
	}
	now := s.now().Unix()
	res, err := s.db.ExecContext(ctx, `INSERT INTO candidacies (`+columns+`)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (job_post_id, candidate_id) DO NOTHING`,
		uuid.NewString(), jobPostID, candidateID, string(StatusPending), now, now)
	if err != nil {
		return Candidacy{}, false, fmt.Errorf("insert candidacy: %w", err)
	}
	n, _ := res.RowsAffected()

	c, err := scan(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM candidacies
		WHERE job_post_id=$1 AND candidate_id=$2`, jobPostID, candidateID))
	if err != nil {
		return Candidacy{}, false, fmt.Errorf("load candidacy: %w", err)
	}
	return c, n > 0, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Candidacy, error) {
	c, err := scan(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM candidacies WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Candidacy{}, ErrNotFound
	}
	return c, err
}

func (s *SQLStore) list(ctx context.Context, where, arg string) ([]Candidacy, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM candidacies WHERE `+where+`=$1
		ORDER BY applied_at DESC, id ASC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Candidacy{}
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListByCandidate(ctx context.Context, candidateID string) ([]Candidacy, error) {
	return s.list(ctx, "candidate_id", candidateID)
}

func (s *SQLStore) ListByJob(ctx context.Context, jobPostID string) ([]Candidacy, error) {
	return s.list(ctx, "job_post_id", jobPostID)
}

func (s *SQLStore) UpdateStatus(ctx context.Context, id string, st Status) (Candidacy, error) {
	if !st.Valid() {
		return Candidacy{}, fmt.Errorf("%w: %q", ErrInvalidStatus, st)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE candidacies SET status=$1, updated_at=$2 WHERE id=$3`,
		string(st), s.now().Unix(), id)
	if err != nil {
		return Candidacy{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Candidacy{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM candidacies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
