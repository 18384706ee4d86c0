package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
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

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) (Quiz, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return Quiz{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return Quiz{}, err
	}
	now := s.now().Unix()
	q.CreatedAt, q.UpdatedAt = now, now
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes
		(id,title,description,job_post_id,duration_min,questions_json,created_by,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		q.ID, q.Title, q.Description, q.JobPostID, q.Duration, string(qj), q.CreatedBy, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return q, nil
}

func (s *SQLStore) UpdateQuiz(ctx context.Context, q Quiz) (Quiz, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return Quiz{}, err
	}
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return Quiz{}, err
	}
	q.UpdatedAt = s.now().Unix()
	res, err := s.db.ExecContext(ctx, `UPDATE quizzes
		SET title=$1, description=$2, job_post_id=$3, duration_min=$4, questions_json=$5, updated_at=$6
		WHERE id=$7`,
		q.Title, q.Description, q.JobPostID, q.Duration, string(qj), q.UpdatedAt, q.ID)
	if err != nil {
		return Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Quiz{}, ErrNotFound
	}
	return s.GetQuiz(ctx, q.ID)
}

const quizColumns = `id,title,description,job_post_id,duration_min,questions_json,created_by,created_at,updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanQuiz(row scanner) (Quiz, error) {
	var q Quiz
	var qjson string
	if err := row.Scan(&q.ID, &q.Title, &q.Description, &q.JobPostID, &q.Duration,
		&qjson, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, fmt.Errorf("quiz %s: decode questions: %w", q.ID, err)
	}
	return q, nil
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	q, err := scanQuiz(s.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, ErrNotFound
	}
	return q, err
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts ListOpts) ([]Quiz, error) {
	var (
		where []string
		args  []any
	)
	if opts.JobPostID != "" {
		args = append(args, opts.JobPostID)
		where = append(where, fmt.Sprintf("job_post_id=$%d", len(args)))
	}
	if opts.CreatedBy != "" {
		args = append(args, opts.CreatedBy)
		where = append(where, fmt.Sprintf("created_by=$%d", len(args)))
	}
	query := `SELECT ` + quizColumns + ` FROM quizzes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit, opts.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) CreateResponse(ctx context.Context, r Response) (Response, error) {
	if err := r.Validate(); err != nil {
		return Response{}, err
	}
	if _, err := s.GetQuiz(ctx, r.QuizID); err != nil {
		return Response{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.SubmittedAt = s.now().Unix()
	_, err := s.db.ExecContext(ctx, `INSERT INTO quiz_responses
		(id,quiz_id,candidate_id,score,time_taken_sec,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.QuizID, r.CandidateID, r.Score, r.TimeTaken, r.SubmittedAt)
	if err != nil {
		return Response{}, fmt.Errorf("insert quiz response: %w", err)
	}
	return r, nil
}

func (s *SQLStore) GetResponse(ctx context.Context, quizID, candidateID string) (Response, error) {
	var r Response
	err := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,candidate_id,score,time_taken_sec,submitted_at
		FROM quiz_responses WHERE quiz_id=$1 AND candidate_id=$2
		ORDER BY submitted_at DESC LIMIT 1`, quizID, candidateID).
		Scan(&r.ID, &r.QuizID, &r.CandidateID, &r.Score, &r.TimeTaken, &r.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Response{}, ErrResponseNotFound
	}
	return r, err
}

func (s *SQLStore) ListResponses(ctx context.Context, quizID string) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,quiz_id,candidate_id,score,time_taken_sec,submitted_at
		FROM quiz_responses WHERE quiz_id=$1 ORDER BY submitted_at ASC, id ASC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Response{}
	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.ID, &r.QuizID, &r.CandidateID, &r.Score, &r.TimeTaken, &r.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
