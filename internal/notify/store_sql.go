package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db, now: time.Now} }

const columns = `id,user_id,typ,message,link,data,is_read,created_at`

func scan(row interface{ Scan(...any) error }) (Notification, error) {
	var (
		n    Notification
		data string
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Link, &data, &n.Read, &n.CreatedAt); err != nil {
		return Notification{}, err
	}
	if data != "" && data != "{}" {
		n.Data = []byte(data)
	}
	return n, nil
}

func (s *SQLStore) Create(ctx context.Context, n Notification) (Notification, error) {
	if n.UserID == "" || n.Message == "" {
		return Notification{}, fmt.Errorf("notification: user and message required")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = s.now().Unix()
	n.Read = false
	data := "{}"
	if len(n.Data) > 0 {
		data = string(n.Data)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO notifications (`+columns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		n.ID, n.UserID, n.Type, n.Message, n.Link, data, false, n.CreatedAt)
	if err != nil {
		return Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM notifications
		WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Notification{}
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLStore) MarkRead(ctx context.Context, id, userID string) (Notification, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read=$1 WHERE id=$2 AND user_id=$3`, true, id, userID)
	if err != nil {
		return Notification{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Notification{}, ErrNotFound
	}
	n, err := scan(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM notifications WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Notification{}, ErrNotFound
	}
	return n, err
}

func (s *SQLStore) Delete(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND is_read=$2`, userID, false).Scan(&n)
	return n, err
}
