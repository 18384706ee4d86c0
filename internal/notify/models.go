package notify

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrNotFound = errors.New("notification not found")

const (
	TypeQuizCompleted    = "quiz_completed"
	TypeCandidacyCreated = "candidacy_created"
	TypeCandidacyStatus  = "candidacy_status"
)

type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Link      string          `json:"link,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt int64           `json:"timestamp"`
}

type Store interface {
	Create(ctx context.Context, n Notification) (Notification, error)
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	// MarkRead and Delete only touch rows owned by userID.
	MarkRead(ctx context.Context, id, userID string) (Notification, error)
	Delete(ctx context.Context, id, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}
