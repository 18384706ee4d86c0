package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one row of the local event log.
type Entry struct {
	Offset     int64  `json:"offset"`
	RoutingKey string `json:"routingKey"`
	Payload    string `json:"payload"`
	CreatedAt  int64  `json:"createdAt"`
}

// EventLog appends every published event to the event_log table before
// handing it to the next publisher, so events survive a broker outage.
type EventLog struct {
	db   *sql.DB
	next Publisher
	now  func() time.Time
}

// NewEventLog wraps next; a nil next only records.
func NewEventLog(db *sql.DB, next Publisher) *EventLog {
	if next == nil {
		next = NopPublisher{}
	}
	return &EventLog{db: db, next: next, now: time.Now}
}

func (l *EventLog) Publish(ctx context.Context, routingKey string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", routingKey, err)
	}
	if _, err := l.db.ExecContext(ctx,
		`INSERT INTO event_log (routing_key, payload, created_at) VALUES ($1,$2,$3)`,
		routingKey, string(b), l.now().Unix()); err != nil {
		return fmt.Errorf("append %s: %w", routingKey, err)
	}
	return l.next.Publish(ctx, routingKey, payload)
}

// Since returns up to limit entries with an offset greater than after, oldest first.
func (l *EventLog) Since(ctx context.Context, after int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, routing_key, payload, created_at FROM event_log WHERE id > $1 ORDER BY id LIMIT $2`,
		after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Offset, &e.RoutingKey, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *EventLog) Close() error { return l.next.Close() }
