// Package events publishes domain events for other services (reporting,
// mailers) to consume.
package events

import (
	"context"
	"time"
)

const (
	DefaultExchange = "assessment.events"

	QuizCompletedKey    = "quiz.completed"
	CandidacyCreatedKey = "candidacy.created"
)

type QuizCompleted struct {
	QuizID      string    `json:"quizId"`
	JobPostID   string    `json:"jobPostId"`
	CandidateID string    `json:"candidateId"`
	ResponseID  string    `json:"responseId"`
	Score       float64   `json:"score"`
	TimeTaken   int       `json:"timeTaken"`
	At          time.Time `json:"at"`
}

type CandidacyCreated struct {
	CandidacyID string    `json:"candidacyId"`
	JobPostID   string    `json:"jobPostId"`
	CandidateID string    `json:"candidateId"`
	At          time.Time `json:"at"`
}

// Publisher sends a JSON-encoded payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// NopPublisher drops everything, used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                               { return nil }
