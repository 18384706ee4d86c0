package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jobiai/jobiai-assess/internal/candidacy"
	"github.com/jobiai/jobiai-assess/internal/events"
	"github.com/jobiai/jobiai-assess/internal/quiz"
)

// QuizLister finds the recruiters behind a job post.
type QuizLister interface {
	ListQuizzes(ctx context.Context, opts quiz.ListOpts) ([]quiz.Quiz, error)
}

// Service stores notifications, pushes them and publishes the matching
// domain events. It observes the records created by the local gateway.
type Service struct {
	Store     Store
	Broadcast Broadcaster
	Events    events.Publisher
	Quizzes   QuizLister
	Log       *zap.Logger
	Now       func() time.Time
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Notify stores n and pushes it. A failed push is logged, the stored
// notification is still returned.
func (s *Service) Notify(ctx context.Context, n Notification) (Notification, error) {
	stored, err := s.Store.Create(ctx, n)
	if err != nil {
		return Notification{}, err
	}
	if s.Broadcast != nil {
		if err := s.Broadcast.Broadcast(ctx, stored); err != nil {
			s.log().Warn("push notification", zap.String("notification_id", stored.ID), zap.Error(err))
		}
	}
	return stored, nil
}

func (s *Service) publish(ctx context.Context, key string, payload any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, key, payload); err != nil {
		s.log().Warn("publish event", zap.String("routing_key", key), zap.Error(err))
	}
}

func (s *Service) ResponseRecorded(ctx context.Context, q quiz.Quiz, r quiz.Response) {
	if q.CreatedBy != "" {
		data, _ := json.Marshal(map[string]any{"quizId": q.ID, "candidateId": r.CandidateID, "score": r.Score})
		_, err := s.Notify(ctx, Notification{
			UserID:  q.CreatedBy,
			Type:    TypeQuizCompleted,
			Message: fmt.Sprintf("A candidate completed %q with a score of %.0f%%", q.Title, r.Score),
			Link:    fmt.Sprintf("/quizzes/%s/responses/%s", q.ID, r.CandidateID),
			Data:    data,
		})
		if err != nil {
			s.log().Error("notify quiz completed", zap.String("quiz_id", q.ID), zap.Error(err))
		}
	}
	s.publish(ctx, events.QuizCompletedKey, events.QuizCompleted{
		QuizID:      q.ID,
		JobPostID:   q.JobPostID,
		CandidateID: r.CandidateID,
		ResponseID:  r.ID,
		Score:       r.Score,
		TimeTaken:   r.TimeTaken,
		At:          s.now(),
	})
}

// recruiters returns the distinct authors of the job's quizzes.
func (s *Service) recruiters(ctx context.Context, jobPostID string) []string {
	if s.Quizzes == nil {
		return nil
	}
	qs, err := s.Quizzes.ListQuizzes(ctx, quiz.ListOpts{JobPostID: jobPostID})
	if err != nil {
		s.log().Warn("list quizzes for job", zap.String("job_post_id", jobPostID), zap.Error(err))
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, q := range qs {
		if q.CreatedBy != "" && !seen[q.CreatedBy] {
			seen[q.CreatedBy] = true
			out = append(out, q.CreatedBy)
		}
	}
	return out
}

func (s *Service) CandidacyCreated(ctx context.Context, c candidacy.Candidacy) {
	for _, uid := range s.recruiters(ctx, c.JobPostID) {
		if _, err := s.Notify(ctx, Notification{
			UserID:  uid,
			Type:    TypeCandidacyCreated,
			Message: "New application received",
			Link:    "/candidacies/job/" + c.JobPostID,
		}); err != nil {
			s.log().Error("notify candidacy created", zap.String("candidacy_id", c.ID), zap.Error(err))
		}
	}
	s.publish(ctx, events.CandidacyCreatedKey, events.CandidacyCreated{
		CandidacyID: c.ID,
		JobPostID:   c.JobPostID,
		CandidateID: c.CandidateID,
		At:          s.now(),
	})
}

// CandidacyStatusChanged tells the candidate about a recruiter decision.
func (s *Service) CandidacyStatusChanged(ctx context.Context, c candidacy.Candidacy) {
	if _, err := s.Notify(ctx, Notification{
		UserID:  c.CandidateID,
		Type:    TypeCandidacyStatus,
		Message: fmt.Sprintf("Your application is now %s", c.Status),
		Link:    "/candidacies",
	}); err != nil {
		s.log().Error("notify candidacy status", zap.String("candidacy_id", c.ID), zap.Error(err))
	}
}
