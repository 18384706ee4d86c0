package gateway

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jobiai/jobiai-assess/internal/candidacy"
	"github.com/jobiai/jobiai-assess/internal/quiz"
)

// Observer is told about records the Local gateway created.
type Observer interface {
	ResponseRecorded(ctx context.Context, q quiz.Quiz, r quiz.Response)
	CandidacyCreated(ctx context.Context, c candidacy.Candidacy)
}

// Local serves the Gateway contract straight from the stores, for sessions
// hosted by this process.
type Local struct {
	Quizzes     quiz.Store
	Candidacies candidacy.Store
	Observer    Observer
	Log         *zap.Logger
}

func (l *Local) FetchQuiz(ctx context.Context, jobPostID string) (quiz.Quiz, error) {
	qs, err := l.Quizzes.ListQuizzes(ctx, quiz.ListOpts{JobPostID: jobPostID, Limit: 1})
	if err != nil {
		return quiz.Quiz{}, err
	}
	if len(qs) == 0 {
		return quiz.Quiz{}, ErrQuizNotFound
	}
	return qs[0], nil
}

func (l *Local) CreateQuizResponse(ctx context.Context, r quiz.Response) (quiz.Response, error) {
	q, err := l.Quizzes.GetQuiz(ctx, r.QuizID)
	if err != nil {
		return quiz.Response{}, err
	}
	out, err := l.Quizzes.CreateResponse(ctx, r)
	if err != nil {
		return quiz.Response{}, err
	}
	if l.Observer != nil {
		l.Observer.ResponseRecorded(ctx, q, out)
	}
	return out, nil
}

func (l *Local) Apply(ctx context.Context, jobPostID, candidateID string) (candidacy.Candidacy, error) {
	c, _, err := l.ApplyNew(ctx, jobPostID, candidateID)
	return c, err
}

// ApplyNew is Apply that also reports whether the candidacy was created
// by this call.
func (l *Local) ApplyNew(ctx context.Context, jobPostID, candidateID string) (candidacy.Candidacy, bool, error) {
	c, created, err := l.Candidacies.Apply(ctx, jobPostID, candidateID)
	if err != nil {
		return candidacy.Candidacy{}, false, err
	}
	if created && l.Observer != nil {
		l.Observer.CandidacyCreated(ctx, c)
	}
	return c, created, nil
}

// IsNotFound reports whether err means the quiz is missing, whichever
// gateway produced it.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) || errors.Is(err, quiz.ErrNotFound)
}
