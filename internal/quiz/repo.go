package quiz

import "context"

type ListOpts struct {
	JobPostID string
	CreatedBy string
	Limit     int
	Offset    int
}

type Store interface {
	// PutQuiz inserts a new quiz; an empty ID is assigned.
	PutQuiz(ctx context.Context, q Quiz) (Quiz, error)
	// UpdateQuiz replaces an existing quiz, ErrNotFound if absent.
	UpdateQuiz(ctx context.Context, q Quiz) (Quiz, error)
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	// ListQuizzes returns quizzes oldest first.
	ListQuizzes(ctx context.Context, opts ListOpts) ([]Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error

	CreateResponse(ctx context.Context, r Response) (Response, error)
	// GetResponse returns the latest response of a candidate for a quiz.
	GetResponse(ctx context.Context, quizID, candidateID string) (Response, error)
	ListResponses(ctx context.Context, quizID string) ([]Response, error)
}
