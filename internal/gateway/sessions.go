package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jobiai/jobiai-assess/internal/quiz"
	"github.com/jobiai/jobiai-assess/internal/session"
)

// ErrResultNotStored means the server graded the session but could not
// record it; the view still carries the result.
var ErrResultNotStored = errors.New("session result not stored")

// SessionView is the server's rendering of a hosted session. Question is
// redacted and only set while the session is in progress.
type SessionView struct {
	ID       string           `json:"id"`
	Snapshot session.Snapshot `json:"snapshot"`
	Question *quiz.Question   `json:"question,omitempty"`
	Answer   string           `json:"answer,omitempty"`
	Result   *session.Result  `json:"result,omitempty"`
	Pending  bool             `json:"pending,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// StartSession opens (or resumes) the caller's session on the job's quiz.
// Grading happens on the server against the full answer key.
func (c *HTTPClient) StartSession(ctx context.Context, jobPostID string) (SessionView, error) {
	return c.sessionCall(ctx, "start session", http.MethodPost, "/sessions", map[string]string{"jobPostId": jobPostID})
}

func (c *HTTPClient) GetSession(ctx context.Context, id string) (SessionView, error) {
	return c.sessionCall(ctx, "get session", http.MethodGet, sessionPath(id, ""), nil)
}

func (c *HTTPClient) AnswerSession(ctx context.Context, id, questionID, value string) (SessionView, error) {
	return c.sessionCall(ctx, "answer", http.MethodPut, sessionPath(id, "answer"),
		map[string]string{"questionId": questionID, "value": value})
}

func (c *HTTPClient) NextQuestion(ctx context.Context, id string) (SessionView, error) {
	return c.sessionCall(ctx, "next", http.MethodPost, sessionPath(id, "next"), nil)
}

func (c *HTTPClient) PreviousQuestion(ctx context.Context, id string) (SessionView, error) {
	return c.sessionCall(ctx, "previous", http.MethodPost, sessionPath(id, "previous"), nil)
}

// SubmitSession ends the session. A queued application step returns the
// view with ErrApplicationPending; a failed store returns it with
// ErrResultNotStored.
func (c *HTTPClient) SubmitSession(ctx context.Context, id string) (SessionView, error) {
	return c.sessionCall(ctx, "submit", http.MethodPost, sessionPath(id, "submit"), nil)
}

func (c *HTTPClient) CloseSession(ctx context.Context, id string) error {
	_, err := c.sessionCall(ctx, "close session", http.MethodDelete, sessionPath(id, ""), nil)
	return err
}

func sessionPath(id, action string) string {
	p := "/sessions/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *HTTPClient) sessionCall(ctx context.Context, op, method, path string, in any) (SessionView, error) {
	res, err := c.do(ctx, method, path, in)
	if err != nil {
		return SessionView{}, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusNoContent:
		return SessionView{}, nil
	case http.StatusNotFound:
		if method == http.MethodPost && path == "/sessions" {
			return SessionView{}, ErrQuizNotFound
		}
		return SessionView{}, session.ErrSessionNotFound
	case http.StatusUnprocessableEntity:
		return SessionView{}, session.ErrEmptyQuiz
	case http.StatusConflict:
		return SessionView{}, session.ErrSessionClosed
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusBadGateway:
	default:
		return SessionView{}, statusErr(op, res)
	}

	var v SessionView
	if err := json.NewDecoder(res.Body).Decode(&v); err != nil {
		return SessionView{}, fmt.Errorf("%s: decode: %w", op, err)
	}
	switch res.StatusCode {
	case http.StatusAccepted:
		return v, ErrApplicationPending
	case http.StatusBadGateway:
		return v, ErrResultNotStored
	}
	return v, nil
}
