package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jobiai/jobiai-assess/internal/gateway"
	"github.com/jobiai/jobiai-assess/internal/quiz"
	"github.com/jobiai/jobiai-assess/internal/session"
)

// SubmitFailedMessage is all a candidate is told when storing a result fails.
const SubmitFailedMessage = "submission failed, please try again"

type sessionView struct {
	ID       string           `json:"id"`
	Snapshot session.Snapshot `json:"snapshot"`
	Question *quiz.Question   `json:"question,omitempty"`
	Answer   string           `json:"answer,omitempty"`
	Result   *session.Result  `json:"result,omitempty"`
	Pending  bool             `json:"pending,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func viewOf(id string, c *session.Controller) sessionView {
	v := sessionView{ID: id, Snapshot: c.Snapshot()}
	if res, ok := c.Result(); ok {
		v.Result = &res
		return v
	}
	if v.Snapshot.State == session.StateInProgress {
		q := c.CurrentQuestion()
		q.CorrectAnswer = ""
		v.Question = &q
		v.Answer, _ = c.CurrentAnswer()
	}
	return v
}

func sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrForbidden):
		http.Error(w, "session not found", http.StatusNotFound)
	case gateway.IsNotFound(err):
		http.Error(w, "no quiz for this job post", http.StatusNotFound)
	case errors.Is(err, session.ErrEmptyQuiz):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, session.ErrAlreadySubmitted), errors.Is(err, session.ErrSessionClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrUnknownQuestion):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// withSession resolves {id} for the calling candidate.
func withSession(m *session.Manager, fn func(w http.ResponseWriter, r *http.Request, id string, c *session.Controller)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		c, err := m.Get(id, sub)
		if err != nil {
			sessionError(w, err)
			return
		}
		fn(w, r, id, c)
	}
}

// POST /sessions {jobPostId}
func StartSessionHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		var req struct {
			JobPostID string `json:"jobPostId"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.JobPostID == "" {
			http.Error(w, "jobPostId required", http.StatusBadRequest)
			return
		}
		id, c, err := m.Start(r.Context(), req.JobPostID, sub)
		if err != nil {
			sessionError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, viewOf(id, c))
	}
}

// GET /sessions/{id}; a session the timer submitted shows its result, and
// a generic error if storing it failed.
func GetSessionHandler(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, c *session.Controller) {
		v := viewOf(id, c)
		if v.Result != nil {
			hookErr := m.HookErr(id, c.CandidateID())
			switch {
			case errors.Is(hookErr, gateway.ErrApplicationPending):
				v.Pending = true
			case hookErr != nil:
				v.Error = SubmitFailedMessage
			}
		}
		writeJSON(w, http.StatusOK, v)
	})
}

// PUT /sessions/{id}/answer {questionId?, value}
func AnswerHandler(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, c *session.Controller) {
		var req struct {
			QuestionID string `json:"questionId"`
			Value      string `json:"value"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		var err error
		if req.QuestionID != "" {
			err = c.AnswerQuestion(req.QuestionID, req.Value)
		} else {
			err = c.Answer(req.Value)
		}
		if err != nil {
			sessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(id, c))
	})
}

// Navigation past either end is a no-op; the view says where the
// candidate is.
func NextHandler(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, c *session.Controller) {
		c.Next()
		writeJSON(w, http.StatusOK, viewOf(id, c))
	})
}

func PreviousHandler(m *session.Manager) http.HandlerFunc {
	return withSession(m, func(w http.ResponseWriter, r *http.Request, id string, c *session.Controller) {
		c.Previous()
		writeJSON(w, http.StatusOK, viewOf(id, c))
	})
}

// POST /sessions/{id}/submit: 200 when stored, 202 when the application
// step was queued for retry, 502 with a generic message otherwise.
func SubmitSessionHandler(m *session.Manager, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		res, err := m.Submit(id, sub)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, sessionView{ID: id, Result: &res})
		case errors.Is(err, gateway.ErrApplicationPending):
			writeJSON(w, http.StatusAccepted, sessionView{ID: id, Result: &res, Pending: true})
		case res.QuizID != "":
			log.Error("store session result", zap.String("session_id", id), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, sessionView{ID: id, Result: &res, Error: SubmitFailedMessage})
		default:
			sessionError(w, err)
		}
	}
}

// DELETE /sessions/{id}: the candidate navigated away.
func CloseSessionHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		if err := m.Close(chi.URLParam(r, "id"), sub); err != nil {
			sessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
