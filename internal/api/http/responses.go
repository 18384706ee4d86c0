package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobiai/jobiai-assess/internal/quiz"
	"github.com/jobiai/jobiai-assess/internal/rbac"
	"github.com/jobiai/jobiai-assess/internal/report"
)

// ResponseRecorder stores a response and tells the quiz owner.
type ResponseRecorder interface {
	CreateQuizResponse(ctx context.Context, r quiz.Response) (quiz.Response, error)
}

type responseReq struct {
	CandidateID string   `json:"candidateId"`
	Score       *float64 `json:"score"`
	TimeTaken   *int     `json:"timeTaken"`
}

// POST /quizzes/{quizID}/responses  {candidateId, score, timeTaken}
// Candidates always submit for themselves.
func CreateResponseHandler(rec ResponseRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		var req responseReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Score == nil || req.TimeTaken == nil {
			http.Error(w, "candidateId, score and timeTaken required", http.StatusBadRequest)
			return
		}
		if req.CandidateID == "" || !rbac.Can(r.Context(), rbac.PermResponseViewAll) {
			req.CandidateID = sub
		}
		out, err := rec.CreateQuizResponse(r.Context(), quiz.Response{
			QuizID:      chi.URLParam(r, "quizID"),
			CandidateID: req.CandidateID,
			Score:       *req.Score,
			TimeTaken:   *req.TimeTaken,
		})
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func ListResponsesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs, err := store.ListResponses(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rs)
	}
}

// GET /quizzes/{quizID}/responses/{candidateID}: the router lets through
// the candidate themself or a view-all role.
func GetResponseHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cand := chi.URLParam(r, "candidateID")
		resp, err := store.GetResponse(r.Context(), chi.URLParam(r, "quizID"), cand)
		if errors.Is(err, quiz.ErrResponseNotFound) {
			http.Error(w, "no response for this candidate", http.StatusNotFound)
			return
		}
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func ExportResponsesXLSXHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			quizError(w, err)
			return
		}
		rs, err := store.ListResponses(r.Context(), q.ID)
		if err != nil {
			quizError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="responses-`+q.ID+`.xlsx"`)
		if err := report.WriteResponsesXLSX(w, q, rs); err != nil {
			http.Error(w, "export failed", http.StatusInternalServerError)
		}
	}
}

func ResponsePDFHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			quizError(w, err)
			return
		}
		resp, err := store.GetResponse(r.Context(), q.ID, chi.URLParam(r, "candidateID"))
		if errors.Is(err, quiz.ErrResponseNotFound) {
			http.Error(w, "no response for this candidate", http.StatusNotFound)
			return
		}
		if err != nil {
			quizError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		if err := report.WriteResponsePDF(w, q, resp); err != nil {
			http.Error(w, "report failed", http.StatusInternalServerError)
		}
	}
}
