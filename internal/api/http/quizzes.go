package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	authmw "github.com/jobiai/jobiai-assess/internal/auth/middleware"
	"github.com/jobiai/jobiai-assess/internal/quiz"
	"github.com/jobiai/jobiai-assess/internal/rbac"
)

// fullView reports whether the caller may see correct answers.
func fullView(r *http.Request) bool {
	return rbac.Can(r.Context(), rbac.PermQuizUpdate)
}

func present(r *http.Request, q quiz.Quiz) quiz.Quiz {
	if fullView(r) {
		return q
	}
	return q.Redacted()
}

func presentAll(r *http.Request, qs []quiz.Quiz) []quiz.Quiz {
	out := make([]quiz.Quiz, len(qs))
	for i, q := range qs {
		out[i] = present(r, q)
	}
	return out
}

// canEdit: the author or an admin.
func canEdit(r *http.Request, q quiz.Quiz) bool {
	return q.CreatedBy == authmw.SubjectFromContext(r.Context()) || rbac.RoleFromContext(r.Context()) == "admin"
}

func quizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		http.Error(w, "quiz not found", http.StatusNotFound)
	case errors.Is(err, quiz.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func CreateQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		var q quiz.Quiz
		if !decodeJSON(w, r, &q) {
			return
		}
		q.ID = ""
		q.CreatedBy = sub
		out, err := store.PutQuiz(r.Context(), q)
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// GET /quizzes?mine=1&limit=&offset=
func ListQuizzesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := quiz.ListOpts{}
		opts.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
		opts.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
		if r.URL.Query().Get("mine") != "" {
			opts.CreatedBy = authmw.SubjectFromContext(r.Context())
		}
		qs, err := store.ListQuizzes(r.Context(), opts)
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, presentAll(r, qs))
	}
}

func ListQuizzesByJobHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := store.ListQuizzes(r.Context(), quiz.ListOpts{JobPostID: chi.URLParam(r, "jobID")})
		if err != nil {
			quizError(w, err)
			return
		}
		if len(qs) == 0 {
			http.Error(w, "no quizzes for this job post", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, presentAll(r, qs))
	}
}

func GetQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, present(r, q))
	}
}

func UpdateQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		cur, err := store.GetQuiz(r.Context(), id)
		if err != nil {
			quizError(w, err)
			return
		}
		if !canEdit(r, cur) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var q quiz.Quiz
		if !decodeJSON(w, r, &q) {
			return
		}
		q.ID = id
		q.CreatedBy = cur.CreatedBy
		out, err := store.UpdateQuiz(r.Context(), q)
		if err != nil {
			quizError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func DeleteQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		cur, err := store.GetQuiz(r.Context(), id)
		if err != nil {
			quizError(w, err)
			return
		}
		if !canEdit(r, cur) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if err := store.DeleteQuiz(r.Context(), id); err != nil {
			quizError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
