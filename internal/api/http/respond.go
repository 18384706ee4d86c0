package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/jobiai/jobiai-assess/internal/auth/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

// subject returns the caller's user id, writing 401 when there is none.
func subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	sub := authmw.SubjectFromContext(r.Context())
	if sub == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return sub, true
}

// ownsParam reports whether the URL parameter names the caller.
func ownsParam(name string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		v := chi.URLParam(r, name)
		return v != "" && v == authmw.SubjectFromContext(r.Context())
	}
}
