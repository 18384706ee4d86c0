package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobiai/jobiai-assess/internal/candidacy"
	"github.com/jobiai/jobiai-assess/internal/rbac"
)

// Applier creates a candidacy and reports whether it is new.
type Applier interface {
	ApplyNew(ctx context.Context, jobPostID, candidateID string) (candidacy.Candidacy, bool, error)
}

// StatusNotifier tells a candidate about a status change.
type StatusNotifier interface {
	CandidacyStatusChanged(ctx context.Context, c candidacy.Candidacy)
}

func candidacyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, candidacy.ErrNotFound):
		http.Error(w, "candidacy not found", http.StatusNotFound)
	case errors.Is(err, candidacy.ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// POST /candidacies/apply {jobPostId}: 201 when new, 409 with the existing
// candidacy otherwise.
func ApplyHandler(a Applier) http.HandlerFunc {
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
		c, created, err := a.ApplyNew(r.Context(), req.JobPostID, sub)
		if err != nil {
			candidacyError(w, err)
			return
		}
		status := http.StatusCreated
		if !created {
			status = http.StatusConflict
		}
		writeJSON(w, status, c)
	}
}

func MyCandidaciesHandler(store candidacy.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		cs, err := store.ListByCandidate(r.Context(), sub)
		if err != nil {
			candidacyError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
	}
}

func JobCandidaciesHandler(store candidacy.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, err := store.ListByJob(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			candidacyError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cs)
	}
}

// PUT /candidacies/{id} {status}
func UpdateCandidacyHandler(store candidacy.Store, notifier StatusNotifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status candidacy.Status `json:"status"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := store.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
		if err != nil {
			candidacyError(w, err)
			return
		}
		if notifier != nil {
			notifier.CandidacyStatusChanged(r.Context(), c)
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// DELETE /candidacies/{id}: candidates withdraw their own.
func DeleteCandidacyHandler(store candidacy.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		c, err := store.Get(r.Context(), id)
		if err != nil {
			candidacyError(w, err)
			return
		}
		if c.CandidateID != sub && !rbac.Can(r.Context(), rbac.PermCandidacyViewAll) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if err := store.Delete(r.Context(), id); err != nil {
			candidacyError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
