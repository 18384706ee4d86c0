package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jobiai/jobiai-assess/internal/notify"
)

func notificationError(w http.ResponseWriter, err error) {
	if errors.Is(err, notify.ErrNotFound) {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// GET /notifications?limit=
func ListNotificationsHandler(store notify.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		ns, err := store.ListByUser(r.Context(), sub, limit)
		if err != nil {
			notificationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ns)
	}
}

func UnreadCountHandler(store notify.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		n, err := store.UnreadCount(r.Context(), sub)
		if err != nil {
			notificationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"unread": n})
	}
}

func MarkReadHandler(store notify.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		n, err := store.MarkRead(r.Context(), chi.URLParam(r, "id"), sub)
		if err != nil {
			notificationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, n)
	}
}

func DeleteNotificationHandler(store notify.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		if err := store.Delete(r.Context(), chi.URLParam(r, "id"), sub); err != nil {
			notificationError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /notifications/ws upgrades and blocks until the client leaves.
func NotificationsWSHandler(hub *notify.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok := subject(w, r)
		if !ok {
			return
		}
		// Upgrade has already answered the client on failure.
		_ = hub.Serve(w, r, sub)
	}
}
