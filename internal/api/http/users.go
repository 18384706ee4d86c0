package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/jobiai/jobiai-assess/internal/auth/middleware"
	"github.com/jobiai/jobiai-assess/internal/users"
)

// POST /auth/signup {username, password, role}; role is candidate or recruiter.
func SignupHandler(store *users.Store, a *authmw.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Role == "" {
			req.Role = users.RoleCandidate
		}
		if !users.SignupRole(req.Role) {
			http.Error(w, "role must be candidate or recruiter", http.StatusBadRequest)
			return
		}
		u, err := store.Create(r.Context(), req.Username, req.Password, req.Role)
		switch {
		case errors.Is(err, users.ErrExists):
			http.Error(w, "username taken", http.StatusConflict)
			return
		case errors.Is(err, users.ErrInvalid):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, "signup failed", http.StatusInternalServerError)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"access_token": tok, "user": u})
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func ChangePasswordHandler(store *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := subject(w, r)
		if !ok {
			return
		}
		var req changePasswordReq
		if !decodeJSON(w, r, &req) {
			return
		}
		err := store.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, users.ErrInvalid):
			http.Error(w, "new password required", http.StatusBadRequest)
		case errors.Is(err, users.ErrNotFound):
			http.Error(w, "user not found", http.StatusNotFound)
		case errors.Is(err, users.ErrInvalidCredentials):
			http.Error(w, "incorrect old password", http.StatusForbidden)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// GET /users?role=
func ListUsersHandler(store *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		us, err := store.List(r.Context(), r.URL.Query().Get("role"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, us)
	}
}

type updateUserRoleReq struct {
	Role string `json:"role"`
}

// PUT /users/{userID}/role; userID may be an id or a username.
func UpdateUserRoleHandler(store *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateUserRoleReq
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := store.SetRole(r.Context(), chi.URLParam(r, "userID"), req.Role)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, u)
		case errors.Is(err, users.ErrNotFound):
			http.Error(w, "user not found", http.StatusNotFound)
		case errors.Is(err, users.ErrInvalid), errors.Is(err, users.ErrLastAdmin):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
