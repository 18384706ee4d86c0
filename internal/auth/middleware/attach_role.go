package auth

import (
	"context"
	"net/http"

	"github.com/jobiai/jobiai-assess/internal/rbac"
	"github.com/jobiai/jobiai-assess/internal/users"
)

type UserLookup interface {
	Get(ctx context.Context, idOrName string) (users.User, error)
}

// AttachRoleFromDB replaces the token's role with the stored one, so role
// changes and deleted accounts take effect before the token expires.
// allowClaimFallback=true in dev; false in prod.
func AttachRoleFromDB(lookup UserLookup, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			claimRole := rbac.RoleFromContext(ctx)

			u, err := lookup.Get(ctx, SubjectFromContext(ctx))
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, u.Role)))
			case allowClaimFallback && claimRole != "":
				next.ServeHTTP(w, r)
			default:
				// unknown users and lookup errors alike
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
