package rbac

import (
	"context"
	"net/http"
)

var defaultChecker = NewChecker(nil)

// guard answers 403 unless allow passes for the caller's role.
func guard(allow func(role string, r *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(RoleFromContext(r.Context()), r) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return guard(func(role string, _ *http.Request) bool {
		return role != "" && defaultChecker.Has(role, perm)
	})
}

// RequireAny passes a role holding at least one of perms.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string, _ *http.Request) bool {
		return role != "" && defaultChecker.Any(role, perms...)
	})
}

// RequireAll passes a role holding every one of perms.
func RequireAll(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string, _ *http.Request) bool {
		return role != "" && defaultChecker.All(role, perms...)
	})
}

// RequireOwnerOr passes the owner of the addressed resource, or a role
// holding perm. It needs route params, so mount it per route.
func RequireOwnerOr(perm string, isOwner func(r *http.Request) bool) func(http.Handler) http.Handler {
	return guard(func(role string, r *http.Request) bool {
		if role == "" {
			return false
		}
		return isOwner(r) || defaultChecker.Has(role, perm)
	})
}

// Can reports whether the role in ctx holds perm.
func Can(ctx context.Context, perm string) bool {
	role := RoleFromContext(ctx)
	return role != "" && defaultChecker.Has(role, perm)
}
