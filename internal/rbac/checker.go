package rbac

import (
	"context"
	"strings"
)

// Checker answers permission questions for a role policy. A grant ending
// in "*" covers every permission with that prefix; "*" alone covers all.
type Checker struct {
	exact  map[string]map[string]bool
	prefix map[string][]string
}

// NewChecker compiles a policy; nil uses RolePermissions.
func NewChecker(policy map[string][]string) *Checker {
	if policy == nil {
		policy = RolePermissions
	}
	c := &Checker{
		exact:  make(map[string]map[string]bool, len(policy)),
		prefix: make(map[string][]string, len(policy)),
	}
	for role, grants := range policy {
		c.exact[role] = make(map[string]bool, len(grants))
		for _, g := range grants {
			if p, ok := strings.CutSuffix(g, "*"); ok {
				c.prefix[role] = append(c.prefix[role], p)
				continue
			}
			c.exact[role][g] = true
		}
	}
	return c
}

func (c *Checker) Has(role, perm string) bool {
	if c.exact[role][perm] {
		return true
	}
	for _, p := range c.prefix[role] {
		if strings.HasPrefix(perm, p) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// All is false for an empty perms list.
func (c *Checker) All(role string, perms ...string) bool {
	if len(perms) == 0 {
		return false
	}
	for _, p := range perms {
		if !c.Has(role, p) {
			return false
		}
	}
	return true
}

type roleKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFromContext returns the caller's role, or "" when unauthenticated.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
