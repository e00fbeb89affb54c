package rbac

import (
	"sort"
	"strings"

	"github.com/stemsi/schoolhub-backend/internal/model"
)

// Gate answers authorization questions against a fixed Policy.
// All methods are pure and safe for concurrent use.
type Gate struct {
	policy Policy
}

// NewGate creates a Gate over policy.
func NewGate(policy Policy) *Gate {
	return &Gate{policy: policy}
}

// HasPermission reports whether role holds perm. Admin holds every permission;
// unknown roles hold none.
func (g *Gate) HasPermission(role model.Role, perm model.Permission) bool {
	if role == model.RoleAdmin {
		return true
	}
	_, ok := g.policy.permissions[role][perm]
	return ok
}

// HasAnyPermission reports whether role holds at least one of perms.
func (g *Gate) HasAnyPermission(role model.Role, perms ...model.Permission) bool {
	for _, perm := range perms {
		if g.HasPermission(role, perm) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether role holds every one of perms.
// An empty list is trivially satisfied.
func (g *Gate) HasAllPermissions(role model.Role, perms ...model.Permission) bool {
	for _, perm := range perms {
		if !g.HasPermission(role, perm) {
			return false
		}
	}
	return true
}

// CanAccessRoute reports whether role may open route. Admin may open every
// route, routes with an empty allow-list are public and routes missing from
// the policy are closed.
func (g *Gate) CanAccessRoute(role model.Role, route string) bool {
	if role == model.RoleAdmin {
		return true
	}
	allowed, ok := g.lookupRoute(route)
	if !ok {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	_, ok = allowed[role]
	return ok
}

// IsSelfAccessOnly reports whether perm only grants access to the actor's own resources.
func IsSelfAccessOnly(perm model.Permission) bool {
	return perm.IsSelfScoped()
}

// Permissions lists the permissions of role in sorted order.
// Admin is reported with the full catalogue.
func (g *Gate) Permissions(role model.Role) []model.Permission {
	if role == model.RoleAdmin {
		out := append([]model.Permission(nil), model.AllPermissions...)
		sortPermissions(out)
		return out
	}
	set := g.policy.permissions[role]
	out := make([]model.Permission, 0, len(set))
	for perm := range set {
		out = append(out, perm)
	}
	sortPermissions(out)
	return out
}

// AccessibleRoutes lists the configured routes role may open, sorted.
// Wildcard routes are reported with their trailing "/*".
func (g *Gate) AccessibleRoutes(role model.Role) []string {
	out := make([]string, 0, len(g.policy.routes))
	for route := range g.policy.routes {
		if !g.CanAccessRoute(role, route) {
			continue
		}
		if g.isWildcard(route) {
			route += "*"
		}
		out = append(out, route)
	}
	sort.Strings(out)
	return out
}

func (g *Gate) lookupRoute(route string) (roleSet, bool) {
	route = normalizeRoute(route)
	if set, ok := g.policy.routes[route]; ok {
		return set, true
	}
	for _, prefix := range g.policy.wildcards {
		if strings.HasPrefix(route, prefix) || route+"/" == prefix {
			return g.policy.routes[prefix], true
		}
	}
	return nil, false
}

func (g *Gate) isWildcard(route string) bool {
	for _, prefix := range g.policy.wildcards {
		if prefix == route {
			return true
		}
	}
	return false
}

func sortPermissions(perms []model.Permission) {
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
}
