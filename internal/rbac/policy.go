// Package rbac decides what each role may do and which front-end routes it may open.
package rbac

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

var (
	ErrUnknownRole       = errors.New("unknown role")
	ErrMalformedPermCode = errors.New("permission must look like resource:action[:self]")
)

// PolicyDocument is the serialized form of a policy (YAML or Go literal).
type PolicyDocument struct {
	// Roles maps each role to the permissions it holds. Admin entries are ignored.
	Roles map[model.Role][]model.Permission `yaml:"roles"`
	// Routes maps a front-end route to the roles allowed to open it.
	// An empty list makes the route public. A trailing "/*" matches every sub-route.
	Routes map[string][]model.Role `yaml:"routes"`
}

type roleSet map[model.Role]struct{}

type permissionSet map[model.Permission]struct{}

// Policy is an immutable role/permission and route table.
// Build it once at startup with NewPolicy, DefaultPolicy or LoadPolicy.
type Policy struct {
	permissions map[model.Role]permissionSet
	routes      map[string]roleSet
	wildcards   []string // route prefixes ending in "/", longest first
}

// NewPolicy validates doc and freezes it into a Policy.
func NewPolicy(doc PolicyDocument) (Policy, error) {
	p := Policy{
		permissions: make(map[model.Role]permissionSet, len(doc.Roles)),
		routes:      make(map[string]roleSet, len(doc.Routes)),
	}

	for role, perms := range doc.Roles {
		if !role.Valid() {
			return Policy{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
		}
		set := make(permissionSet, len(perms))
		for _, perm := range perms {
			if !wellFormed(perm) {
				return Policy{}, fmt.Errorf("%w: %q", ErrMalformedPermCode, perm)
			}
			set[perm] = struct{}{}
		}
		p.permissions[role] = set
	}

	for route, roles := range doc.Routes {
		set := make(roleSet, len(roles))
		for _, role := range roles {
			if !role.Valid() {
				return Policy{}, fmt.Errorf("%w: %q on route %s", ErrUnknownRole, role, route)
			}
			set[role] = struct{}{}
		}
		route = normalizeRoute(route)
		if strings.HasSuffix(route, "/*") {
			prefix := strings.TrimSuffix(route, "*")
			p.wildcards = append(p.wildcards, prefix)
			route = prefix
		}
		p.routes[route] = set
	}

	sort.Slice(p.wildcards, func(i, j int) bool {
		return len(p.wildcards[i]) > len(p.wildcards[j])
	})

	return p, nil
}

// LoadPolicy reads a YAML policy from path. An empty path yields DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}

	var doc PolicyDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}

	return NewPolicy(doc)
}

// DefaultPolicy returns the built-in school policy.
func DefaultPolicy() Policy {
	p, err := NewPolicy(DefaultDocument())
	if err != nil {
		panic(fmt.Sprintf("rbac: default policy is invalid: %v", err))
	}
	return p
}

func wellFormed(p model.Permission) bool {
	parts := strings.Split(string(p), ":")
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
	}
	return true
}

func normalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if len(route) > 1 && !strings.HasSuffix(route, "/*") {
		route = strings.TrimSuffix(route, "/")
	}
	return route
}
