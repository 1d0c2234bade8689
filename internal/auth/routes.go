package auth

import "strings"

// RouteKind classifies a path for the route gate.
type RouteKind string

const (
	RoutePublic    RouteKind = "public"
	RouteProtected RouteKind = "protected"
	RouteAdmin     RouteKind = "admin"
	RouteAuthForm  RouteKind = "auth-form"
)

const (
	AdminRoot      = "/admin"
	AdminLogin     = "/admin/login"
	AdminDashboard = "/admin/dashboard"
	UserLogin      = "/login"
	UserDashboard  = "/dashboard"
)

// RouteRule maps a path prefix to a kind. Exact rules only match the path
// itself.
type RouteRule struct {
	Prefix string
	Kind   RouteKind
	Exact  bool
}

func (r RouteRule) matches(path string) bool {
	if path == r.Prefix {
		return true
	}
	if r.Exact {
		return false
	}
	return strings.HasPrefix(path, strings.TrimSuffix(r.Prefix, "/")+"/")
}

// RouteTable is an ordered rule list; the first matching rule wins.
type RouteTable struct {
	rules []RouteRule
}

// NewRouteTable copies rules into a table with normalised prefixes.
func NewRouteTable(rules ...RouteRule) *RouteTable {
	out := make([]RouteRule, len(rules))
	for i, rule := range rules {
		rule.Prefix = normalizePath(rule.Prefix)
		out[i] = rule
	}
	return &RouteTable{rules: out}
}

// DefaultRouteTable is the storefront layout.
func DefaultRouteTable() *RouteTable {
	return NewRouteTable(
		RouteRule{Prefix: AdminLogin, Kind: RouteAuthForm, Exact: true},
		RouteRule{Prefix: AdminRoot, Kind: RouteAdmin},
		RouteRule{Prefix: UserDashboard, Kind: RouteProtected},
		RouteRule{Prefix: "/orders", Kind: RouteProtected},
		RouteRule{Prefix: "/profile", Kind: RouteProtected},
		RouteRule{Prefix: UserLogin, Kind: RouteAuthForm, Exact: true},
		RouteRule{Prefix: "/register", Kind: RouteAuthForm, Exact: true},
	)
}

// Classify returns the kind of path. Unlisted paths are public. Matching
// ignores case, as the router does.
func (t *RouteTable) Classify(path string) RouteKind {
	path = normalizePath(path)
	for _, rule := range t.rules {
		if rule.matches(path) {
			return rule.Kind
		}
	}
	return RoutePublic
}

// Rules returns a copy of the table.
func (t *RouteTable) Rules() []RouteRule {
	return append([]RouteRule(nil), t.rules...)
}

func normalizePath(path string) string {
	path = strings.ToLower(path)
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
