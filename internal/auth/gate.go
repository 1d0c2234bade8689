package auth

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

const identityKey = "auth_identity"

// DefaultGateExclusions are prefixes the gate never inspects.
var DefaultGateExclusions = []string{"/api", "/_next/static", "/_next/image", "/favicon.ico", "/public", "/static"}

// GateAction is the outcome of a gate decision.
type GateAction string

const (
	GateAllow    GateAction = "allow"
	GateRedirect GateAction = "redirect"
)

// GateRequest is everything the decision table looks at.
type GateRequest struct {
	Path     string
	Method   string
	Kind     RouteKind
	Identity *domain.Identity
	// RedirectTo is the raw `redirect` query value, if any.
	RedirectTo string
}

// GateDecision is the result of Decide.
type GateDecision struct {
	Action   GateAction
	Location string
}

func allow() GateDecision { return GateDecision{Action: GateAllow} }

func redirectTo(location string) GateDecision {
	return GateDecision{Action: GateRedirect, Location: location}
}

// Decide evaluates the gate decision table; the first matching rule wins.
func Decide(req GateRequest) GateDecision {
	path := normalizePath(req.Path)
	id := req.Identity

	switch req.Kind {
	case RouteAdmin:
		if id == nil {
			target := path
			if path == AdminRoot {
				target = AdminDashboard
			}
			return redirectTo(withRedirect(AdminLogin, target))
		}
		if !id.IsAdmin() {
			return redirectTo(UserDashboard)
		}
		if path == AdminRoot {
			return redirectTo(AdminDashboard)
		}
	case RouteProtected:
		if id == nil {
			return redirectTo(withRedirect(UserLogin, path))
		}
	case RouteAuthForm:
		if id == nil || !strings.EqualFold(req.Method, fiber.MethodGet) {
			return allow()
		}
		if path == AdminLogin {
			if id.IsAdmin() {
				return redirectTo(AdminDashboard)
			}
			return redirectTo(UserDashboard)
		}
		if SafeRedirect(req.RedirectTo) {
			return redirectTo(req.RedirectTo)
		}
		return redirectTo(UserDashboard)
	}
	return allow()
}

// SafeRedirect reports whether target is a local absolute path.
func SafeRedirect(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") {
		return false
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	return !strings.ContainsAny(target, "\r\n")
}

func withRedirect(base, target string) string {
	return base + "?" + url.Values{"redirect": {target}}.Encode()
}

// GateObserver is notified of each decision.
type GateObserver interface {
	RecordGateDecision(kind string, action string)
}

// Gate is the route gate middleware. It resolves identities with a verifier
// that must not touch persistence.
type Gate struct {
	routes     *RouteTable
	verifier   *Verifier
	exclusions []string
	observer   GateObserver
}

// GateConfig bundles gate dependencies.
type GateConfig struct {
	Routes     *RouteTable
	Verifier   *Verifier
	Exclusions []string
	Observer   GateObserver
}

// NewGate constructs the gate.
func NewGate(cfg GateConfig) *Gate {
	routes := cfg.Routes
	if routes == nil {
		routes = DefaultRouteTable()
	}
	source := cfg.Exclusions
	if source == nil {
		source = DefaultGateExclusions
	}
	exclusions := make([]string, len(source))
	for i, prefix := range source {
		exclusions[i] = normalizePath(prefix)
	}
	return &Gate{routes: routes, verifier: cfg.Verifier, exclusions: exclusions, observer: cfg.Observer}
}

func (g *Gate) excluded(path string) bool {
	for _, prefix := range g.exclusions {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// Handle classifies, resolves and decides for one request.
func (g *Gate) Handle(c *fiber.Ctx) error {
	path := normalizePath(c.Path())
	if g.excluded(path) {
		return c.Next()
	}

	kind := g.routes.Classify(path)
	var identity *domain.Identity
	if g.verifier != nil {
		if id, _, ok := g.verifier.ResolveRequest(c); ok {
			identity = id
		}
	}

	decision := Decide(GateRequest{
		Path:       path,
		Method:     c.Method(),
		Kind:       kind,
		Identity:   identity,
		RedirectTo: c.Query("redirect"),
	})
	if g.observer != nil {
		g.observer.RecordGateDecision(string(kind), string(decision.Action))
	}

	if decision.Action == GateRedirect {
		return c.Redirect(decision.Location, fiber.StatusFound)
	}
	if identity != nil {
		c.Locals(identityKey, identity)
	}
	return c.Next()
}

// IdentityFromContext retrieves the identity stored by the gate or the API
// auth middleware.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
