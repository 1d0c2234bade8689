package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/storefront-auth/pkg/util"
)

const claimsKey = "auth_claims"

// AuthMiddleware enforces authentication on API routes using the
// full-runtime verifier.
type AuthMiddleware struct {
	verifier *Verifier
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(verifier *Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Handle rejects requests without a valid session.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	identity, claims, ok := m.verifier.ResolveRequest(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	c.Locals(identityKey, identity)
	c.Locals(claimsKey, claims)
	return c.Next()
}

// ClaimsFromContext retrieves the claims stored by AuthMiddleware.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*Claims)
	return claims, ok
}
