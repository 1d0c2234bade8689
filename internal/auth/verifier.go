package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/internal/repository"
)

// UserLookup re-fetches the live account behind a token.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Verifier resolves request tokens into identities. Without a UserLookup it
// trusts the claims as-is, which is what the route gate runs with.
type Verifier struct {
	tokens      *TokenManager
	cookies     CookieOptions
	lookup      UserLookup
	revocations RevocationChecker
	logger      *zap.Logger
}

// VerifierOption configures optional capabilities.
type VerifierOption func(*Verifier)

// WithUserLookup lets the verifier load the live user record.
func WithUserLookup(lookup UserLookup) VerifierOption {
	return func(v *Verifier) { v.lookup = lookup }
}

// WithRevocations rejects tokens that were revoked.
func WithRevocations(store RevocationChecker) VerifierOption {
	return func(v *Verifier) { v.revocations = store }
}

// WithLogger sets the logger used for recovered infrastructure errors.
func WithLogger(logger *zap.Logger) VerifierOption {
	return func(v *Verifier) { v.logger = logger }
}

// NewVerifier constructs a verifier.
func NewVerifier(tokens *TokenManager, cookies CookieOptions, opts ...VerifierOption) *Verifier {
	v := &Verifier{tokens: tokens, cookies: cookies, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ResolveRequest extracts the token from c and resolves it.
func (v *Verifier) ResolveRequest(c *fiber.Ctx) (*domain.Identity, *Claims, bool) {
	raw, ok := ExtractToken(c, v.cookies)
	if !ok {
		return nil, nil, false
	}
	return v.Resolve(c.UserContext(), raw)
}

// Resolve validates raw and returns the caller identity. Any decode error
// means no identity.
func (v *Verifier) Resolve(ctx context.Context, raw string) (*domain.Identity, *Claims, bool) {
	claims, err := v.tokens.Parse(raw)
	if err != nil {
		return nil, nil, false
	}

	if v.revocations != nil && claims.ID != "" {
		revoked, err := v.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			v.logger.Warn("revocation check failed", zap.Error(err))
		} else if revoked {
			return nil, nil, false
		}
	}

	if v.lookup == nil {
		return IdentityFromClaims(claims), claims, true
	}

	user, err := v.lookup.GetByID(ctx, claims.SubjectID())
	switch {
	case err == nil:
		if !user.IsActive {
			return nil, nil, false
		}
		return domain.IdentityFromUser(user), claims, true
	case errors.Is(err, repository.ErrNotFound):
		return IdentityFromClaims(claims), claims, true
	default:
		v.logger.Warn("user lookup failed; using token claims", zap.String("user_id", claims.SubjectID()), zap.Error(err))
		return IdentityFromClaims(claims), claims, true
	}
}

// IdentityFromClaims synthesizes an identity when no user record is available.
func IdentityFromClaims(c *Claims) *domain.Identity {
	id := &domain.Identity{
		ID:       c.SubjectID(),
		Email:    c.Email,
		Role:     c.Role,
		IsActive: true,
	}
	switch c.Role {
	case domain.RoleAdmin:
		id.FirstName, id.LastName, id.DisplayName = "Admin", "User", "Administrator"
	default:
		id.FirstName, id.DisplayName = "Customer", "Customer"
	}
	if c.Name != "" {
		id.DisplayName = c.Name
	}
	return id
}
