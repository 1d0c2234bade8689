package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

var (
	ErrEmptySecret   = errors.New("token secret is empty")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// TokenManager handles issuing and validating session JWTs.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// WithClock replaces the time source used for issuing and validating.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	if now != nil {
		tm.now = now
	}
	return tm
}

// Claims describes JWT payload.
type Claims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	Name  string      `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns the id of the account the token was issued for.
func (c *Claims) SubjectID() string {
	return c.Subject
}

// IssueInput carries what goes into a new session token.
type IssueInput struct {
	Identity domain.Identity
	TTL      time.Duration
}

// Issue builds and signs a JWT for the identity. ExpiresAt is always
// IssuedAt + TTL.
func (tm *TokenManager) Issue(in IssueInput) (string, *Claims, error) {
	if len(tm.secret) == 0 {
		return "", nil, ErrEmptySecret
	}
	if in.TTL <= 0 {
		return "", nil, errors.New("token ttl must be positive")
	}

	issuedAt := tm.now().Truncate(time.Second)
	claims := &Claims{
		Email: in.Identity.Email,
		Role:  in.Identity.Role,
		Name:  in.Identity.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   in.Identity.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(in.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse validates signature, structure and expiry and returns the claims.
func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	if len(tm.secret) == 0 {
		return nil, ErrEmptySecret
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// Remaining returns how long the claims stay valid from now.
func (tm *TokenManager) Remaining(c *Claims) time.Duration {
	if c == nil || c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(tm.now())
}
