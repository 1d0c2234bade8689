package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

const testSecret = "test-secret-0123456789abcdef0123456789"

func customerIdentity() domain.Identity {
	return domain.Identity{ID: "u-1", Email: "Jane@Example.com", Role: domain.RoleCustomer, DisplayName: "Jane Doe"}
}

func TestIssueParseRoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret)
	for _, id := range []domain.Identity{
		customerIdentity(),
		{ID: domain.AdminUserID, Email: "ops@example.com", Role: domain.RoleAdmin},
	} {
		token, issued, err := tm.Issue(IssueInput{Identity: id, TTL: time.Hour})
		require.NoError(t, err)

		parsed, err := tm.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, id.ID, parsed.SubjectID())
		assert.Equal(t, id.Email, parsed.Email)
		assert.Equal(t, id.Role, parsed.Role)
		assert.Equal(t, id.DisplayName, parsed.Name)
		assert.Equal(t, issued.ID, parsed.ID)
		assert.NotEmpty(t, parsed.ID)
		assert.Equal(t, time.Hour, parsed.ExpiresAt.Sub(parsed.IssuedAt.Time))
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	issuer := NewTokenManager(testSecret).WithClock(func() time.Time { return past })
	token, _, err := issuer.Issue(IssueInput{Identity: customerIdentity(), TTL: 24 * time.Hour})
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret).Parse(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("some-other-secret").Issue(IssueInput{Identity: customerIdentity(), TTL: time.Hour})
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret).Parse(token)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		Email: "jane@example.com",
		Role:  domain.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tm := NewTokenManager(testSecret)
	for _, token := range []string{hs512, none, "not-a-jwt", ""} {
		_, err := tm.Parse(token)
		assert.Error(t, err, token)
	}
}

func TestParseRejectsMissingClaims(t *testing.T) {
	tm := NewTokenManager(testSecret)
	for name, claims := range map[string]*Claims{
		"no expiry": {Role: domain.RoleCustomer, RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"}},
		"no role": {RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}},
		"no subject": {Role: domain.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}},
	} {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = tm.Parse(token)
		assert.Error(t, err, name)
	}
}

func TestIssueRequiresSecretAndTTL(t *testing.T) {
	_, _, err := NewTokenManager("").Issue(IssueInput{Identity: customerIdentity(), TTL: time.Hour})
	require.ErrorIs(t, err, ErrEmptySecret)

	_, _, err = NewTokenManager(testSecret).Issue(IssueInput{Identity: customerIdentity()})
	require.Error(t, err)
}

func TestRemaining(t *testing.T) {
	now := time.Now()
	tm := NewTokenManager(testSecret).WithClock(func() time.Time { return now })
	_, claims, err := tm.Issue(IssueInput{Identity: customerIdentity(), TTL: time.Hour})
	require.NoError(t, err)

	assert.InDelta(t, time.Hour.Seconds(), tm.Remaining(claims).Seconds(), 1)
	assert.Zero(t, tm.Remaining(nil))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.Error(t, ComparePassword(hash, "battery staple"))
}
