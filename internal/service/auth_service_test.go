package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/internal/events"
	"github.com/spec-kit/storefront-auth/internal/repository"
)

const testSecret = "service-test-secret-0123456789abcdef"

// MockUsers is an in-memory UserRepository keyed by id. Emails compare
// case-insensitively and must be unique across ids.
type MockUsers struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	err     error
	upserts int
}

func NewMockUsers(users ...*domain.User) *MockUsers {
	m := &MockUsers{byID: map[string]*domain.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *MockUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUsers) Upsert(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	for id, u := range m.byID {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return errors.New(`duplicate key value violates unique constraint "users_email_key"`)
		}
	}
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

type MockRevocations struct {
	revoked map[string]time.Duration
}

func (m *MockRevocations) Revoke(_ context.Context, id string, ttl time.Duration) error {
	m.revoked[id] = ttl
	return nil
}

func (m *MockRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := m.revoked[id]
	return ok, nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:          testSecret,
		AdminEmail:         "ops@example.com",
		AdminPassword:      "admin-password",
		AdminSessionTTL:    24 * time.Hour,
		CustomerSessionTTL: 7 * 24 * time.Hour,
		BcryptCost:         4,
	}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	return hash
}

func newCustomer(t *testing.T) *domain.User {
	return &domain.User{
		ID:           "u-1",
		Email:        "jane@example.com",
		PasswordHash: mustHash(t, "s3cret!"),
		FirstName:    "Jane",
		LastName:     "Doe",
		Role:         domain.RoleCustomer,
		IsActive:     true,
	}
}

func TestLoginCustomerIssuesVerifiableToken(t *testing.T) {
	users := NewMockUsers(newCustomer(t))
	svc := NewAuthService(testAuthConfig(), AuthDependencies{UserRepo: users})

	session, err := svc.LoginCustomer(context.Background(), "jane@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, session.TTL)
	assert.Equal(t, "Jane Doe", session.User.DisplayName)

	claims, err := svc.TokenManager().Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.SubjectID())
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
	assert.Equal(t, session.TTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestLoginCustomerErrorsAreIndistinguishable(t *testing.T) {
	inactive := newCustomer(t)
	inactive.ID, inactive.Email, inactive.IsActive = "u-2", "old@example.com", false
	users := NewMockUsers(newCustomer(t), inactive)
	svc := NewAuthService(testAuthConfig(), AuthDependencies{UserRepo: users})

	_, wrongPassword := svc.LoginCustomer(context.Background(), "jane@example.com", "guess")
	_, unknownEmail := svc.LoginCustomer(context.Background(), "nobody@example.com", "s3cret!")
	_, inactiveAcct := svc.LoginCustomer(context.Background(), "old@example.com", "s3cret!")

	for _, err := range []error{wrongPassword, unknownEmail, inactiveAcct} {
		require.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, "Invalid email or password", err.Error())
	}
}

func TestLoginCustomerSurfacesRepositoryFailures(t *testing.T) {
	users := NewMockUsers()
	users.err = errors.New("connection reset")
	svc := NewAuthService(testAuthConfig(), AuthDependencies{UserRepo: users})

	_, err := svc.LoginCustomer(context.Background(), "jane@example.com", "s3cret!")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestSeedAdminAndLogin(t *testing.T) {
	users := NewMockUsers()
	svc := NewAuthService(testAuthConfig(), AuthDependencies{UserRepo: users})
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx))
	require.NoError(t, svc.SeedAdmin(ctx))
	assert.Equal(t, 1, users.upserts)

	stored, err := users.GetByID(ctx, domain.AdminUserID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)
	assert.NotEqual(t, "admin-password", stored.PasswordHash)

	session, err := svc.LoginAdmin(ctx, "ops@example.com", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, session.TTL)
	assert.Equal(t, domain.RoleAdmin, session.Claims.Role)
	assert.Equal(t, domain.AdminUserID, session.Claims.SubjectID())
}

func TestSeedAdminRehashesChangedPassword(t *testing.T) {
	users := NewMockUsers()
	cfg := testAuthConfig()
	ctx := context.Background()
	require.NoError(t, NewAuthService(cfg, AuthDependencies{UserRepo: users}).SeedAdmin(ctx))

	cfg.AdminPassword = "rotated-password"
	svc := NewAuthService(cfg, AuthDependencies{UserRepo: users})
	require.NoError(t, svc.SeedAdmin(ctx))
	assert.Equal(t, 2, users.upserts)

	_, err := svc.LoginAdmin(ctx, "ops@example.com", "admin-password")
	require.ErrorIs(t, err, ErrInvalidAdminCredentials)
	_, err = svc.LoginAdmin(ctx, "ops@example.com", "rotated-password")
	require.NoError(t, err)
}

func TestSeedAdminFollowsRotatedEmail(t *testing.T) {
	users := NewMockUsers()
	cfg := testAuthConfig()
	ctx := context.Background()
	require.NoError(t, NewAuthService(cfg, AuthDependencies{UserRepo: users}).SeedAdmin(ctx))

	cfg.AdminEmail = "security@example.com"
	svc := NewAuthService(cfg, AuthDependencies{UserRepo: users})
	require.NoError(t, svc.SeedAdmin(ctx))
	assert.Equal(t, 2, users.upserts)
	assert.Len(t, users.byID, 1)

	stored, err := users.GetByID(ctx, domain.AdminUserID)
	require.NoError(t, err)
	assert.Equal(t, "security@example.com", stored.Email)

	_, err = svc.LoginAdmin(ctx, "ops@example.com", "admin-password")
	require.ErrorIs(t, err, ErrInvalidAdminCredentials)
	session, err := svc.LoginAdmin(ctx, "security@example.com", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, domain.AdminUserID, session.Claims.SubjectID())
}

func TestLoginAdminRequiresConfiguredEmail(t *testing.T) {
	ctx := context.Background()
	other := &domain.User{
		ID:           "u-9",
		Email:        "legacy-admin@example.com",
		PasswordHash: mustHash(t, "admin-password"),
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	svc := NewAuthService(testAuthConfig(), AuthDependencies{UserRepo: NewMockUsers(other)})
	require.NoError(t, svc.SeedAdmin(ctx))

	_, err := svc.LoginAdmin(ctx, "legacy-admin@example.com", "admin-password")
	require.ErrorIs(t, err, ErrInvalidAdminCredentials)
}

func TestLoginAdminRejections(t *testing.T) {
	ctx := context.Background()
	users := NewMockUsers(newCustomer(t))
	svc := NewAuthService(testAuthConfig(), AuthDependencies{UserRepo: users})
	require.NoError(t, svc.SeedAdmin(ctx))

	cases := map[string][2]string{
		"wrong password":     {"ops@example.com", "nope"},
		"unknown email":      {"root@example.com", "admin-password"},
		"email case differs": {"OPS@example.com", "admin-password"},
		"customer account":   {"jane@example.com", "s3cret!"},
	}
	for name, creds := range cases {
		_, err := svc.LoginAdmin(ctx, creds[0], creds[1])
		require.ErrorIs(t, err, ErrInvalidAdminCredentials, name)
		assert.Equal(t, "Invalid login credentials", err.Error(), name)
	}
}

func TestLoginAdminNotConfigured(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AdminEmail, cfg.AdminPassword = "", ""
	users := NewMockUsers()
	svc := NewAuthService(cfg, AuthDependencies{UserRepo: users})

	require.NoError(t, svc.SeedAdmin(context.Background()))
	assert.Zero(t, users.upserts)

	_, err := svc.LoginAdmin(context.Background(), "ops@example.com", "admin-password")
	require.ErrorIs(t, err, ErrAdminNotConfigured)
}

func TestLogoutRevokesForRemainingLifetime(t *testing.T) {
	revocations := &MockRevocations{revoked: map[string]time.Duration{}}
	svc := NewAuthService(testAuthConfig(), AuthDependencies{
		UserRepo:       NewMockUsers(newCustomer(t)),
		RevocationRepo: revocations,
	})

	session, err := svc.LoginCustomer(context.Background(), "jane@example.com", "s3cret!")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), session.Claims))

	ttl, ok := revocations.revoked[session.Claims.ID]
	require.True(t, ok)
	assert.InDelta(t, session.TTL.Seconds(), ttl.Seconds(), 2)

	require.NoError(t, svc.Logout(context.Background(), nil))
}

func TestLoginPublishesAuditEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var seen []events.Event
	record := func(_ context.Context, e events.Event) error {
		seen = append(seen, e)
		return nil
	}
	dispatcher.Subscribe(events.EventLoginSucceeded, record)
	dispatcher.Subscribe(events.EventLoginRejected, record)

	svc := NewAuthService(testAuthConfig(), AuthDependencies{
		UserRepo: NewMockUsers(newCustomer(t)),
		Events:   dispatcher,
	})
	ctx := context.Background()
	_, _ = svc.LoginCustomer(ctx, "jane@example.com", "wrong")
	_, err := svc.LoginCustomer(ctx, "jane@example.com", "s3cret!")
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, events.EventLoginRejected, seen[0].Type)
	assert.Equal(t, "bad_password", seen[0].Reason)
	assert.Equal(t, events.EventLoginSucceeded, seen[1].Type)
	assert.Equal(t, events.FlowCustomer, seen[1].Flow)
	assert.Equal(t, domain.RoleCustomer, seen[1].Role)
}
