package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/internal/events"
	"github.com/spec-kit/storefront-auth/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for unknown email, wrong password and
	// inactive accounts alike.
	ErrInvalidCredentials = errors.New("Invalid email or password")
	// ErrInvalidAdminCredentials is the admin login counterpart.
	ErrInvalidAdminCredentials = errors.New("Invalid login credentials")
	// ErrAdminNotConfigured means ADMIN_EMAIL/ADMIN_PASSWORD were not provided.
	ErrAdminNotConfigured = errors.New("admin login is not configured")
)

// Session is the outcome of a successful login.
type Session struct {
	User   *domain.Identity
	Token  string
	Claims *auth.Claims
	TTL    time.Duration
}

// AuthService coordinates credential checks and session issuance.
type AuthService struct {
	users       repository.UserRepository
	revocations repository.RevocationRepository
	tokens      *auth.TokenManager
	events      events.Dispatcher
	cfg         config.AuthConfig
	logger      *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	RevocationRepo repository.RevocationRepository
	Tokens         *auth.TokenManager
	Events         events.Dispatcher
	Logger         *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		revocations: deps.RevocationRepo,
		tokens:      tokens,
		events:      deps.Events,
		cfg:         cfg,
		logger:      logger,
	}
}

// LoginCustomer authenticates any active account and issues a customer-length
// session carrying the account's stored role.
func (s *AuthService) LoginCustomer(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.rejected(ctx, events.FlowCustomer, "", "unknown_email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		s.rejected(ctx, events.FlowCustomer, user.ID, "inactive")
		return nil, ErrInvalidCredentials
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.rejected(ctx, events.FlowCustomer, user.ID, "bad_password")
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, events.FlowCustomer, domain.IdentityFromUser(user), s.cfg.CustomerSessionTTL)
}

// LoginAdmin authenticates the seeded administrator account.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*Session, error) {
	if !s.cfg.AdminConfigured() {
		return nil, ErrAdminNotConfigured
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.rejected(ctx, events.FlowAdmin, "", "unknown_email")
			return nil, ErrInvalidAdminCredentials
		}
		return nil, fmt.Errorf("lookup admin: %w", err)
	}
	// The store may compare emails case-insensitively; the admin check may not.
	if email != s.cfg.AdminEmail || user.Email != email || user.Role != domain.RoleAdmin || !user.IsActive {
		s.rejected(ctx, events.FlowAdmin, user.ID, "not_admin")
		return nil, ErrInvalidAdminCredentials
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.rejected(ctx, events.FlowAdmin, user.ID, "bad_password")
		return nil, ErrInvalidAdminCredentials
	}
	return s.issue(ctx, events.FlowAdmin, domain.IdentityFromUser(user), s.cfg.AdminSessionTTL)
}

func (s *AuthService) issue(ctx context.Context, flow events.Flow, identity *domain.Identity, ttl time.Duration) (*Session, error) {
	token, claims, err := s.tokens.Issue(auth.IssueInput{Identity: *identity, TTL: ttl})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	e := events.NewEvent(events.EventLoginSucceeded, flow)
	e.UserID, e.Role = identity.ID, identity.Role
	s.publish(ctx, e)
	return &Session{User: identity, Token: token, Claims: claims, TTL: ttl}, nil
}

// SeedAdmin creates or refreshes the administrator account from
// configuration. It is a no-op when the admin pair is not configured.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	if !s.cfg.AdminConfigured() {
		s.logger.Warn("ADMIN_EMAIL/ADMIN_PASSWORD not set; admin login disabled")
		return nil
	}

	existing, err := s.users.GetByEmail(ctx, s.cfg.AdminEmail)
	switch {
	case err == nil:
		if existing.Role == domain.RoleAdmin && existing.IsActive &&
			auth.ComparePassword(existing.PasswordHash, s.cfg.AdminPassword) == nil {
			return nil
		}
	case errors.Is(err, repository.ErrNotFound):
		// ADMIN_EMAIL may have been rotated; move the seeded row to the new address.
		existing, err = s.users.GetByID(ctx, domain.AdminUserID)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrNotFound):
			existing = nil
		default:
			return fmt.Errorf("lookup admin by id: %w", err)
		}
	default:
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(s.cfg.AdminPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &domain.User{
		ID:           domain.AdminUserID,
		Email:        s.cfg.AdminEmail,
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "User",
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if existing != nil {
		admin.ID = existing.ID
		admin.FirstName, admin.LastName, admin.Phone = existing.FirstName, existing.LastName, existing.Phone
	}
	if err := s.users.Upsert(ctx, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	e := events.NewEvent(events.EventAdminSeeded, events.FlowAdmin)
	e.UserID, e.Role = admin.ID, admin.Role
	s.publish(ctx, e)
	return nil
}

// Logout revokes the session for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || s.revocations == nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, s.tokens.Remaining(claims)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	e := events.NewEvent(events.EventLogout, "")
	e.UserID, e.Role = claims.SubjectID(), claims.Role
	s.publish(ctx, e)
	return nil
}

func (s *AuthService) rejected(ctx context.Context, flow events.Flow, userID, reason string) {
	e := events.NewEvent(events.EventLoginRejected, flow)
	e.UserID, e.Reason = userID, reason
	s.publish(ctx, e)
}

func (s *AuthService) publish(ctx context.Context, e events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("auth event handler failed", zap.String("event", string(e.Type)), zap.Error(err))
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
