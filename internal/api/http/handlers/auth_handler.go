package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/api/dto"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/service"
	apperrors "github.com/spec-kit/storefront-auth/pkg/util"
)

// AuthHandler exposes the /api/auth endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	verifier *auth.Verifier
	cookies  auth.CookieOptions
	logger   *zap.Logger
}

// NewAuthHandler constructs handler. verifier should be the full-runtime
// verifier (with user lookup and revocations).
func NewAuthHandler(authService *service.AuthService, verifier *auth.Verifier, cookies auth.CookieOptions, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: authService, verifier: verifier, cookies: cookies, logger: logger}
}

func parseLogin(c *fiber.Ctx) (dto.LoginRequest, error) {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("invalid payload", nil)
	}
	if fields := dto.Validate(req); fields != nil {
		details := make(map[string]any, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		return req, apperrors.NewValidationError("Invalid input", details)
	}
	return req, nil
}

// AdminLogin handles POST /api/auth/admin-login.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	req, err := parseLogin(c)
	if err != nil {
		return err
	}

	session, err := h.auth.LoginAdmin(c.UserContext(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrAdminNotConfigured):
		return apperrors.NewConfigurationError("Server configuration error", err)
	case errors.Is(err, service.ErrInvalidAdminCredentials):
		return apperrors.NewUnauthorized(err.Error())
	default:
		return apperrors.NewInternalError(err)
	}

	auth.SetSessionCookie(c, session.Token, session.TTL, h.cookies)
	return c.JSON(dto.AdminLoginResponse{Success: true, User: dto.NewUserSummary(session.User)})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	req, err := parseLogin(c)
	if err != nil {
		return err
	}

	session, err := h.auth.LoginCustomer(c.UserContext(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorized(err.Error())
	default:
		return apperrors.NewInternalError(err)
	}

	auth.SetSessionCookie(c, session.Token, session.TTL, h.cookies)
	return c.JSON(dto.LoginResponse{
		Message:   "Login successful",
		User:      dto.NewUserSummary(session.User),
		Token:     session.Token,
		ExpiresAt: session.Claims.ExpiresAt.Time,
	})
}

// Check handles GET /api/auth/check. It always answers 200.
func (h *AuthHandler) Check(c *fiber.Ctx) error {
	identity, _, ok := h.verifier.ResolveRequest(c)
	if !ok {
		return c.JSON(dto.CheckResponse{Authenticated: false})
	}
	summary := dto.NewUserSummary(identity)
	return c.JSON(dto.CheckResponse{Authenticated: true, User: &summary})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, _, ok := h.verifier.ResolveRequest(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(dto.CheckResponse{Authenticated: false})
	}
	summary := dto.NewUserSummary(identity)
	return c.JSON(dto.CheckResponse{Authenticated: true, User: &summary})
}

// Logout handles POST /api/auth/logout. The cookies are cleared even when the
// token is already invalid or the revocation store is unreachable.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	auth.ClearSessionCookie(c, h.cookies)
	if _, claims, ok := h.verifier.ResolveRequest(c); ok {
		if err := h.auth.Logout(c.UserContext(), claims); err != nil {
			h.logger.Warn("token revocation failed; session cookie cleared only",
				zap.String("user_id", claims.SubjectID()),
				zap.Error(err),
			)
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// AdminSession handles GET /api/admin/session behind RequireRole(ADMIN).
func (h *AuthHandler) AdminSession(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"user": dto.NewUserSummary(identity)})
}
