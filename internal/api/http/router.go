package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/http/handlers"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Pages          *handlers.PagesHandler
	AuthMiddleware *auth.AuthMiddleware
	Gate           *auth.Gate
	StaticDir      string
}

// RegisterRoutes wires HTTP routes. The gate runs before every page route and
// skips /api on its own.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	authGroup := api.Group("/auth")
	authGroup.Post("/admin-login", cfg.Auth.AdminLogin)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/check", cfg.Auth.Check)
	authGroup.Get("/me", cfg.Auth.Me)

	adminAPI := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	adminAPI.Get("/session", cfg.Auth.AdminSession)

	app.Use(cfg.Gate.Handle)

	if cfg.StaticDir != "" {
		app.Static("/public", cfg.StaticDir)
		app.Static("/static", cfg.StaticDir)
	}

	pages := cfg.Pages
	app.Get("/", pages.Page("Home"))
	app.Get(auth.UserLogin, pages.Page("Login"))
	app.Post(auth.UserLogin, pages.FormPost)
	app.Get("/register", pages.Page("Register"))
	app.Post("/register", pages.FormPost)
	app.Get(auth.UserDashboard, pages.Page("Dashboard"))
	app.Get("/orders", pages.Page("Orders"))
	app.Get("/orders/*", pages.Page("Order"))
	app.Get("/profile", pages.Page("Profile"))
	app.Get(auth.AdminLogin, pages.Page("Admin Login"))
	app.Post(auth.AdminLogin, pages.FormPost)
	app.Get(auth.AdminDashboard, pages.Page("Admin Dashboard"))
	app.Get("/admin/*", pages.Page("Admin"))
}
