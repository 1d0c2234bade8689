package handlers

import (
	"fmt"
	"html"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/auth"
)

// PagesHandler renders placeholder storefront pages. The real pages are
// served by the frontend; these exist so the route gate has something to
// pass requests through to.
type PagesHandler struct {
	appName string
}

// NewPagesHandler constructs handler.
func NewPagesHandler(appName string) *PagesHandler {
	return &PagesHandler{appName: appName}
}

// Page returns a handler rendering the named page.
func (h *PagesHandler) Page(title string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		who := "guest"
		if identity, ok := auth.IdentityFromContext(c); ok {
			who = fmt.Sprintf("%s (%s)", identity.DisplayName, identity.Role)
		}
		c.Type("html", "utf-8")
		return c.SendString(fmt.Sprintf(
			"<!doctype html><html><head><title>%s | %s</title></head><body><h1>%s</h1><p data-identity>%s</p><p data-path>%s</p></body></html>",
			html.EscapeString(title),
			html.EscapeString(h.appName),
			html.EscapeString(title),
			html.EscapeString(who),
			html.EscapeString(c.Path()),
		))
	}
}

// FormPost acknowledges a submitted auth form. Browsers submit login forms
// to the JSON API; this keeps plain form posts from 405ing after the gate
// lets them through.
func (h *PagesHandler) FormPost(c *fiber.Ctx) error {
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "submit credentials to /api/auth/login",
		"path":    c.Path(),
	})
}
