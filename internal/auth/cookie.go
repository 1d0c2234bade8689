package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	// CookieName is the only session cookie written.
	CookieName = "token"
	// LegacyCookieName was written by the old admin flow. It is still read
	// until CookieOptions.LegacyUntil.
	LegacyCookieName = "auth-token"
)

// CookieOptions defines how session cookies are issued and read.
type CookieOptions struct {
	Secure      bool
	LegacyUntil time.Time
	Now         func() time.Time
}

func (o CookieOptions) legacyReadable() bool {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return now().Before(o.LegacyUntil)
}

// SetSessionCookie writes the session cookie and expires the legacy one.
func SetSessionCookie(c *fiber.Ctx, token string, ttl time.Duration, opts CookieOptions) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HTTPOnly: true,
		Secure:   opts.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	if c.Cookies(LegacyCookieName) != "" {
		expireCookie(c, LegacyCookieName, opts)
	}
}

// ClearSessionCookie removes both session cookie names from the client.
func ClearSessionCookie(c *fiber.Ctx, opts CookieOptions) {
	expireCookie(c, CookieName, opts)
	expireCookie(c, LegacyCookieName, opts)
}

func expireCookie(c *fiber.Ctx, name string, opts CookieOptions) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   opts.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ExtractToken finds the bearer token for a request. The Authorization header
// wins over the session cookie, which wins over the legacy cookie.
func ExtractToken(c *fiber.Ctx, opts CookieOptions) (string, bool) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token, true
			}
		}
	}
	if token := c.Cookies(CookieName); token != "" {
		return token, true
	}
	if opts.legacyReadable() {
		if token := c.Cookies(LegacyCookieName); token != "" {
			return token, true
		}
	}
	return "", false
}
