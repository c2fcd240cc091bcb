package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieConfig describes the httpOnly cookie that carries the token. The
// same attributes are used to set and to clear it; a clear with different
// attributes is silently ignored by browsers.
type CookieConfig struct {
	Name     string
	Path     string
	Secure   bool
	SameSite string
	MaxAge   time.Duration
}

// NewCookieConfig picks attributes for the environment: Lax without Secure
// for local development, None+Secure otherwise.
func NewCookieConfig(name string, production bool, maxAge time.Duration) CookieConfig {
	if name == "" {
		name = "token"
	}
	cc := CookieConfig{Name: name, Path: "/", MaxAge: maxAge, SameSite: fiber.CookieSameSiteLaxMode}
	if production {
		cc.Secure = true
		cc.SameSite = fiber.CookieSameSiteNoneMode
	}
	return cc
}

func (cc CookieConfig) base() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     cc.Name,
		Path:     cc.Path,
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: cc.SameSite,
	}
}

// Set writes the token cookie.
func (cc CookieConfig) Set(c *fiber.Ctx, token string) {
	cookie := cc.base()
	cookie.Value = token
	cookie.MaxAge = int(cc.MaxAge / time.Second)
	cookie.Expires = time.Now().Add(cc.MaxAge)
	c.Cookie(cookie)
}

// Clear expires the token cookie using the attributes it was set with.
func (cc CookieConfig) Clear(c *fiber.Ctx) {
	cookie := cc.base()
	cookie.Expires = time.Unix(0, 0).Add(time.Second)
	c.Cookie(cookie)
}

// Read returns the token carried by the request, or "".
func (cc CookieConfig) Read(c *fiber.Ctx) string {
	return c.Cookies(cc.Name)
}
