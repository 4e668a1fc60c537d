package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docauth/internal/model"
)

// PrincipalLocalKey stores the authenticated *model.Principal in Fiber locals.
const PrincipalLocalKey = "principal"

// TokenParser validates access credentials.
type TokenParser interface {
	ParseAccess(token string) (*model.Principal, error)
}

// RequireAuth rejects requests without a valid bearer access token. Failures are
// reported through onFail so the caller controls the error body.
func RequireAuth(tokens TokenParser, onFail fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(raw, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return onFail(c)
		}
		p, err := tokens.ParseAccess(strings.TrimSpace(token))
		if err != nil {
			return onFail(c)
		}
		c.Locals(PrincipalLocalKey, p)
		return c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(onFail fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := PrincipalFrom(c)
		if p == nil || !p.IsAdmin {
			return onFail(c)
		}
		return c.Next()
	}
}

// PrincipalFrom returns the identity stored by RequireAuth, or nil.
func PrincipalFrom(c *fiber.Ctx) *model.Principal {
	p, _ := c.Locals(PrincipalLocalKey).(*model.Principal)
	return p
}
