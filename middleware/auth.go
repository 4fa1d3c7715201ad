package middleware

import (
	"strings"

	"Chronos/AppErrors"
	"Chronos/Identity"

	"github.com/gofiber/fiber/v2"
)

// CallerKey is the Locals key holding the *Identity.Caller of a verified request.
const CallerKey = "caller"

// TokenCookie is the cookie checked when no Authorization header is sent.
const TokenCookie = "jwt"

// Verify authenticates the request and requires at least requiredPermission.
// A requiredPermission of 0 only requires a valid caller.
func Verify(directory *Identity.Directory, requiredPermission int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := directory.VerifyCaller(c.UserContext(), requestToken(c))
		if err != nil {
			return err
		}

		c.Locals(CallerKey, caller)

		if caller.Permission < requiredPermission {
			return AppErrors.Forbidden("Insufficient permissions to access this resource")
		}
		return c.Next()
	}
}

// CallerFrom returns the caller stored by Verify.
func CallerFrom(c *fiber.Ctx) (*Identity.Caller, error) {
	caller, ok := c.Locals(CallerKey).(*Identity.Caller)
	if !ok || caller == nil {
		return nil, AppErrors.Unauthenticated("Authorization token required")
	}
	return caller, nil
}

func requestToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Cookies(TokenCookie)
}
