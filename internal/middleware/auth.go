package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/accounts/internal/token"
)

const profileContextKey = "currentProfile"

// AuthMiddleware validates bearer session tokens and loads the
// authenticated profile claims into the request context.
func AuthMiddleware(tokens *token.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		profile, err := tokens.Parse(parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(profileContextKey, profile)
		return c.Next()
	}
}

// CurrentProfile extracts the authenticated profile from context.
func CurrentProfile(c *fiber.Ctx) (token.Profile, bool) {
	if profile, ok := c.Locals(profileContextKey).(token.Profile); ok {
		return profile, true
	}
	return token.Profile{}, false
}
