package middleware

import (
	"context"
	"errors"
	"strings"

	"realestate-crm/internal/config"
	"realestate-crm/internal/core/domain"
	"realestate-crm/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// Authenticator resolves an access token into the caller it names
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error)
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		principal, err := auth.Authenticate(c.Context(), accessToken)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				return response.Unauthorized(c, "Access token expired")
			case errors.Is(err, domain.ErrUserInactive):
				return response.Unauthorized(c, "Account is inactive")
			case errors.Is(err, domain.ErrTokenInvalid):
				return response.Unauthorized(c, "Invalid access token")
			}
			return response.FromError(c, config.GetLogger(), domain.Internal(err))
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// Principal returns the authenticated caller, or nil
func Principal(c *fiber.Ctx) *domain.Principal {
	p, _ := c.Locals(principalKey).(*domain.Principal)
	return p
}

// extractToken reads the access_token cookie first, then the Bearer header
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
