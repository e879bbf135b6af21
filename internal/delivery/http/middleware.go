package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"accounts-service/internal/application/interfaces"
	"accounts-service/internal/infrastructure"
)

const userIdContextKey = "auth.userId"

// AuthMiddleware authenticates requests by their Bearer access token.
type AuthMiddleware struct {
	tokens interfaces.TokenIssuer
}

func NewAuthMiddleware(tokens interfaces.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"detail": "Authentication credentials were not provided.",
			})
		}

		userId, err := m.tokens.ParseAccessToken(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"detail": "Invalid or expired access token.",
			})
		}

		c.Set(userIdContextKey, userId)
		return next(c)
	}
}

func userIdFromContext(c echo.Context) uuid.UUID {
	if userId, ok := c.Get(userIdContextKey).(uuid.UUID); ok {
		return userId
	}
	return uuid.Nil
}

// RateLimit throttles by client IP using a per-key token bucket.
func RateLimit(limiter *infrastructure.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"detail": "Too many requests, please try again later.",
				})
			}
			return next(c)
		}
	}
}
