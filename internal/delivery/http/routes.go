package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"accounts-service/internal/infrastructure"
)

// NewServer builds the echo instance with all account routes registered.
func NewServer(h *Handler, auth *AuthMiddleware, limiter *infrastructure.RateLimiter) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	RegisterRoutes(e, h, auth, limiter)
	return e
}

func RegisterRoutes(e *echo.Echo, h *Handler, auth *AuthMiddleware, limiter *infrastructure.RateLimiter) {
	api := e.Group("/api/accounts")

	// Credential-bearing endpoints are throttled per client IP.
	public := api.Group("", RateLimit(limiter))
	public.POST("/signup", h.SignupWithEmail)
	public.POST("/login", h.LoginWithEmailPassword)
	public.POST("/login/google", h.LoginWithGoogle)

	api.POST("/logout", h.Logout)
	api.POST("/token/refresh", h.RefreshAccessToken)

	user := api.Group("/user", auth.Require)
	user.GET("", h.GetUser)
	user.PUT("", h.UpdateUser)
	user.PATCH("", h.PatchUser)
	user.DELETE("", h.DeleteUser)

	emails := api.Group("/email-addresses", auth.Require)
	emails.POST("", h.AddEmailAddress)
	emails.POST("/verify_email", h.VerifyEmail)
	emails.GET("/:id", h.GetEmailAddress)
	emails.DELETE("/:id", h.DeleteEmailAddress)
	emails.POST("/:id/set_primary", h.SetPrimaryEmailAddress)
}
