package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"accounts-service/internal/application/command"
	"accounts-service/internal/application/interfaces"
	"accounts-service/internal/domain/entities"
)

type CookieConfig struct {
	// Name of the refresh-token cookie.
	Name string
	// Domain scopes the cookie; empty means host-only.
	Domain string
	// SessionAge is the persistent-cookie lifetime used when a login asks to
	// be remembered.
	SessionAge time.Duration
}

type Handler struct {
	accounts interfaces.AccountService
	cookies  CookieConfig
}

func NewHandler(accounts interfaces.AccountService, cookies CookieConfig) *Handler {
	return &Handler{accounts: accounts, cookies: cookies}
}

type signupRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=150"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func (h *Handler) SignupWithEmail(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("detail", "Invalid request body.")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.accounts.SignupWithEmail(c.Request().Context(), &command.SignupCommand{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}

	// The signup cookie is always session-scoped; the user has not asked to
	// be remembered yet.
	h.setRefreshCookie(c, result.Tokens.Refresh, 0)
	return c.JSON(http.StatusOK, echo.Map{
		"access": result.Tokens.Access,
		"user":   result.User,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

func (h *Handler) LoginWithEmailPassword(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("detail", "Invalid request body.")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.accounts.LoginWithEmailPassword(c.Request().Context(), &command.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
		Remember: req.Remember,
	})
	if err != nil {
		return err
	}

	var cookieAge time.Duration
	if result.Remember {
		cookieAge = h.cookies.SessionAge
	}
	h.setRefreshCookie(c, result.Tokens.Refresh, cookieAge)

	return c.JSON(http.StatusOK, echo.Map{
		"access": result.Tokens.Access,
		"user":   result.User,
	})
}

type googleLoginRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

func (h *Handler) LoginWithGoogle(c echo.Context) error {
	var req googleLoginRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("detail", "Invalid request body.")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.accounts.LoginWithGoogle(c.Request().Context(), &command.GoogleLoginCommand{
		AccessToken: req.AccessToken,
	})
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, result.Tokens.Refresh, h.cookies.SessionAge)
	return c.JSON(http.StatusOK, echo.Map{"access": result.Tokens.Access})
}

// Logout clears the client-held refresh cookie. Tokens are stateless, so
// there is nothing to revoke server-side.
func (h *Handler) Logout(c echo.Context) error {
	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusOK)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshAccessToken reads the refresh token from the cookie, falling back
// to the request body, and answers with a fresh access token.
func (h *Handler) RefreshAccessToken(c echo.Context) error {
	providedToken := ""
	if cookie, err := c.Cookie(h.cookies.Name); err == nil {
		providedToken = cookie.Value
	}
	if providedToken == "" {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			providedToken = req.Refresh
		}
	}

	access, err := h.accounts.RefreshAccessToken(providedToken)
	if err != nil {
		if errors.Is(err, entities.ErrTokenInvalid) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Session expired."})
		}
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"access": access})
}

func (h *Handler) GetUser(c echo.Context) error {
	result, err := h.accounts.GetUser(c.Request().Context(), userIdFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

type updateUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

func (h *Handler) UpdateUser(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("detail", "Invalid request body.")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.accounts.UpdateUser(c.Request().Context(), &command.UpdateUserCommand{
		UserId:    userIdFromContext(c),
		Username:  &req.Username,
		Email:     &req.Email,
		FirstName: &req.FirstName,
		LastName:  &req.LastName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

type patchUserRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=150"`
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
}

func (h *Handler) PatchUser(c echo.Context) error {
	var req patchUserRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("detail", "Invalid request body.")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.accounts.UpdateUser(c.Request().Context(), &command.UpdateUserCommand{
		UserId:    userIdFromContext(c),
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	if err := h.accounts.DeleteUser(c.Request().Context(), userIdFromContext(c)); err != nil {
		return err
	}
	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

type addEmailAddressRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) AddEmailAddress(c echo.Context) error {
	var req addEmailAddressRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("detail", "Invalid request body.")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.accounts.AddEmailAddress(c.Request().Context(), &command.AddEmailAddressCommand{
		UserId: userIdFromContext(c),
		Email:  req.Email,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

type verifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

func (h *Handler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return entities.NewValidationError("detail", "Invalid request body.")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.accounts.VerifyEmail(c.Request().Context(), &command.VerifyEmailCommand{
		UserId: userIdFromContext(c),
		Email:  req.Email,
		Code:   req.Code,
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

func (h *Handler) GetEmailAddress(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return entities.ErrNotFound
	}

	result, err := h.accounts.GetEmailAddress(c.Request().Context(), userIdFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) DeleteEmailAddress(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return entities.ErrNotFound
	}

	if err := h.accounts.DeleteEmailAddress(c.Request().Context(), userIdFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetPrimaryEmailAddress(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return entities.ErrNotFound
	}

	result, err := h.accounts.SetPrimaryEmailAddress(c.Request().Context(), userIdFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
