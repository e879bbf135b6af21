package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"accounts-service/internal/domain/entities"
)

// RequestValidator plugs go-playground/validator into echo. Tag failures are
// turned into the same field-keyed ValidationError the services produce, so
// every 400 has one shape.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	return &RequestValidator{validate: validate}
}

func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	fields := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields[fe.Field()] = validationMessage(fe)
	}
	return &entities.ValidationError{Fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "Password and Confirm Password must be the same."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	default:
		return "This value is invalid."
	}
}

// NewHTTPErrorHandler maps the domain error taxonomy onto response shapes:
// field-keyed maps for validation-class failures, a detail message for
// authentication failures, and a generic 500 for everything unexpected.
func NewHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var validationErr *entities.ValidationError
		var httpErr *echo.HTTPError

		switch {
		case errors.As(err, &validationErr):
			err = c.JSON(http.StatusBadRequest, validationErr.Fields)
		case errors.Is(err, entities.ErrInvalidCredentials):
			err = c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid credentials."})
		case errors.Is(err, entities.ErrTokenInvalid):
			err = c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Session expired."})
		case errors.Is(err, entities.ErrInvalidProviderToken):
			err = c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Invalid token."})
		case errors.Is(err, entities.ErrInvalidEmail):
			err = c.JSON(http.StatusBadRequest, echo.Map{"email": "Invalid email address."})
		case errors.Is(err, entities.ErrCodeExpired):
			err = c.JSON(http.StatusBadRequest, echo.Map{
				"code": "Verification code expired. Please check your email for a new one.",
			})
		case errors.Is(err, entities.ErrCodeMismatch):
			err = c.JSON(http.StatusBadRequest, echo.Map{
				"code": "Invalid verification code. Please enter the correct one.",
			})
		case errors.Is(err, entities.ErrNotFound):
			err = c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
		case errors.Is(err, entities.ErrForbidden):
			err = c.JSON(http.StatusForbidden, echo.Map{"detail": "You do not have permission to perform this action."})
		case errors.As(err, &httpErr):
			message := httpErr.Message
			if _, ok := message.(string); ok {
				message = echo.Map{"detail": message}
			}
			err = c.JSON(httpErr.Code, message)
		default:
			log.Printf("http: unhandled error: %v", err)
			err = c.JSON(http.StatusInternalServerError, echo.Map{"detail": "Internal server error."})
		}

		if err != nil {
			log.Printf("http: failed to write error response: %v", err)
		}
	}
}
