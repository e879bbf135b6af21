package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// setRefreshCookie attaches the refresh token as an HttpOnly SameSite=Lax
// cookie. age == 0 leaves Expires/Max-Age unset so the cookie is scoped to
// the browser session.
func (h *Handler) setRefreshCookie(c echo.Context, token string, age time.Duration) {
	cookie := &http.Cookie{
		Name:     h.cookies.Name,
		Value:    token,
		Path:     "/",
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if age > 0 {
		cookie.MaxAge = int(age.Seconds())
		cookie.Expires = time.Now().Add(age)
	}

	c.SetCookie(cookie)
}

func (h *Handler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookies.Name,
		Value:    "",
		Path:     "/",
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
