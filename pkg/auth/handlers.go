package auth

import (
	"net/http"
	"time"

	"github.com/elibbooks/elib/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "elib_session"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = 7 * 24 * time.Hour // 7 days
)

type handler struct {
	authService *Service
}

// register creates a new account and signs it in.
func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()

	params := RegisterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Register(ctx, params.Username, params.Email, params.Password)
	if err != nil {
		return err
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}
	setSessionCookie(c, token)

	return c.JSON(http.StatusCreated, user)
}

// login handles user login.
func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		return err
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}
	setSessionCookie(c, token)

	return c.JSON(http.StatusOK, user)
}

// logout clears the session cookie.
func (h *handler) logout(c echo.Context) error {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(c),
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// me returns the current authenticated user.
func (h *handler) me(c echo.Context) error {
	user := UserFromContext(c)
	if user == nil {
		return errcodes.Unauthorized("Authentication required")
	}
	return c.JSON(http.StatusOK, user)
}

// changePassword replaces the authenticated user's password.
func (h *handler) changePassword(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := UserIDFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := ChangePasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.authService.ChangePassword(ctx, userID, params.CurrentPassword, params.NewPassword); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func setSessionCookie(c echo.Context, token string) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   isSecureRequest(c),
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)
}

func isSecureRequest(c echo.Context) bool {
	return c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https"
}
