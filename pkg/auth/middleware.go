package auth

import (
	"github.com/elibbooks/elib/pkg/errcodes"
	"github.com/elibbooks/elib/pkg/models"
	"github.com/labstack/echo/v4"
)

// Echo context keys for the authenticated user.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyUser     = "user"
)

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate extracts and validates the JWT from the cookie. If valid, it
// verifies the user still exists and adds user info to the context. If not
// authenticated, it returns 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		cookie, err := c.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		claims, err := m.authService.ValidateToken(cookie.Value)
		if err != nil {
			return errcodes.Unauthorized("Invalid or expired token")
		}

		user, err := m.authService.GetUserByID(ctx, claims.UserID)
		if err != nil {
			return errcodes.Unauthorized("User not found")
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUsername, user.Username)
		c.Set(ContextKeyUser, user)

		return next(c)
	}
}

// AuthenticateOptional adds user info to the context when a valid session
// cookie is present but never rejects the request. Used on read endpoints
// where favorites are personalized for signed-in users.
func (m *Middleware) AuthenticateOptional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		cookie, err := c.Cookie(CookieName)
		if err == nil && cookie.Value != "" {
			claims, err := m.authService.ValidateToken(cookie.Value)
			if err == nil {
				user, err := m.authService.GetUserByID(ctx, claims.UserID)
				if err == nil {
					c.Set(ContextKeyUserID, user.ID)
					c.Set(ContextKeyUsername, user.Username)
					c.Set(ContextKeyUser, user)
				}
			}
		}
		return next(c)
	}
}

// UserFromContext retrieves the authenticated user from the Echo context.
func UserFromContext(c echo.Context) *models.User {
	user, _ := c.Get(ContextKeyUser).(*models.User)
	return user
}

// UserIDFromContext retrieves the authenticated user's ID from the Echo
// context.
func UserIDFromContext(c echo.Context) (int, bool) {
	userID, ok := c.Get(ContextKeyUserID).(int)
	return userID, ok
}
