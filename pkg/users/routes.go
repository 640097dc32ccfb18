package users

import (
	"github.com/elibbooks/elib/pkg/auth"
	"github.com/elibbooks/elib/pkg/mediastore"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all user routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, store *mediastore.Store, mw *auth.Middleware) *Service {
	userService := NewService(db)

	h := &handler{
		userService: userService,
		store:       store,
	}

	users := e.Group("/users")
	users.GET("/profile", h.retrieveProfile, mw.Authenticate)
	users.POST("/profile", h.updateProfile, mw.Authenticate)
	users.GET("/:id/avatar", h.avatar)

	return userService
}
