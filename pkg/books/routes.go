package books

import (
	"github.com/elibbooks/elib/pkg/auth"
	"github.com/elibbooks/elib/pkg/mediastore"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all book routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, store *mediastore.Store, deriver Deriver, mw *auth.Middleware) *Service {
	bookService := NewService(db, store, deriver)

	h := &handler{
		bookService: bookService,
		store:       store,
	}

	books := e.Group("/books")
	books.GET("", h.list, mw.AuthenticateOptional)
	books.POST("", h.create, mw.Authenticate)
	books.GET("/:slug", h.retrieve, mw.AuthenticateOptional)
	books.POST("/:slug", h.update, mw.Authenticate)
	books.DELETE("/:slug", h.delete, mw.Authenticate)
	books.POST("/:slug/favorite", h.favorite, mw.Authenticate)
	books.GET("/:slug/analyze", h.analyze, mw.Authenticate)

	books.GET("/:slug/cover", h.cover)
	books.GET("/:slug/thumb", h.thumb)
	books.GET("/:slug/pages/:num", h.page)
	books.GET("/:slug/file", h.file)

	return bookService
}
