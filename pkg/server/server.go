package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/elibbooks/elib/pkg/auth"
	"github.com/elibbooks/elib/pkg/binder"
	"github.com/elibbooks/elib/pkg/books"
	"github.com/elibbooks/elib/pkg/config"
	"github.com/elibbooks/elib/pkg/errcodes"
	"github.com/elibbooks/elib/pkg/mediastore"
	"github.com/elibbooks/elib/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, store *mediastore.Store, deriver books.Deriver) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	_, authMiddleware := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	users.RegisterRoutes(e, db, store, authMiddleware)
	books.RegisterRoutes(e, db, store, deriver, authMiddleware)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
