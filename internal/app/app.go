// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (DB pool, cache store, metrics, Echo
// instance) and wires the catalog, blog, subscription and admin plugins.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/hainu/catalog/internal/apperror"
	"github.com/hainu/catalog/internal/cache"
	"github.com/hainu/catalog/internal/config"
	"github.com/hainu/catalog/internal/metrics"
	"github.com/hainu/catalog/internal/middleware"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once by the serve command and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all plugins.
	DB *sql.DB

	// Cache stores rendered list pages. Redis-backed when REDIS_URL is set.
	Cache cache.Store

	// Metrics is the Prometheus registry served at /metrics.
	Metrics *metrics.Metrics

	// Echo is the HTTP server instance.
	Echo *echo.Echo
}

// New creates a new App and configures the Echo server with global
// middleware and error handling.
func New(cfg *config.Config, db *sql.DB, store cache.Store, m *metrics.Metrics) (*App, error) {
	e := echo.New()

	// We log our own startup line.
	e.HideBanner = true
	e.HidePort = true

	// c.RealIP() must see the client, not the proxy, for rate limiting.
	if err := middleware.TrustedProxies(e, cfg.TrustedProxies); err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      db,
		Cache:   store,
		Metrics: m,
		Echo:    e,
	}

	app.setupMiddleware()
	e.HTTPErrorHandler = app.errorHandler

	return app, nil
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: outermost (recovery) runs first.
func (a *App) setupMiddleware() {
	// "/api/v1/catalog/tags/" and "/api/v1/catalog/tags" are the same route.
	a.Echo.Pre(echomw.RemoveTrailingSlash())

	a.Echo.Use(middleware.Recovery())
	a.Echo.Use(middleware.RequestLogger())
	a.Echo.Use(a.Metrics.Middleware())
	a.Echo.Use(middleware.SecurityHeaders())
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: a.Config.CORSOrigins,
	}))
}

// errorHandler maps domain errors (AppError) and Echo errors to JSON
// responses of the form {"error": <status text>, "message": <detail>}.
// Field validation errors render their field map instead.
func (a *App) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "An unexpected error occurred"
	var fields map[string][]string

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message
		fields = appErr.Fields

		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
	case errors.As(err, &echoErr):
		code = echoErr.Code
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		} else {
			message = defaultErrorMessage(code)
		}
	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
		)
	}

	var writeErr error
	switch {
	case c.Request().Method == http.MethodHead:
		writeErr = c.NoContent(code)
	case fields != nil:
		writeErr = c.JSON(code, fields)
	default:
		writeErr = c.JSON(code, map[string]string{
			"error":   http.StatusText(code),
			"message": message,
		})
	}
	if writeErr != nil {
		slog.Warn("writing error response failed", slog.Any("error", writeErr))
	}
}

// defaultErrorMessage returns a client-facing message for status codes
// raised without one.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusUnauthorized:
		return "Authentication credentials were not provided or are invalid."
	case http.StatusForbidden:
		return "You do not have permission to perform this action."
	case http.StatusNotFound:
		return "Not found."
	case http.StatusMethodNotAllowed:
		return "Method not allowed."
	case http.StatusRequestEntityTooLarge:
		return "The request body is too large."
	case http.StatusUnsupportedMediaType:
		return "Unsupported media type in request."
	case http.StatusTooManyRequests:
		return "Request was throttled."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "An unexpected error occurred."
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting catalog server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}
