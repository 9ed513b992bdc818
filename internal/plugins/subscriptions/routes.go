package subscriptions

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/middleware"
)

// Sign-ups allowed per client IP per window.
const (
	rateLimitRequests = 10
	rateLimitWindow   = time.Minute
)

// RegisterRoutes mounts the sign-up endpoint under api (normally /api/v1).
// The rate limiter's cleanup runs until ctx is done.
func RegisterRoutes(ctx context.Context, api *echo.Group, h *Handler) {
	g := api.Group("/users")
	g.POST("/email", h.Create, middleware.RateLimit(ctx, rateLimitRequests, rateLimitWindow))
	g.Match([]string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete},
		"/email", middleware.MethodNotAllowed("POST, OPTIONS"))
}
