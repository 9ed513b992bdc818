package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/cache"
	"github.com/hainu/catalog/internal/plugins/admin"
	"github.com/hainu/catalog/internal/plugins/blog"
	"github.com/hainu/catalog/internal/plugins/catalog"
	"github.com/hainu/catalog/internal/plugins/subscriptions"
	"github.com/hainu/catalog/internal/scraper"
)

// healthTimeout bounds the dependency pings of /healthz.
const healthTimeout = 3 * time.Second

// RegisterRoutes sets up all application routes. Ops routes are registered
// directly; every plugin mounts its own routes. Background work started by
// route middleware stops when ctx is done.
func (a *App) RegisterRoutes(ctx context.Context) {
	e := a.Echo

	// --- Ops ---

	e.GET("/healthz", a.health)
	e.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))

	// --- Plugins ---

	catalogService := catalog.NewCatalogService(catalog.Repositories{
		Services:   catalog.NewServiceRepository(a.DB),
		Tags:       catalog.NewTagRepository(a.DB),
		Categories: catalog.NewCategoryRepository(a.DB),
		Ratings:    catalog.NewRatingRepository(a.DB),
		Reviews:    catalog.NewReviewRepository(a.DB),
	})
	projector := catalog.NewProjector(a.Config.MediaURL)

	api := e.Group("/api/v1")

	listCache := cache.Middleware(a.Cache, a.Config.Cache.TTL, a.Metrics)
	catalog.RegisterRoutes(api, catalog.NewHandler(catalogService, projector), listCache)

	posts := blog.NewPostService(blog.NewPostRepository(a.DB), a.Config.MediaURL)
	blog.RegisterRoutes(api, blog.NewHandler(posts))

	subs := subscriptions.NewSubscriptionService(subscriptions.NewSubscriptionRepository(a.DB))
	subscriptions.RegisterRoutes(ctx, api, subscriptions.NewHandler(subs))

	fetcher := scraper.NewClient(a.Config.Scrape.Timeout, a.Config.Scrape.UserAgent)
	adminHandler := admin.NewHandler(catalogService, projector, fetcher, a.Cache, a.Metrics)
	admin.RegisterRoutes(e, adminHandler, a.Config.Admin, a.Config.Cache.ClearPublic)
}

// health pings the database and the cache store (GET /healthz).
func (a *App) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	checks := map[string]string{"database": "ok", "cache": "ok"}
	status := http.StatusOK

	if err := a.DB.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := a.Cache.Ping(ctx); err != nil {
		checks["cache"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	result := "ok"
	if status != http.StatusOK {
		result = "unavailable"
	}
	return c.JSON(status, map[string]any{"status": result, "checks": checks})
}
