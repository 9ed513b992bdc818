// Package admin provides the maintenance surface: scraping metadata for a
// new service, syncing a service's prime tag into its categories, deleting
// services and tags, and clearing the response cache. Every route sits
// behind admin basic auth except /clear/ when it is configured public.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/apperror"
	"github.com/hainu/catalog/internal/metrics"
	"github.com/hainu/catalog/internal/middleware"
	"github.com/hainu/catalog/internal/plugins/catalog"
	"github.com/hainu/catalog/internal/scraper"
)

// MetadataFetcher reads name, description and logo from a homepage.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, rawURL string) (*scraper.Metadata, error)
}

// CacheFlusher drops every cached page.
type CacheFlusher interface {
	Flush(ctx context.Context) (int, error)
}

// ScrapeInput is the body of POST /admin/services/scrape/, form or JSON.
type ScrapeInput struct {
	URL string `json:"scrape_url" form:"scrape_url"`
}

// ScrapeResult prefills a new service. Bio repeats the description.
type ScrapeResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Bio         string `json:"bio"`
	LogoURL     string `json:"logo_url"`
}

// PrimeCategoryResult reports the category attached for a prime tag.
// Category is null when the service has no prime tag.
type PrimeCategoryResult struct {
	Service  int                  `json:"service"`
	Category *catalog.CategoryDTO `json:"category"`
}

// Handler handles admin HTTP requests.
type Handler struct {
	catalog   catalog.CatalogService
	projector catalog.Projector
	scraper   MetadataFetcher
	cache     CacheFlusher
	metrics   *metrics.Metrics
}

// NewHandler creates a new admin handler. m may be nil.
func NewHandler(catalogService catalog.CatalogService, projector catalog.Projector, fetcher MetadataFetcher, cache CacheFlusher, m *metrics.Metrics) *Handler {
	return &Handler{
		catalog:   catalogService,
		projector: projector,
		scraper:   fetcher,
		cache:     cache,
		metrics:   m,
	}
}

// Scrape fetches a homepage and returns fields for a new service
// (POST /admin/services/scrape/). Errors use a bare {"error": ...} body.
func (h *Handler) Scrape(c echo.Context) error {
	var input ScrapeInput
	if err := c.Bind(&input); err != nil {
		slog.Debug("scrape body not bound", slog.Any("error", err))
	}
	target := strings.TrimSpace(input.URL)
	if target == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No URL provided"})
	}

	meta, err := h.scraper.FetchMetadata(c.Request().Context(), target)
	if err != nil {
		slog.Warn("scrape failed", slog.String("url", target), slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, ScrapeResult{
		Name:        meta.Name,
		Description: meta.Description,
		Bio:         meta.Description,
		LogoURL:     meta.LogoURL,
	})
}

// SyncPrimeCategory makes sure the service is listed under a category
// named after its prime tag (POST /admin/services/:id/prime-category/).
func (h *Handler) SyncPrimeCategory(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return err
	}

	cat, err := h.catalog.SyncPrimeTagCategory(c.Request().Context(), id)
	if err != nil {
		return err
	}

	result := PrimeCategoryResult{Service: id}
	if cat != nil {
		dto := h.projector.Category(cat)
		result.Category = &dto
		h.flush(c.Request().Context())
	}
	return c.JSON(http.StatusOK, result)
}

// DeleteService removes a service and its dependent rows
// (DELETE /admin/services/:id/).
func (h *Handler) DeleteService(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteService(c.Request().Context(), id); err != nil {
		return err
	}
	h.flush(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// DeleteTag removes a tag; services that used it as prime tag keep a null
// prime tag (DELETE /admin/tags/:id/).
func (h *Handler) DeleteTag(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteTag(c.Request().Context(), id); err != nil {
		return err
	}
	h.flush(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

// ClearCache drops every cached page (GET /clear/).
func (h *Handler) ClearCache(c echo.Context) error {
	n, err := h.cache.Flush(c.Request().Context())
	if err != nil {
		return apperror.NewInternal(err)
	}
	h.metrics.RecordCacheFlush()
	slog.Info("cache cleared", slog.Int("entries", n), slog.String("remote_ip", c.RealIP()))
	return c.String(http.StatusOK, "Cache cleared")
}

// flush clears cached lists after a write. Failures are logged only; the
// entries expire on their own.
func (h *Handler) flush(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if _, err := h.cache.Flush(ctx); err != nil {
		slog.Warn("cache flush after admin write failed", slog.Any("error", err))
		return
	}
	h.metrics.RecordCacheFlush()
}
