package catalog

import (
	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/middleware"
)

// RegisterRoutes mounts the catalog API under api (normally /api/v1).
// List endpoints are wrapped in listCache; single-resource lookups are not
// cached.
func RegisterRoutes(api *echo.Group, h *Handler, listCache echo.MiddlewareFunc) {
	g := api.Group("/catalog")

	middleware.ReadOnly(g, "/services", h.ListServices, listCache)
	middleware.ReadOnly(g, "/services/:id", h.GetService)

	middleware.ReadOnly(g, "/tags", h.ListTags, listCache)
	middleware.ReadOnly(g, "/tags/:id", h.GetTag)

	middleware.ReadOnly(g, "/categories", h.ListCategories, listCache)
	middleware.ReadOnly(g, "/categories/:id", h.GetCategory)

	middleware.ReadOnly(g, "/reviews", h.ListReviews, listCache)
	middleware.ReadOnly(g, "/reviews/:id", h.GetReview)
}
