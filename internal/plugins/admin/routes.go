package admin

import (
	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/config"
)

// RegisterRoutes sets up the admin group and the cache clear route on e.
// /clear/ shares the admin credentials unless clearPublic is set.
func RegisterRoutes(e *echo.Echo, h *Handler, cfg config.AdminConfig, clearPublic bool) *echo.Group {
	requireAdmin := RequireAdmin(cfg)

	admin := e.Group("/admin", requireAdmin)
	admin.POST("/services/scrape", h.Scrape)
	admin.POST("/services/:id/prime-category", h.SyncPrimeCategory)
	admin.DELETE("/services/:id", h.DeleteService)
	admin.DELETE("/tags/:id", h.DeleteTag)

	if clearPublic {
		e.GET("/clear", h.ClearCache)
	} else {
		e.GET("/clear", h.ClearCache, requireAdmin)
	}

	return admin
}
