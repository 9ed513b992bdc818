package blog

import (
	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/middleware"
)

// RegisterRoutes mounts the blog API under api (normally /api/v1). Posts
// are not cached so edits show up immediately.
func RegisterRoutes(api *echo.Group, h *Handler) {
	g := api.Group("/blog")
	middleware.ReadOnly(g, "/posts", h.ListPosts)
	middleware.ReadOnly(g, "/posts/:id", h.GetPost)
}
