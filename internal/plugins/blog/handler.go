package blog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/middleware"
	"github.com/hainu/catalog/internal/pagination"
)

// Handler serves blog posts.
type Handler struct {
	service PostService
}

// NewHandler creates a new blog handler.
func NewHandler(service PostService) *Handler {
	return &Handler{service: service}
}

// ListPosts returns a page of posts, newest first (GET /api/v1/blog/posts/).
func (h *Handler) ListPosts(c echo.Context) error {
	page, posts, err := h.service.List(c.Request().Context(), pagination.ParseParams(c.QueryParams()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(middleware.RequestURL(c), page, posts))
}

// GetPost returns one post (GET /api/v1/blog/posts/:id/).
func (h *Handler) GetPost(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return err
	}
	post, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}
