package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/middleware"
	"github.com/hainu/catalog/internal/pagination"
)

// Handler serves the read-only catalog API. Handlers are thin: parse the
// query, call the service, project and render.
type Handler struct {
	service   CatalogService
	projector Projector
}

// NewHandler creates a new catalog handler.
func NewHandler(service CatalogService, projector Projector) *Handler {
	return &Handler{service: service, projector: projector}
}

// ListServices returns a page of services (GET /api/v1/catalog/services/).
func (h *Handler) ListServices(c echo.Context) error {
	f, err := ParseServiceFilter(c.QueryParams())
	if err != nil {
		return err
	}

	page, services, err := h.service.ListServices(c.Request().Context(), f, pagination.ParseParams(c.QueryParams()))
	if err != nil {
		return err
	}

	results := make([]any, 0, len(services))
	for i := range services {
		results = append(results, h.projector.Service(ActionList, &services[i]))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(middleware.RequestURL(c), page, results))
}

// GetService returns one service with mentions and features
// (GET /api/v1/catalog/services/:id/).
func (h *Handler) GetService(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return err
	}
	svc, err := h.service.GetService(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.projector.Service(ActionRetrieve, svc))
}

// ListTags returns a page of tags ordered by name.
func (h *Handler) ListTags(c echo.Context) error {
	f, err := ParseTagFilter(c.QueryParams())
	if err != nil {
		return err
	}

	page, tags, err := h.service.ListTags(c.Request().Context(), f, pagination.ParseParams(c.QueryParams()))
	if err != nil {
		return err
	}

	results := make([]TagCountDTO, 0, len(tags))
	for i := range tags {
		results = append(results, h.projector.TagCount(&tags[i]))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(middleware.RequestURL(c), page, results))
}

func (h *Handler) GetTag(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return err
	}
	tag, err := h.service.GetTag(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.projector.TagCount(tag))
}

// ListCategories returns a page of categories ordered by name.
func (h *Handler) ListCategories(c echo.Context) error {
	page, categories, err := h.service.ListCategories(c.Request().Context(), pagination.ParseParams(c.QueryParams()))
	if err != nil {
		return err
	}

	results := make([]CategoryCountDTO, 0, len(categories))
	for i := range categories {
		results = append(results, h.projector.CategoryCount(&categories[i]))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(middleware.RequestURL(c), page, results))
}

func (h *Handler) GetCategory(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.service.GetCategory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.projector.CategoryCount(cat))
}

// ListReviews returns a page of rating reviews, optionally narrowed to one
// service or rating.
func (h *Handler) ListReviews(c echo.Context) error {
	f, err := ParseReviewFilter(c.QueryParams())
	if err != nil {
		return err
	}

	page, reviews, err := h.service.ListReviews(c.Request().Context(), f, pagination.ParseParams(c.QueryParams()))
	if err != nil {
		return err
	}

	results := make([]ReviewDTO, 0, len(reviews))
	for i := range reviews {
		results = append(results, h.projector.Review(&reviews[i]))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(middleware.RequestURL(c), page, results))
}

func (h *Handler) GetReview(c echo.Context) error {
	id, err := middleware.IDParam(c, "id")
	if err != nil {
		return err
	}
	rv, err := h.service.GetReview(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.projector.Review(rv))
}
