package subscriptions

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/apperror"
)

// Handler serves the sign-up endpoint.
type Handler struct {
	service SubscriptionService
}

// NewHandler creates a new subscription handler.
func NewHandler(service SubscriptionService) *Handler {
	return &Handler{service: service}
}

// Create stores a new subscription (POST /api/v1/users/email/).
func (h *Handler) Create(c echo.Context) error {
	var input CreateInput
	if err := c.Bind(&input); err != nil {
		return apperror.NewBadRequest("Malformed request body.")
	}

	sub, err := h.service.Subscribe(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sub)
}
