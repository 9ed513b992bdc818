package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/apperror"
)

// readOnlyAllow is the Allow header sent for read-only resources.
const readOnlyAllow = "GET, HEAD, OPTIONS"

var (
	readMethods = []string{http.MethodGet, http.MethodHead}

	// mutatingMethods are answered with 405 on read-only resources.
	mutatingMethods = []string{
		http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
	}
)

// ReadOnly registers h for GET and HEAD on path and answers every mutating
// method with a JSON 405 carrying an Allow header. Echo does not route HEAD
// to GET handlers on its own.
func ReadOnly(g *echo.Group, path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	g.Match(readMethods, path, h, m...)
	g.Match(mutatingMethods, path, MethodNotAllowed(readOnlyAllow))
}

// MethodNotAllowed returns a handler that rejects the request with 405.
func MethodNotAllowed(allow string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderAllow, allow)
		return apperror.NewMethodNotAllowed(c.Request().Method)
	}
}

// RequestURL returns the absolute URL of the current request, honoring the
// scheme reported by trusted proxies.
func RequestURL(c echo.Context) *url.URL {
	req := c.Request()
	u := *req.URL
	u.Scheme = c.Scheme()
	u.Host = req.Host
	return &u
}

// IDParam parses a positive integer path parameter. Anything else is a 404,
// since no resource can have that id.
func IDParam(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, apperror.NewNotFound("Not found.")
	}
	return id, nil
}
