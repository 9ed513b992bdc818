package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of origins permitted to make cross-origin
	// requests. ["*"] allows every origin; the API is public and cookieless.
	// Example: ["https://hainu.example", "http://localhost:3000"]
	AllowedOrigins []string
}

var (
	corsAllowMethods = strings.Join([]string{
		http.MethodGet,
		http.MethodHead,
		http.MethodPost,
		http.MethodDelete,
		http.MethodOptions,
	}, ", ")

	corsAllowHeaders = strings.Join([]string{
		"Content-Type",
		"Authorization",
		"X-Requested-With",
	}, ", ")

	corsExposeHeaders = strings.Join([]string{
		"X-Cache",
		"Allow",
	}, ", ")
)

// CORS returns middleware that handles Cross-Origin Resource Sharing headers
// for the frontends, which are served from other origins. Credentials are
// never allowed.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get("Origin")

			// No Origin header means same-origin or non-browser client.
			if origin == "" {
				return next(c)
			}

			res.Header().Add("Vary", "Origin")
			if !allowAll && !originSet[origin] {
				// The browser blocks the response on its side.
				return next(c)
			}

			if allowAll {
				res.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				res.Header().Set("Access-Control-Allow-Origin", origin)
			}

			// Preflight.
			if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
				res.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
				res.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
				res.Header().Set("Access-Control-Max-Age", "3600")
				return c.NoContent(http.StatusNoContent)
			}

			res.Header().Set("Access-Control-Expose-Headers", corsExposeHeaders)
			return next(c)
		}
	}
}
