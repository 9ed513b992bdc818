package cache

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/metrics"
)

// HeaderXCache reports whether a response came from the cache.
const HeaderXCache = "X-Cache"

// entry is what gets stored per cached response.
type entry struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Middleware caches successful GET and HEAD responses for ttl. The key is
// the method plus the request URI exactly as sent, so every distinct filter
// and page combination is cached separately. Store failures are logged and
// the request is served uncached.
func Middleware(store Store, ttl time.Duration, m *metrics.Metrics) echo.MiddlewareFunc {
	maxAge := "max-age=" + strconv.Itoa(int(ttl.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet && req.Method != http.MethodHead {
				return next(c)
			}

			ctx := req.Context()
			key := req.Method + " " + req.RequestURI

			raw, found, err := store.Get(ctx, key)
			if err != nil {
				slog.Warn("cache lookup failed", slog.String("key", key), slog.Any("error", err))
				m.RecordCacheLookup(metrics.CacheError)
				return next(c)
			}
			if found {
				var e entry
				if err := json.Unmarshal(raw, &e); err == nil {
					m.RecordCacheLookup(metrics.CacheHit)
					res := c.Response()
					res.Header().Set(HeaderXCache, "HIT")
					res.Header().Set(echo.HeaderCacheControl, maxAge)
					return c.Blob(http.StatusOK, e.ContentType, e.Body)
				}
				slog.Warn("discarding corrupt cache entry", slog.String("key", key))
			}
			m.RecordCacheLookup(metrics.CacheMiss)

			res := c.Response()
			res.Header().Set(HeaderXCache, "MISS")
			res.Before(func() {
				if res.Status == http.StatusOK {
					res.Header().Set(echo.HeaderCacheControl, maxAge)
				}
			})

			rec := &recorder{ResponseWriter: res.Writer}
			res.Writer = rec
			if err := next(c); err != nil {
				return err
			}

			if res.Status != http.StatusOK || rec.body.Len() == 0 {
				return nil
			}
			stored, err := json.Marshal(entry{
				ContentType: res.Header().Get(echo.HeaderContentType),
				Body:        rec.body.Bytes(),
			})
			if err != nil {
				return nil
			}
			if err := store.Set(ctx, key, stored, ttl); err != nil {
				slog.Warn("cache store failed", slog.String("key", key), slog.Any("error", err))
			}
			return nil
		}
	}
}

// recorder tees the response body so it can be cached after the handler
// has written it.
type recorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
