package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hainu/catalog/internal/apperror"
	"github.com/hainu/catalog/internal/config"
	"github.com/hainu/catalog/internal/plugins/catalog"
	"github.com/hainu/catalog/internal/scraper"
)

// --- Test doubles ---

// stubCatalog overrides the admin operations; any other method panics.
type stubCatalog struct {
	catalog.CatalogService
	syncFn          func(ctx context.Context, serviceID int) (*catalog.Category, error)
	deleteServiceFn func(ctx context.Context, id int) error
	deleteTagFn     func(ctx context.Context, id int) error
}

func (s *stubCatalog) SyncPrimeTagCategory(ctx context.Context, serviceID int) (*catalog.Category, error) {
	if s.syncFn != nil {
		return s.syncFn(ctx, serviceID)
	}
	return nil, nil
}

func (s *stubCatalog) DeleteService(ctx context.Context, id int) error {
	if s.deleteServiceFn != nil {
		return s.deleteServiceFn(ctx, id)
	}
	return nil
}

func (s *stubCatalog) DeleteTag(ctx context.Context, id int) error {
	if s.deleteTagFn != nil {
		return s.deleteTagFn(ctx, id)
	}
	return nil
}

type mockFetcher struct {
	fetchFn func(ctx context.Context, rawURL string) (*scraper.Metadata, error)
}

func (m *mockFetcher) FetchMetadata(ctx context.Context, rawURL string) (*scraper.Metadata, error) {
	return m.fetchFn(ctx, rawURL)
}

type mockFlusher struct {
	calls int
	err   error
}

func (m *mockFlusher) Flush(context.Context) (int, error) {
	m.calls++
	return 3, m.err
}

const (
	testUser     = "admin"
	testPassword = "s3cret"
)

func testAdminConfig(t *testing.T) config.AdminConfig {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return config.AdminConfig{User: testUser, PasswordHash: string(hash)}
}

type testEnv struct {
	e       *echo.Echo
	catalog *stubCatalog
	fetcher *mockFetcher
	cache   *mockFlusher
}

func newTestEnv(t *testing.T, clearPublic bool) *testEnv {
	t.Helper()
	env := &testEnv{
		e:       echo.New(),
		catalog: &stubCatalog{},
		fetcher: &mockFetcher{fetchFn: func(context.Context, string) (*scraper.Metadata, error) {
			return &scraper.Metadata{}, nil
		}},
		cache: &mockFlusher{},
	}
	env.e.HTTPErrorHandler = func(err error, c echo.Context) {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.NoContent(he.Code)
			return
		}
		_ = c.NoContent(apperror.SafeCode(err))
	}
	h := NewHandler(env.catalog, catalog.NewProjector("/media/"), env.fetcher, env.cache, nil)
	RegisterRoutes(env.e, h, testAdminConfig(t), clearPublic)
	return env
}

func (env *testEnv) do(req *http.Request, authed bool) *httptest.ResponseRecorder {
	if authed {
		req.SetBasicAuth(testUser, testPassword)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func scrapeRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/admin/services/scrape", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// --- Auth ---

func TestCheckCredentials(t *testing.T) {
	cfg := testAdminConfig(t)
	assert.True(t, CheckCredentials(cfg, testUser, testPassword))
	assert.False(t, CheckCredentials(cfg, testUser, "wrong"))
	assert.False(t, CheckCredentials(cfg, "root", testPassword))
	assert.False(t, CheckCredentials(config.AdminConfig{User: testUser}, testUser, ""))
}

func TestRoutes_RequireAuth(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/admin/tags/1", nil), false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderWWWAuthenticate), "Basic")

	req := httptest.NewRequest(http.MethodDelete, "/admin/tags/1", nil)
	req.SetBasicAuth(testUser, "wrong")
	assert.Equal(t, http.StatusUnauthorized, env.do(req, false).Code)
}

// --- Scrape ---

func TestScrape_NoURL(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(scrapeRequest(url.Values{}), true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No URL provided"}`, rec.Body.String())
}

func TestScrape_Success(t *testing.T) {
	env := newTestEnv(t, false)
	env.fetcher.fetchFn = func(_ context.Context, rawURL string) (*scraper.Metadata, error) {
		assert.Equal(t, "https://acme.example", rawURL)
		return &scraper.Metadata{Name: "Acme", Description: "Rockets", LogoURL: "https://acme.example/favicon.ico"}, nil
	}

	rec := env.do(scrapeRequest(url.Values{"scrape_url": {" https://acme.example "}}), true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"name":"Acme","description":"Rockets","bio":"Rockets","logo_url":"https://acme.example/favicon.ico"}`,
		rec.Body.String())
}

func TestScrape_JSONBody(t *testing.T) {
	env := newTestEnv(t, false)
	req := httptest.NewRequest(http.MethodPost, "/admin/services/scrape", strings.NewReader(`{"scrape_url":"https://acme.example"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	assert.Equal(t, http.StatusOK, env.do(req, true).Code)
}

func TestScrape_FetchFailure(t *testing.T) {
	env := newTestEnv(t, false)
	env.fetcher.fetchFn = func(context.Context, string) (*scraper.Metadata, error) {
		return nil, errors.New("dial tcp: no such host")
	}

	rec := env.do(scrapeRequest(url.Values{"scrape_url": {"https://nowhere.invalid"}}), true)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"dial tcp: no such host"}`, rec.Body.String())
}

// --- Catalog writes ---

func TestSyncPrimeCategory(t *testing.T) {
	env := newTestEnv(t, false)
	env.catalog.syncFn = func(_ context.Context, serviceID int) (*catalog.Category, error) {
		assert.Equal(t, 5, serviceID)
		return &catalog.Category{ID: 9, Name: "VPN"}, nil
	}

	rec := env.do(httptest.NewRequest(http.MethodPost, "/admin/services/5/prime-category", nil), true)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(5), body["service"])
	category, ok := body["category"].(map[string]any)
	require.True(t, ok, "expected category object, got %v", body["category"])
	assert.Equal(t, "VPN", category["name"])
	assert.Equal(t, 1, env.cache.calls)
}

func TestSyncPrimeCategory_NoPrimeTag(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/admin/services/5/prime-category", nil), true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"service":5,"category":null}`, rec.Body.String())
	assert.Equal(t, 0, env.cache.calls)
}

func TestDeleteService(t *testing.T) {
	env := newTestEnv(t, false)
	var deleted int
	env.catalog.deleteServiceFn = func(_ context.Context, id int) error {
		deleted = id
		return nil
	}

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/admin/services/12", nil), true)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 12, deleted)
	assert.Equal(t, 1, env.cache.calls)
}

func TestDeleteTag_NotFound(t *testing.T) {
	env := newTestEnv(t, false)
	env.catalog.deleteTagFn = func(context.Context, int) error {
		return apperror.NewNotFound("tag not found")
	}

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/admin/tags/12", nil), true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, env.cache.calls)
}

func TestDeleteService_FlushFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t, false)
	env.cache.err = errors.New("redis down")

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/admin/services/1", nil), true)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// --- Cache clear ---

func TestClearCache_Guarded(t *testing.T) {
	env := newTestEnv(t, false)

	assert.Equal(t, http.StatusUnauthorized, env.do(httptest.NewRequest(http.MethodGet, "/clear", nil), false).Code)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/clear", nil), true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cache cleared", rec.Body.String())
	assert.Equal(t, 1, env.cache.calls)
}

func TestClearCache_Public(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/clear", nil), false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClearCache_StoreError(t *testing.T) {
	env := newTestEnv(t, true)
	env.cache.err = errors.New("redis down")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/clear", nil), false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
