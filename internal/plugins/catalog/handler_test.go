package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hainu/catalog/internal/apperror"
	"github.com/hainu/catalog/internal/pagination"
)

func newTestContext(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_ListServices_Envelope(t *testing.T) {
	svc, m := newTestService()
	m.services.countFn = func(_ context.Context, f ServiceFilter) (int, error) {
		if f.Name != "acme" {
			t.Errorf("expected name filter to reach the repository, got %q", f.Name)
		}
		return 3, nil
	}
	m.services.listFn = func(_ context.Context, _ ServiceFilter, _, _ int) ([]Service, error) {
		return []Service{{ID: 2, Name: "Acme"}}, nil
	}

	h := NewHandler(svc, NewProjector("/media/"))
	e := echo.New()
	c, rec := newTestContext(e, "/api/v1/catalog/services?name=acme&page=2&page_size=1")

	if err := h.ListServices(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body pagination.Response[map[string]any]
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Count != 3 || body.TotalPages != 3 || body.Page != 2 || body.PerPage != 1 {
		t.Errorf("unexpected envelope: %+v", body)
	}
	if body.Links.Next == nil || body.Links.Previous == nil {
		t.Errorf("expected both links on a middle page, got %+v", body.Links)
	}
	if len(body.Results) != 1 || body.Results[0]["name"] != "Acme" {
		t.Errorf("unexpected results: %v", body.Results)
	}
}

func TestHandler_ListServices_BadFilter(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, NewProjector("/media/"))
	c, _ := newTestContext(echo.New(), "/api/v1/catalog/services?tags=abc")

	assertAppError(t, h.ListServices(c), http.StatusBadRequest)
}

func TestHandler_GetService_InvalidID(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, NewProjector("/media/"))
	c, _ := newTestContext(echo.New(), "/api/v1/catalog/services/abc")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	assertAppError(t, h.GetService(c), http.StatusNotFound)
}

func TestHandler_ListTags_EmptyResultsAreArray(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, NewProjector("/media/"))
	c, rec := newTestContext(echo.New(), "/api/v1/catalog/tags")

	if err := h.ListTags(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if _, ok := body["results"].([]any); !ok {
		t.Errorf("expected results to be [], got %v", body["results"])
	}
	if body["count"].(float64) != 0 {
		t.Errorf("expected count 0, got %v", body["count"])
	}
}

func TestRoutes_MutatingMethodIs405(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, NewProjector("/media/"))

	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.NoContent(apperror.SafeCode(err))
	}
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	RegisterRoutes(e.Group("/api/v1"), h, passthrough)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/services", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderAllow) == "" {
		t.Error("expected Allow header")
	}
}
