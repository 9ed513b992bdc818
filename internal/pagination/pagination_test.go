package pagination

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/hainu/catalog/internal/apperror"
)

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parsing %q: %v", raw, err)
	}
	return u
}

func TestParseParams_Defaults(t *testing.T) {
	p := ParseParams(url.Values{})
	if p.Page != "1" {
		t.Errorf("expected page 1, got %q", p.Page)
	}
	if p.PageSize != DefaultPageSize {
		t.Errorf("expected page size %d, got %d", DefaultPageSize, p.PageSize)
	}
}

func TestParseParams_PageSize(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"10", 10},
		{"-1", AllPageSize},
		{"abc", DefaultPageSize},
		{"0", DefaultPageSize},
		{"-5", DefaultPageSize},
		{"", DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p := ParseParams(url.Values{PageSizeParam: {tt.raw}})
			if p.PageSize != tt.want {
				t.Errorf("page_size=%q: expected %d, got %d", tt.raw, tt.want, p.PageSize)
			}
		})
	}
}

func TestResolve_FirstPage(t *testing.T) {
	page, err := Resolve(Params{Page: "1", PageSize: 25}, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NumPages != 3 {
		t.Errorf("expected 3 pages, got %d", page.NumPages)
	}
	if page.Offset() != 0 || page.Limit() != 25 {
		t.Errorf("expected offset 0 limit 25, got %d/%d", page.Offset(), page.Limit())
	}
}

func TestResolve_AllEscape(t *testing.T) {
	page, err := Resolve(Params{Page: "1", PageSize: AllPageSize}, 137)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.PerPage != 137 {
		t.Errorf("expected per_page 137, got %d", page.PerPage)
	}
	if page.NumPages != 1 {
		t.Errorf("expected a single page, got %d", page.NumPages)
	}
	if page.Count != 137 {
		t.Errorf("expected count 137, got %d", page.Count)
	}
}

func TestResolve_AllEscapeEmptySet(t *testing.T) {
	page, err := Resolve(Params{Page: "1", PageSize: AllPageSize}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.PerPage != 1 {
		t.Errorf("expected per_page 1 for empty set, got %d", page.PerPage)
	}
	if page.NumPages != 1 || page.Count != 0 {
		t.Errorf("expected 1 page and count 0, got %d/%d", page.NumPages, page.Count)
	}
}

func TestResolve_LastAlias(t *testing.T) {
	page, err := Resolve(Params{Page: LastPageAlias, PageSize: 10}, 31)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Number != 4 {
		t.Errorf("expected last page 4, got %d", page.Number)
	}
	if page.Offset() != 30 {
		t.Errorf("expected offset 30, got %d", page.Offset())
	}
}

func TestResolve_InvalidPages(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		reason string
	}{
		{"beyond_last", "5", "That page contains no results"},
		{"not_integer", "abc", "That page number is not an integer"},
		{"zero", "0", "That page number is less than 1"},
		{"negative", "-2", "That page number is less than 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(Params{Page: tt.page, PageSize: 10}, 20)
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
			}
			if appErr.Code != http.StatusNotFound {
				t.Errorf("expected 404, got %d", appErr.Code)
			}
			if !strings.Contains(appErr.Message, `"`+tt.page+`"`) {
				t.Errorf("expected message to name page %q, got %q", tt.page, appErr.Message)
			}
			if !strings.Contains(appErr.Message, tt.reason) {
				t.Errorf("expected reason %q, got %q", tt.reason, appErr.Message)
			}
		})
	}
}

func TestResolve_EmptySetFirstPage(t *testing.T) {
	page, err := Resolve(Params{Page: "1", PageSize: 25}, 0)
	if err != nil {
		t.Fatalf("page 1 of an empty set should be valid: %v", err)
	}
	if page.Number != 1 || page.NumPages != 1 {
		t.Errorf("expected page 1 of 1, got %d of %d", page.Number, page.NumPages)
	}
}

func TestNewResponse_Links(t *testing.T) {
	u := mustParseURL(t, "http://example.com/api/v1/catalog/services?name=x&page=2&page_size=10")
	page, err := Resolve(Params{Page: "2", PageSize: 10}, 35)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp := NewResponse(u, page, []int{1, 2})
	if resp.Links.Next == nil || !strings.Contains(*resp.Links.Next, "page=3") {
		t.Errorf("expected next link to page 3, got %v", resp.Links.Next)
	}
	if resp.Links.Previous == nil {
		t.Fatal("expected previous link")
	}
	if strings.Contains(*resp.Links.Previous, "page=1") {
		t.Errorf("previous link to page 1 should drop the page param, got %q", *resp.Links.Previous)
	}
	if !strings.Contains(*resp.Links.Previous, "name=x") {
		t.Errorf("expected filters to be preserved, got %q", *resp.Links.Previous)
	}
	if resp.TotalPages != 4 || resp.Count != 35 || resp.PerPage != 10 || resp.Page != 2 {
		t.Errorf("unexpected metadata: %+v", resp)
	}
}

func TestNewResponse_SinglePageHasNoLinks(t *testing.T) {
	u := mustParseURL(t, "http://example.com/api/v1/catalog/tags")
	page, _ := Resolve(Params{Page: "1", PageSize: 25}, 3)

	resp := NewResponse[string](u, page, nil)
	if resp.Links.Next != nil || resp.Links.Previous != nil {
		t.Errorf("expected no links, got %+v", resp.Links)
	}
	if resp.Results == nil {
		t.Error("results must encode as [] not null")
	}
}
