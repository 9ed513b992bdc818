// Package pagination slices ordered result sets into numbered pages and
// renders the list envelope shared by every collection endpoint:
//
//	{"links": {"next": ..., "previous": ...}, "count": N, "total_pages": P,
//	 "per_page": S, "page": K, "results": [...]}
//
// Page size comes from the page_size query parameter (default 25). A page
// size of -1 returns every row as a single page. The page parameter accepts
// a positive integer or the alias "last".
package pagination

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/hainu/catalog/internal/apperror"
)

const (
	// DefaultPageSize is used when page_size is absent or invalid.
	DefaultPageSize = 25

	// AllPageSize requests every matching row on one page.
	AllPageSize = -1

	// LastPageAlias resolves to the final page.
	LastPageAlias = "last"

	// PageParam and PageSizeParam are the query parameter names.
	PageParam     = "page"
	PageSizeParam = "page_size"
)

// Params holds the raw pagination input from a request. Page is kept as a
// string so invalid input can be echoed back in the error message.
type Params struct {
	Page     string
	PageSize int
}

// ParseParams reads page and page_size from query values. A missing or
// non-integer page_size yields DefaultPageSize, as does zero or any negative
// value other than AllPageSize.
func ParseParams(q url.Values) Params {
	p := Params{Page: q.Get(PageParam), PageSize: DefaultPageSize}
	if p.Page == "" {
		p.Page = "1"
	}

	if raw := q.Get(PageSizeParam); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && (n > 0 || n == AllPageSize) {
			p.PageSize = n
		}
	}
	return p
}

// Page describes one resolved page of a result set.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// PerPage is the effective page size (never less than 1).
	PerPage int

	// Count is the total number of rows across all pages.
	Count int

	// NumPages is the total number of pages (at least 1).
	NumPages int
}

// Offset returns the SQL OFFSET for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit returns the SQL LIMIT for this page.
func (p Page) Limit() int {
	return p.PerPage
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

// HasPrevious reports whether an earlier page exists.
func (p Page) HasPrevious() bool {
	return p.Number > 1
}

// Resolve validates params against the total row count and returns the page
// to fetch. Invalid page numbers produce a 404 AppError naming the page.
func Resolve(params Params, count int) (Page, error) {
	perPage := params.PageSize
	if perPage == AllPageSize {
		perPage = count
	}
	if perPage < 1 {
		perPage = 1
	}

	numPages := 1
	if count > 0 {
		numPages = (count + perPage - 1) / perPage
	}

	page := Page{PerPage: perPage, Count: count, NumPages: numPages}

	if params.Page == LastPageAlias {
		page.Number = numPages
		return page, nil
	}

	number, err := strconv.Atoi(params.Page)
	if err != nil {
		return Page{}, invalidPage(params.Page, "That page number is not an integer")
	}
	if number < 1 {
		return Page{}, invalidPage(params.Page, "That page number is less than 1")
	}
	if number > numPages {
		return Page{}, invalidPage(params.Page, "That page contains no results")
	}

	page.Number = number
	return page, nil
}

func invalidPage(page, reason string) error {
	return apperror.NewNotFound(fmt.Sprintf("Invalid page %q: %s.", page, reason))
}

// Links holds absolute URLs to the adjacent pages, or nil at either end.
type Links struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// Response is the JSON envelope for a page of results.
type Response[T any] struct {
	Links      Links `json:"links"`
	Count      int   `json:"count"`
	TotalPages int   `json:"total_pages"`
	PerPage    int   `json:"per_page"`
	Page       int   `json:"page"`
	Results    []T   `json:"results"`
}

// NewResponse builds the envelope for page, deriving next/previous links
// from the absolute request URL. Results are never encoded as null.
func NewResponse[T any](requestURL *url.URL, page Page, results []T) Response[T] {
	if results == nil {
		results = []T{}
	}

	var links Links
	if page.HasNext() {
		next := withPage(requestURL, page.Number+1)
		links.Next = &next
	}
	if page.HasPrevious() {
		prev := withPage(requestURL, page.Number-1)
		links.Previous = &prev
	}

	return Response[T]{
		Links:      links,
		Count:      page.Count,
		TotalPages: page.NumPages,
		PerPage:    page.PerPage,
		Page:       page.Number,
		Results:    results,
	}
}

// withPage returns u with the page parameter replaced. Page 1 drops the
// parameter entirely so the first page has a canonical URL.
func withPage(u *url.URL, number int) string {
	clone := *u
	q := clone.Query()
	if number <= 1 {
		q.Del(PageParam)
	} else {
		q.Set(PageParam, strconv.Itoa(number))
	}
	clone.RawQuery = q.Encode()
	return clone.String()
}
