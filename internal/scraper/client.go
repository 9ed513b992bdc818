// Package scraper fetches third-party HTML pages and extracts the few
// fields the catalog needs from them: page metadata for the admin scrape
// helper and ratings/reviews for the Trustpilot ingestion run.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Client performs outbound page fetches with a per-request timeout and a
// fixed User-Agent. Redirects are followed.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient creates a client. The default transport is used so tests can
// intercept requests.
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Page is a fetched and parsed HTML document.
type Page struct {
	// StatusCode is the final response status after redirects.
	StatusCode int

	// URL is the final URL after redirects.
	URL *url.URL

	Doc *goquery.Document
}

// Fetch GETs rawURL and parses the body as HTML regardless of status code;
// callers decide which statuses they accept.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer res.Body.Close()

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawURL, err)
	}

	final := req.URL
	if res.Request != nil && res.Request.URL != nil {
		final = res.Request.URL
	}
	return &Page{StatusCode: res.StatusCode, URL: final, Doc: doc}, nil
}
