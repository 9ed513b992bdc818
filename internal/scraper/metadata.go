package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Metadata is the best-effort summary of a company or product homepage.
// Empty fields mean nothing usable was found.
type Metadata struct {
	Name        string
	Description string
	LogoURL     string
}

// FetchMetadata fetches rawURL and extracts its title, meta description
// and favicon.
func (c *Client) FetchMetadata(ctx context.Context, rawURL string) (*Metadata, error) {
	page, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	return ParseMetadata(page.Doc, base), nil
}

// ParseMetadata reads the page title, the description meta tag and the
// first link whose rel mentions "icon". Protocol-relative icon URLs get
// https, root-relative ones are resolved against base; anything else is
// returned as written.
func ParseMetadata(doc *goquery.Document, base *url.URL) *Metadata {
	m := &Metadata{
		Name: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		m.Description = strings.TrimSpace(content)
	}

	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		if !hasIconRel(rel) {
			return true
		}
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return true
		}
		m.LogoURL = resolveIcon(href, base)
		return false
	})

	return m
}

// hasIconRel matches rel tokens such as "icon", "shortcut icon" and
// "apple-touch-icon".
func hasIconRel(rel string) bool {
	for _, token := range strings.Fields(rel) {
		if strings.Contains(strings.ToLower(token), "icon") {
			return true
		}
	}
	return false
}

func resolveIcon(href string, base *url.URL) string {
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/") && base != nil:
		ref, err := url.Parse(href)
		if err != nil {
			return href
		}
		return base.ResolveReference(ref).String()
	default:
		return href
	}
}
