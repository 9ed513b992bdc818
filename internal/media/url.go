// Package media turns stored image paths into public URLs. Files are
// uploaded and served outside this service; rows only hold the path
// relative to the media root (e.g. "images/logo.png").
package media

import "strings"

// Resolver prefixes stored paths with the configured media URL.
type Resolver struct {
	baseURL string
}

// NewResolver creates a resolver for the given MEDIA_URL. A trailing slash
// is added when missing.
func NewResolver(baseURL string) Resolver {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return Resolver{baseURL: baseURL}
}

// URL returns the public URL for a stored path, or nil when no file is set.
// Paths that are already absolute URLs are returned unchanged.
func (r Resolver) URL(path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	p := *path
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return &p
	}
	u := r.baseURL + strings.TrimPrefix(p, "/")
	return &u
}
