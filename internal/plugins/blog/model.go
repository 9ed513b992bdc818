// Package blog serves editorial posts, optionally linked to a catalog
// service. Posts are authored elsewhere; the API only reads them.
package blog

import "time"

// Post is a blog article. Text holds editor HTML as stored; it is
// sanitized when rendered.
type Post struct {
	ID        int
	ServiceID *int
	Title     string
	Text      string
	Image     *string
	ImageURL  *string
	CreatedAt time.Time
}

// PostDTO is the wire shape of a post.
type PostDTO struct {
	ID        int       `json:"id"`
	Service   *int      `json:"service"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Excerpt   string    `json:"excerpt"`
	Image     *string   `json:"image"`
	ImageURL  *string   `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// excerptLength is the maximum excerpt size in runes.
const excerptLength = 200
