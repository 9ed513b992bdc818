// Package subscriptions stores newsletter sign-ups. The only public
// operation is creating one; listing and removal happen outside the API.
package subscriptions

import "time"

// Subscription is one email address signed up for updates. Duplicate
// addresses are accepted.
type Subscription struct {
	ID        int       `json:"id"`
	Mail      string    `json:"mail"`
	CreatedAt time.Time `json:"-"`
}

// CreateInput is the request body for POST /users/email/. Both JSON and
// form-encoded bodies bind to it.
type CreateInput struct {
	Mail string `json:"mail" form:"mail"`
}

// maxMailLength matches the column width.
const maxMailLength = 254
