// Package sanitize provides HTML sanitization for editor-authored content.
// Uses bluemonday to strip dangerous HTML (script tags, event handlers,
// javascript: URLs) while preserving safe formatting.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for rich text.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once

	textPolicy     *bluemonday.Policy
	textPolicyOnce sync.Once
)

// getPolicy returns the shared rich text policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// Rich text editors emit classes for alignment and code blocks.
		policy.AllowAttrs("class").Globally()
		policy.AllowAttrs("style").OnElements("span", "p", "div", "td", "th")

		policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "colgroup", "col", "caption")
		policy.AllowAttrs("colspan", "rowspan").OnElements("td", "th")

		// Embedded images in posts may be lazy-loaded.
		policy.AllowAttrs("loading").Matching(bluemonday.SpaceSeparatedTokens).OnElements("img")
	})
	return policy
}

// HTML sanitizes rich text by stripping dangerous elements while keeping
// safe formatting tags. Blog post bodies pass through here before they are
// rendered to clients.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	return getPolicy().Sanitize(input)
}

// Text strips every tag and returns the remaining text with whitespace
// collapsed. Used for plain-text excerpts.
func Text(input string) string {
	if input == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.Join(strings.Fields(textPolicy.Sanitize(input)), " ")
}
