package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const homepage = `<html><head>
<title>  Acme VPN  </title>
<meta name="description" content=" Fast private networking. ">
<link rel="stylesheet" href="/style.css">
<link rel="shortcut icon" href="/favicon.ico">
<link rel="icon" href="/other.png">
</head><body></body></html>`

func TestFetchMetadata(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", "https://acme.io/products/vpn",
		httpmock.NewStringResponder(http.StatusOK, homepage))

	c := NewClient(5*time.Second, "test-agent")
	meta, err := c.FetchMetadata(context.Background(), "https://acme.io/products/vpn")
	require.NoError(t, err)

	assert.Equal(t, "Acme VPN", meta.Name)
	assert.Equal(t, "Fast private networking.", meta.Description)
	assert.Equal(t, "https://acme.io/favicon.ico", meta.LogoURL)
}

func TestFetchMetadata_SendsUserAgent(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", "https://acme.io",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "test-agent", req.Header.Get("User-Agent"))
			return httpmock.NewStringResponse(http.StatusOK, "<html></html>"), nil
		})

	c := NewClient(5*time.Second, "test-agent")
	meta, err := c.FetchMetadata(context.Background(), "https://acme.io")
	require.NoError(t, err)
	assert.Empty(t, meta.Name)
	assert.Empty(t, meta.LogoURL)
}

func TestFetchMetadata_TransportError(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", "https://down.example",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	c := NewClient(5*time.Second, "")
	_, err := c.FetchMetadata(context.Background(), "https://down.example")
	assert.Error(t, err)
}

func TestParseMetadata_IconForms(t *testing.T) {
	base, _ := url.Parse("https://acme.io/a/b")
	tests := []struct {
		name string
		href string
		want string
	}{
		{"protocol_relative", "//cdn.acme.io/i.png", "https://cdn.acme.io/i.png"},
		{"root_relative", "/i.png", "https://acme.io/i.png"},
		{"absolute", "https://img.example/i.png", "https://img.example/i.png"},
		{"relative_kept", "img/i.png", "img/i.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, `<html><head><link rel="apple-touch-icon" href="`+tt.href+`"></head></html>`)
			assert.Equal(t, tt.want, ParseMetadata(doc, base).LogoURL)
		})
	}
}

func TestReviewPageURL(t *testing.T) {
	assert.Equal(t, "https://www.trustpilot.com/review/acme.io", ReviewPageURL("", "https://acme.io"))
	assert.Equal(t, "https://www.trustpilot.com/review/acme.io", ReviewPageURL("", "http://acme.io"))
	assert.Equal(t, "http://mock/review/acme.io/x", ReviewPageURL("http://mock/review", "acme.io/x"))
}

func article(user, title, text, stars string) string {
	return `<article>
<a name="consumer-profile"><span>` + user + `</span></a>
<section><img src="https://cdn.trustpilot.net/brand-assets/4.1.0/stars/stars-` + stars + `.svg"></section>
<h2 data-service-review-title-typography="true">` + title + `</h2>
<p data-service-review-text-typography="true">` + text + `</p>
</article>`
}

func TestParseReviewPage(t *testing.T) {
	html := `<html><body>
<p data-rating-typography="true"> 4.3 </p>` +
		article("Jo", "Great", "Works well", "5") +
		`<article><h2 data-service-review-title-typography="true">No user</h2></article>` +
		article("Sam", "Meh", "Slow", "2.5") +
		`</body></html>`

	page, err := ParseReviewPage(mustDoc(t, html))
	require.NoError(t, err)

	assert.InDelta(t, 4.3, page.Score, 1e-9)
	require.Len(t, page.Reviews, 2)
	assert.Equal(t, ScrapedReview{Username: "Jo", Title: "Great", Text: "Works well", Score: 5}, page.Reviews[0])
	assert.InDelta(t, 2.5, page.Reviews[1].Score, 1e-9)

	require.Len(t, page.Skipped, 1)
	assert.Equal(t, 1, page.Skipped[0].Index)
	assert.Contains(t, page.Skipped[0].Reason, "username")
}

func TestParseReviewPage_MissingScore(t *testing.T) {
	_, err := ParseReviewPage(mustDoc(t, `<html><body><p data-rating-typography>n/a</p></body></html>`))

	var missing *ErrScoreMissing
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "n/a", missing.Raw)
}

func TestParseReviewPage_BadStarImage(t *testing.T) {
	html := `<p data-rating-typography>3</p>` + article("Jo", "T", "X", "five")
	page, err := ParseReviewPage(mustDoc(t, html))
	require.NoError(t, err)
	assert.Empty(t, page.Reviews)
	require.Len(t, page.Skipped, 1)
	assert.Contains(t, page.Skipped[0].Reason, "star image")
}

func TestParseReviewPage_NonFiniteScores(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-inf"} {
		_, err := ParseReviewPage(mustDoc(t, `<p data-rating-typography>`+raw+`</p>`))
		var missing *ErrScoreMissing
		assert.ErrorAs(t, err, &missing, "overall score %q", raw)
	}

	page, err := ParseReviewPage(mustDoc(t, `<p data-rating-typography>4</p>`+article("Jo", "T", "X", "NaN")))
	require.NoError(t, err)
	assert.Empty(t, page.Reviews)
	assert.Len(t, page.Skipped, 1)
}
