package scraper

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTrustpilotBaseURL is where Trustpilot review pages live.
const DefaultTrustpilotBaseURL = "https://www.trustpilot.com/review/"

// starImagePrefix and starImageSuffix wrap the numeric score in the src of
// a review's star image.
const (
	starImagePrefix = "https://cdn.trustpilot.net/brand-assets/4.1.0/stars/stars-"
	starImageSuffix = ".svg"
)

// ReviewPageURL derives the Trustpilot page for a service link by dropping
// its scheme: "https://acme.io" becomes base + "acme.io".
func ReviewPageURL(base, link string) string {
	if base == "" {
		base = DefaultTrustpilotBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	host := strings.TrimPrefix(strings.TrimPrefix(link, "https://"), "http://")
	return base + host
}

// ScrapedReview is one review parsed from a Trustpilot page.
type ScrapedReview struct {
	Username string
	Title    string
	Text     string
	Score    float64
}

// SkippedReview records an article that could not be parsed.
type SkippedReview struct {
	Index  int
	Reason string
}

// ReviewPage is everything extracted from one Trustpilot page.
type ReviewPage struct {
	Score   float64
	Reviews []ScrapedReview
	Skipped []SkippedReview
}

// ErrScoreMissing is returned when the page has no parsable overall score.
type ErrScoreMissing struct {
	Raw string
}

func (e *ErrScoreMissing) Error() string {
	if e.Raw == "" {
		return "trustpilot page has no overall score"
	}
	return fmt.Sprintf("trustpilot overall score %q is not a number", e.Raw)
}

// ParseReviewPage extracts the overall score and every review article. A
// missing or malformed overall score is an error; a malformed article is
// recorded in Skipped and parsing continues.
func ParseReviewPage(doc *goquery.Document) (*ReviewPage, error) {
	raw := strings.TrimSpace(doc.Find("p[data-rating-typography]").First().Text())
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(score) {
		return nil, &ErrScoreMissing{Raw: raw}
	}

	page := &ReviewPage{Score: score}
	doc.Find("article").Each(func(i int, s *goquery.Selection) {
		rv, err := parseReview(s)
		if err != nil {
			page.Skipped = append(page.Skipped, SkippedReview{Index: i, Reason: err.Error()})
			return
		}
		page.Reviews = append(page.Reviews, *rv)
	})
	return page, nil
}

func parseReview(s *goquery.Selection) (*ScrapedReview, error) {
	user := s.Find(`a[name="consumer-profile"] span`).First()
	if user.Length() == 0 {
		return nil, fmt.Errorf("missing username")
	}
	title := s.Find("h2[data-service-review-title-typography]").First()
	if title.Length() == 0 {
		return nil, fmt.Errorf("missing title")
	}
	text := s.Find("p[data-service-review-text-typography]").First()
	if text.Length() == 0 {
		return nil, fmt.Errorf("missing text")
	}

	src, ok := s.Find("section").First().Find("img").First().Attr("src")
	if !ok {
		return nil, fmt.Errorf("missing star image")
	}
	rawScore := strings.TrimSuffix(strings.TrimPrefix(src, starImagePrefix), starImageSuffix)
	score, err := strconv.ParseFloat(rawScore, 64)
	if err != nil || !finite(score) {
		return nil, fmt.Errorf("star image %q has no score", src)
	}

	return &ScrapedReview{
		Username: user.Text(),
		Title:    title.Text(),
		Text:     text.Text(),
		Score:    score,
	}, nil
}

// finite reports whether f is neither NaN nor an infinity, both of which
// ParseFloat accepts as text.
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
