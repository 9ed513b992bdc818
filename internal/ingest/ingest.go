// Package ingest refreshes third-party ratings. A run walks every service,
// fetches its Trustpilot page, and replaces the stored rating score and
// reviews with what the page shows.
//
// Services are processed one at a time. A missing Trustpilot page skips the
// service; a page without a parsable overall score aborts the whole run.
// Reviews are deleted and recreated without a transaction, so readers may
// briefly see a rating with no reviews.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hainu/catalog/internal/metrics"
	"github.com/hainu/catalog/internal/plugins/catalog"
	"github.com/hainu/catalog/internal/scraper"
)

// RatingStore is the catalog surface the run writes through.
type RatingStore interface {
	ListServiceLinks(ctx context.Context) ([]catalog.ServiceLink, error)
	GetOrCreateRating(ctx context.Context, serviceID int, entity catalog.RatingEntity) (*catalog.Rating, error)
	DeleteReviews(ctx context.Context, ratingID int) (int, error)
	CreateReview(ctx context.Context, rv *catalog.Review) error
	UpdateRatingScore(ctx context.Context, ratingID int, score float64) error
}

// Fetcher retrieves and parses a page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*scraper.Page, error)
}

// CacheFlusher drops cached API responses after ratings change.
type CacheFlusher interface {
	Flush(ctx context.Context) (int, error)
}

// Status is the outcome for one service.
type Status string

const (
	StatusSynced  Status = "synced"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ReasonNotFound marks services with no Trustpilot page.
const ReasonNotFound = "not_found"

// ItemResult is the outcome of syncing one service.
type ItemResult struct {
	ServiceID   int
	ServiceName string
	URL         string
	Status      Status
	Reason      string
	Score       float64

	// Reviews is the number of reviews stored.
	Reviews int

	// SkippedReviews lists reviews that were not stored, with reasons.
	SkippedReviews []scraper.SkippedReview
}

// Report aggregates a run.
type Report struct {
	// Total is the number of services the run set out to process.
	Total int

	Items []ItemResult
}

// Count returns how many items ended with status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, it := range r.Items {
		if it.Status == status {
			n++
		}
	}
	return n
}

// Syncer runs Trustpilot ingestion.
type Syncer struct {
	store   RatingStore
	fetcher Fetcher
	cache   CacheFlusher
	metrics *metrics.Metrics
	baseURL string
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithCache flushes cache after a run that wrote ratings.
func WithCache(c CacheFlusher) Option {
	return func(s *Syncer) { s.cache = c }
}

// WithMetrics records per-service and per-review counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// WithBaseURL overrides the Trustpilot review URL prefix.
func WithBaseURL(u string) Option {
	return func(s *Syncer) { s.baseURL = u }
}

// NewSyncer creates a syncer writing through store and fetching with fetcher.
func NewSyncer(store RatingStore, fetcher Fetcher, opts ...Option) *Syncer {
	s := &Syncer{store: store, fetcher: fetcher, baseURL: scraper.DefaultTrustpilotBaseURL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run syncs every service in id order. On a fatal error the report so far
// is returned along with the error; the failing service is the last item.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	links, err := s.store.ListServiceLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}

	report := &Report{Total: len(links)}
	wrote := false
	defer func() {
		if wrote {
			s.flushCache(ctx)
		}
	}()

	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		item, err := s.syncService(ctx, link)
		// A failed item may still have created a rating or deleted reviews.
		if item.Status != StatusSkipped {
			wrote = true
		}
		report.Items = append(report.Items, item)
		s.metrics.RecordIngestService(string(item.Status))
		s.metrics.RecordIngestReviews("stored", item.Reviews)
		s.metrics.RecordIngestReviews("skipped", len(item.SkippedReviews))

		slog.Info("trustpilot sync",
			slog.Int("service_id", link.ID),
			slog.String("service", link.Name),
			slog.String("status", string(item.Status)),
			slog.String("reason", item.Reason),
			slog.Int("reviews", item.Reviews),
			slog.Int("progress", i+1),
			slog.Int("total", len(links)),
		)

		if err != nil {
			return report, fmt.Errorf("service %d (%s): %w", link.ID, link.Name, err)
		}
	}
	return report, nil
}

func (s *Syncer) syncService(ctx context.Context, link catalog.ServiceLink) (ItemResult, error) {
	item := ItemResult{
		ServiceID:   link.ID,
		ServiceName: link.Name,
		URL:         scraper.ReviewPageURL(s.baseURL, link.Link),
	}
	fail := func(err error) (ItemResult, error) {
		item.Status = StatusFailed
		item.Reason = err.Error()
		return item, err
	}

	page, err := s.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		return fail(err)
	}
	if page.StatusCode == http.StatusNotFound {
		item.Status = StatusSkipped
		item.Reason = ReasonNotFound
		return item, nil
	}

	rating, err := s.store.GetOrCreateRating(ctx, link.ID, catalog.RatingEntityTrustpilot)
	if err != nil {
		return fail(err)
	}

	if page.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("unexpected status %d from %s", page.StatusCode, item.URL))
	}

	parsed, err := scraper.ParseReviewPage(page.Doc)
	if err != nil {
		return fail(err)
	}
	item.Score = parsed.Score
	item.SkippedReviews = parsed.Skipped

	if _, err := s.store.DeleteReviews(ctx, rating.ID); err != nil {
		return fail(err)
	}

	for i, r := range parsed.Reviews {
		rv := &catalog.Review{
			RatingID: rating.ID,
			Title:    r.Title,
			Username: r.Username,
			Text:     r.Text,
			Score:    r.Score,
		}
		if err := s.store.CreateReview(ctx, rv); err != nil {
			// Cancellation stops the run; any other failure skips the review.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fail(err)
			}
			item.SkippedReviews = append(item.SkippedReviews, scraper.SkippedReview{Index: i, Reason: err.Error()})
			continue
		}
		item.Reviews++
	}

	if err := s.store.UpdateRatingScore(ctx, rating.ID, parsed.Score); err != nil {
		return fail(err)
	}

	item.Status = StatusSynced
	return item, nil
}

func (s *Syncer) flushCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	// Flush even when the run was cancelled.
	n, err := s.cache.Flush(context.WithoutCancel(ctx))
	if err != nil {
		slog.Warn("cache flush after sync failed", slog.Any("error", err))
		return
	}
	s.metrics.RecordCacheFlush()
	slog.Info("cache flushed after sync", slog.Int("entries", n))
}
