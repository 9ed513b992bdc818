package ingest

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hainu/catalog/internal/apperror"
	"github.com/hainu/catalog/internal/plugins/catalog"
	"github.com/hainu/catalog/internal/scraper"
)

// --- Mock store ---

type mockStore struct {
	links    []catalog.ServiceLink
	ratings  map[int]*catalog.Rating
	reviews  map[int][]catalog.Review
	deleted  []int
	createFn func(rv *catalog.Review) error
}

func newMockStore(links ...catalog.ServiceLink) *mockStore {
	return &mockStore{
		links:   links,
		ratings: make(map[int]*catalog.Rating),
		reviews: make(map[int][]catalog.Review),
	}
}

func (m *mockStore) ListServiceLinks(_ context.Context) ([]catalog.ServiceLink, error) {
	return m.links, nil
}

func (m *mockStore) GetOrCreateRating(_ context.Context, serviceID int, entity catalog.RatingEntity) (*catalog.Rating, error) {
	if r, ok := m.ratings[serviceID]; ok {
		return r, nil
	}
	r := &catalog.Rating{ID: serviceID * 10, ServiceID: serviceID, Entity: entity}
	m.ratings[serviceID] = r
	return r, nil
}

func (m *mockStore) DeleteReviews(_ context.Context, ratingID int) (int, error) {
	m.deleted = append(m.deleted, ratingID)
	n := len(m.reviews[ratingID])
	delete(m.reviews, ratingID)
	return n, nil
}

func (m *mockStore) CreateReview(_ context.Context, rv *catalog.Review) error {
	if m.createFn != nil {
		if err := m.createFn(rv); err != nil {
			return err
		}
	}
	m.reviews[rv.RatingID] = append(m.reviews[rv.RatingID], *rv)
	return nil
}

func (m *mockStore) UpdateRatingScore(_ context.Context, ratingID int, score float64) error {
	for _, r := range m.ratings {
		if r.ID == ratingID {
			r.Score = score
			return nil
		}
	}
	return apperror.NewNotFound("rating not found")
}

type mockFlusher struct{ calls int }

func (f *mockFlusher) Flush(_ context.Context) (int, error) {
	f.calls++
	return 3, nil
}

// --- Fixtures ---

const reviewPage = `<html><body>
<p data-rating-typography>4.5</p>
<article>
  <a name="consumer-profile"><span>Jo</span></a>
  <section><img src="https://cdn.trustpilot.net/brand-assets/4.1.0/stars/stars-5.svg"></section>
  <h2 data-service-review-title-typography>Great</h2>
  <p data-service-review-text-typography>Works well</p>
</article>
<article>
  <a name="consumer-profile"><span>Sam</span></a>
  <section><img src="https://cdn.trustpilot.net/brand-assets/4.1.0/stars/stars-4.svg"></section>
  <h2 data-service-review-title-typography>Good</h2>
  <p data-service-review-text-typography>Mostly fine</p>
</article>
<article><h2>broken</h2></article>
</body></html>`

func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func newSyncer(store RatingStore, opts ...Option) *Syncer {
	return NewSyncer(store, scraper.NewClient(5*time.Second, "test"), opts...)
}

// --- Tests ---

func TestRun_SyncsAndSkipsMissingPages(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", "https://www.trustpilot.com/review/acme.io",
		httpmock.NewStringResponder(http.StatusOK, reviewPage))
	httpmock.RegisterResponder("GET", "https://www.trustpilot.com/review/nobody.io",
		httpmock.NewStringResponder(http.StatusNotFound, "<html></html>"))

	store := newMockStore(
		catalog.ServiceLink{ID: 1, Name: "Acme", Link: "https://acme.io"},
		catalog.ServiceLink{ID: 2, Name: "Nobody", Link: "http://nobody.io"},
	)
	flusher := &mockFlusher{}

	report, err := newSyncer(store, WithCache(flusher)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	require.Len(t, report.Items, 2)
	assert.Equal(t, StatusSynced, report.Items[0].Status)
	assert.Equal(t, 2, report.Items[0].Reviews)
	assert.Len(t, report.Items[0].SkippedReviews, 1)
	assert.Equal(t, StatusSkipped, report.Items[1].Status)
	assert.Equal(t, ReasonNotFound, report.Items[1].Reason)

	assert.InDelta(t, 4.5, store.ratings[1].Score, 1e-9)
	assert.Len(t, store.reviews[10], 2)
	_, hasRating := store.ratings[2]
	assert.False(t, hasRating, "no rating should be created for a missing page")

	assert.Equal(t, 1, flusher.calls)
	assert.Equal(t, 1, report.Count(StatusSynced))
}

func TestRun_ReplacesExistingReviews(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", "https://www.trustpilot.com/review/acme.io",
		httpmock.NewStringResponder(http.StatusOK, reviewPage))

	store := newMockStore(catalog.ServiceLink{ID: 1, Name: "Acme", Link: "https://acme.io"})
	store.ratings[1] = &catalog.Rating{ID: 10, ServiceID: 1, Entity: catalog.RatingEntityTrustpilot, Score: 1}
	store.reviews[10] = []catalog.Review{{ID: 99, RatingID: 10, Title: "stale"}}

	_, err := newSyncer(store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{10}, store.deleted)
	require.Len(t, store.reviews[10], 2)
	assert.Equal(t, "Great", store.reviews[10][0].Title)
}

func TestRun_MissingScoreAborts(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", "https://www.trustpilot.com/review/first.io",
		httpmock.NewStringResponder(http.StatusOK, "<html><body>no score</body></html>"))
	httpmock.RegisterResponder("GET", "https://www.trustpilot.com/review/second.io",
		httpmock.NewStringResponder(http.StatusOK, reviewPage))

	store := newMockStore(
		catalog.ServiceLink{ID: 1, Name: "First", Link: "https://first.io"},
		catalog.ServiceLink{ID: 2, Name: "Second", Link: "https://second.io"},
	)

	report, err := newSyncer(store).Run(context.Background())
	require.Error(t, err)

	var missing *scraper.ErrScoreMissing
	assert.ErrorAs(t, err, &missing)
	require.Len(t, report.Items, 1, "the run must stop at the failing service")
	assert.Equal(t, StatusFailed, report.Items[0].Status)
	assert.Equal(t, 0, httpmock.GetCallCountInfo()["GET https://www.trustpilot.com/review/second.io"])
}

func TestRun_UnexpectedStatusIsFatal(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", "https://www.trustpilot.com/review/acme.io",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "busy"))

	store := newMockStore(catalog.ServiceLink{ID: 1, Name: "Acme", Link: "https://acme.io"})
	_, err := newSyncer(store).Run(context.Background())
	assert.ErrorContains(t, err, "unexpected status 503")
}

func TestRun_RejectedReviewIsSkipped(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", "https://www.trustpilot.com/review/acme.io",
		httpmock.NewStringResponder(http.StatusOK, reviewPage))

	store := newMockStore(catalog.ServiceLink{ID: 1, Name: "Acme", Link: "https://acme.io"})
	store.createFn = func(rv *catalog.Review) error {
		if rv.Username == "Sam" {
			return errors.New("data too long")
		}
		return nil
	}

	report, err := newSyncer(store).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Items[0].Reviews)
	assert.Len(t, report.Items[0].SkippedReviews, 2)
}

func TestRun_CustomBaseURL(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", "http://tp.local/review/acme.io",
		httpmock.NewStringResponder(http.StatusNotFound, ""))

	store := newMockStore(catalog.ServiceLink{ID: 1, Name: "Acme", Link: "https://acme.io"})
	flusher := &mockFlusher{}
	report, err := newSyncer(store, WithBaseURL("http://tp.local/review/"), WithCache(flusher)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, report.Items[0].Status)
	assert.Equal(t, 0, flusher.calls, "nothing written, nothing to flush")
}
