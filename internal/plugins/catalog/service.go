package catalog

import (
	"context"
	"log/slog"

	"github.com/hainu/catalog/internal/apperror"
	"github.com/hainu/catalog/internal/pagination"
)

// CatalogService defines the business logic contract for the catalog.
type CatalogService interface {
	ListServices(ctx context.Context, f ServiceFilter, p pagination.Params) (pagination.Page, []Service, error)
	GetService(ctx context.Context, id int) (*Service, error)

	ListTags(ctx context.Context, f TagFilter, p pagination.Params) (pagination.Page, []Tag, error)
	GetTag(ctx context.Context, id int) (*Tag, error)

	ListCategories(ctx context.Context, p pagination.Params) (pagination.Page, []Category, error)
	GetCategory(ctx context.Context, id int) (*Category, error)

	ListReviews(ctx context.Context, f ReviewFilter, p pagination.Params) (pagination.Page, []Review, error)
	GetReview(ctx context.Context, id int) (*Review, error)

	// SyncPrimeTagCategory attaches a category mirroring the service's prime
	// tag, creating the category when needed. Returns nil when the service
	// has no prime tag.
	SyncPrimeTagCategory(ctx context.Context, serviceID int) (*Category, error)

	DeleteService(ctx context.Context, id int) error
	DeleteTag(ctx context.Context, id int) error

	// Rating writes used by the ingestion run.
	ListServiceLinks(ctx context.Context) ([]ServiceLink, error)
	GetOrCreateRating(ctx context.Context, serviceID int, entity RatingEntity) (*Rating, error)
	DeleteReviews(ctx context.Context, ratingID int) (int, error)
	CreateReview(ctx context.Context, rv *Review) error
	UpdateRatingScore(ctx context.Context, ratingID int, score float64) error
}

// Repositories bundles the data access dependencies of CatalogService.
type Repositories struct {
	Services   ServiceRepository
	Tags       TagRepository
	Categories CategoryRepository
	Ratings    RatingRepository
	Reviews    ReviewRepository
}

type catalogService struct {
	services   ServiceRepository
	tags       TagRepository
	categories CategoryRepository
	ratings    RatingRepository
	reviews    ReviewRepository
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repos Repositories) CatalogService {
	return &catalogService{
		services:   repos.Services,
		tags:       repos.Tags,
		categories: repos.Categories,
		ratings:    repos.Ratings,
		reviews:    repos.Reviews,
	}
}

// ListServices returns one page of services with their brief relations.
func (s *catalogService) ListServices(ctx context.Context, f ServiceFilter, p pagination.Params) (pagination.Page, []Service, error) {
	total, err := s.services.Count(ctx, f)
	if err != nil {
		return pagination.Page{}, nil, err
	}
	page, err := pagination.Resolve(p, total)
	if err != nil {
		return pagination.Page{}, nil, err
	}
	if total == 0 {
		return page, nil, nil
	}

	services, err := s.services.List(ctx, f, page.Limit(), page.Offset())
	if err != nil {
		return pagination.Page{}, nil, err
	}
	if err := s.services.LoadRelations(ctx, services, false); err != nil {
		return pagination.Page{}, nil, err
	}
	return page, services, nil
}

// GetService returns a service with every relation loaded.
func (s *catalogService) GetService(ctx context.Context, id int) (*Service, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	one := []Service{*svc}
	if err := s.services.LoadRelations(ctx, one, true); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (s *catalogService) ListTags(ctx context.Context, f TagFilter, p pagination.Params) (pagination.Page, []Tag, error) {
	total, err := s.tags.Count(ctx, f)
	if err != nil {
		return pagination.Page{}, nil, err
	}
	page, err := pagination.Resolve(p, total)
	if err != nil {
		return pagination.Page{}, nil, err
	}
	if total == 0 {
		return page, nil, nil
	}
	tags, err := s.tags.List(ctx, f, page.Limit(), page.Offset())
	if err != nil {
		return pagination.Page{}, nil, err
	}
	return page, tags, nil
}

func (s *catalogService) GetTag(ctx context.Context, id int) (*Tag, error) {
	return s.tags.FindByID(ctx, id)
}

func (s *catalogService) ListCategories(ctx context.Context, p pagination.Params) (pagination.Page, []Category, error) {
	total, err := s.categories.Count(ctx)
	if err != nil {
		return pagination.Page{}, nil, err
	}
	page, err := pagination.Resolve(p, total)
	if err != nil {
		return pagination.Page{}, nil, err
	}
	if total == 0 {
		return page, nil, nil
	}
	categories, err := s.categories.List(ctx, page.Limit(), page.Offset())
	if err != nil {
		return pagination.Page{}, nil, err
	}
	return page, categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id int) (*Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *catalogService) ListReviews(ctx context.Context, f ReviewFilter, p pagination.Params) (pagination.Page, []Review, error) {
	total, err := s.reviews.Count(ctx, f)
	if err != nil {
		return pagination.Page{}, nil, err
	}
	page, err := pagination.Resolve(p, total)
	if err != nil {
		return pagination.Page{}, nil, err
	}
	if total == 0 {
		return page, nil, nil
	}
	reviews, err := s.reviews.List(ctx, f, page.Limit(), page.Offset())
	if err != nil {
		return pagination.Page{}, nil, err
	}
	return page, reviews, nil
}

func (s *catalogService) GetReview(ctx context.Context, id int) (*Review, error) {
	return s.reviews.FindByID(ctx, id)
}

// SyncPrimeTagCategory copies the prime tag's name and description into a
// category and links it to the service.
func (s *catalogService) SyncPrimeTagCategory(ctx context.Context, serviceID int) (*Category, error) {
	svc, err := s.services.FindByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.PrimeTagID == nil {
		return nil, nil
	}

	tag, err := s.tags.FindByID(ctx, *svc.PrimeTagID)
	if err != nil {
		return nil, err
	}

	cat, created, err := s.categories.GetOrCreate(ctx, tag.Name, tag.Description)
	if err != nil {
		return nil, err
	}
	if err := s.services.AttachCategory(ctx, svc.ID, cat.ID); err != nil {
		return nil, err
	}

	slog.Info("prime tag category synced",
		slog.Int("service_id", svc.ID),
		slog.Int("category_id", cat.ID),
		slog.Bool("created", created),
	)
	return cat, nil
}

func (s *catalogService) DeleteService(ctx context.Context, id int) error {
	if err := s.services.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("service deleted", slog.Int("service_id", id))
	return nil
}

func (s *catalogService) DeleteTag(ctx context.Context, id int) error {
	if err := s.tags.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("tag deleted", slog.Int("tag_id", id))
	return nil
}

func (s *catalogService) ListServiceLinks(ctx context.Context) ([]ServiceLink, error) {
	return s.services.ListLinks(ctx)
}

func (s *catalogService) GetOrCreateRating(ctx context.Context, serviceID int, entity RatingEntity) (*Rating, error) {
	return s.ratings.GetOrCreate(ctx, serviceID, entity)
}

func (s *catalogService) DeleteReviews(ctx context.Context, ratingID int) (int, error) {
	return s.reviews.DeleteByRating(ctx, ratingID)
}

// CreateReview validates and stores a review for an existing rating.
func (s *catalogService) CreateReview(ctx context.Context, rv *Review) error {
	if rv.RatingID == 0 {
		return apperror.NewValidation("review must belong to a rating")
	}
	if err := ValidateScore(rv.Score); err != nil {
		return err
	}
	return s.reviews.Create(ctx, rv)
}

func (s *catalogService) UpdateRatingScore(ctx context.Context, ratingID int, score float64) error {
	if err := ValidateScore(score); err != nil {
		return err
	}
	return s.ratings.UpdateScore(ctx, ratingID, score)
}
