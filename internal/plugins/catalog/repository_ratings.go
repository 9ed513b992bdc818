package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hainu/catalog/internal/apperror"
)

// --- Rating Repository ---

// RatingRepository defines the data access contract for service ratings.
type RatingRepository interface {
	// GetOrCreate returns the rating of serviceID on entity, inserting one
	// with score 0 when missing.
	GetOrCreate(ctx context.Context, serviceID int, entity RatingEntity) (*Rating, error)
	UpdateScore(ctx context.Context, id int, score float64) error
}

type ratingRepository struct {
	db *sql.DB
}

// NewRatingRepository creates a new rating repository.
func NewRatingRepository(db *sql.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) find(ctx context.Context, serviceID int, entity RatingEntity) (*Rating, error) {
	query := `SELECT id, service_id, entity, score FROM service_ratings WHERE service_id = ? AND entity = ?`
	rt := &Rating{}
	err := r.db.QueryRowContext(ctx, query, serviceID, entity).Scan(&rt.ID, &rt.ServiceID, &rt.Entity, &rt.Score)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// GetOrCreate relies on the (service_id, entity) unique key: a concurrent
// insert that loses the race re-reads the winner's row.
func (r *ratingRepository) GetOrCreate(ctx context.Context, serviceID int, entity RatingEntity) (*Rating, error) {
	if !entity.Valid() {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown rating entity %q", entity))
	}

	rt, err := r.find(ctx, serviceID, entity)
	if err == nil {
		return rt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying rating: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO service_ratings (service_id, entity, score) VALUES (?, ?, 0)`, serviceID, entity)
	if err != nil {
		if isDuplicateEntry(err) {
			rt, err = r.find(ctx, serviceID, entity)
			if err != nil {
				return nil, fmt.Errorf("re-reading rating: %w", err)
			}
			return rt, nil
		}
		return nil, fmt.Errorf("inserting rating: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting rating id: %w", err)
	}
	return &Rating{ID: int(id), ServiceID: serviceID, Entity: entity}, nil
}

func (r *ratingRepository) UpdateScore(ctx context.Context, id int, score float64) error {
	if err := ValidateScore(score); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `UPDATE service_ratings SET score = ? WHERE id = ?`, score, id)
	if err != nil {
		return fmt.Errorf("updating rating score: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	// MariaDB reports 0 affected rows when the score is unchanged.
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM service_ratings WHERE id = ?)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("checking rating: %w", err)
		}
		if !exists {
			return apperror.NewNotFound("rating not found")
		}
	}
	return nil
}

// --- Review Repository ---

// ReviewRepository defines the data access contract for rating reviews.
type ReviewRepository interface {
	Count(ctx context.Context, f ReviewFilter) (int, error)

	// List returns reviews ordered by id with their owning rating attached.
	List(ctx context.Context, f ReviewFilter, limit, offset int) ([]Review, error)
	FindByID(ctx context.Context, id int) (*Review, error)
	DeleteByRating(ctx context.Context, ratingID int) (int, error)
	Create(ctx context.Context, rv *Review) error
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewSelect = `SELECT rv.id, rv.service_rating_id, rv.title, rv.username, rv.text, rv.score,
	       r.id, r.service_id, r.entity, r.score
	FROM service_rating_reviews rv
	INNER JOIN service_ratings r ON r.id = rv.service_rating_id `

func scanReview(sc interface{ Scan(...any) error }, rv *Review) error {
	rt := &Rating{}
	if err := sc.Scan(&rv.ID, &rv.RatingID, &rv.Title, &rv.Username, &rv.Text, &rv.Score,
		&rt.ID, &rt.ServiceID, &rt.Entity, &rt.Score); err != nil {
		return err
	}
	rv.Rating = rt
	return nil
}

func (r *reviewRepository) Count(ctx context.Context, f ReviewFilter) (int, error) {
	where, args := f.whereClause()
	query := `SELECT COUNT(*) FROM service_rating_reviews rv
	          INNER JOIN service_ratings r ON r.id = rv.service_rating_id ` + where
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting reviews: %w", err)
	}
	return n, nil
}

func (r *reviewRepository) List(ctx context.Context, f ReviewFilter, limit, offset int) ([]Review, error) {
	where, args := f.whereClause()
	query := reviewSelect + where + ` ORDER BY rv.id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var rv Review
		if err := scanReview(rows, &rv); err != nil {
			return nil, fmt.Errorf("scanning review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating review rows: %w", err)
	}
	return reviews, nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id int) (*Review, error) {
	rv := &Review{}
	err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+`WHERE rv.id = ?`, id), rv)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("review not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying review by id: %w", err)
	}
	return rv, nil
}

// DeleteByRating removes every review of a rating and returns how many
// were deleted.
func (r *reviewRepository) DeleteByRating(ctx context.Context, ratingID int) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM service_rating_reviews WHERE service_rating_id = ?`, ratingID)
	if err != nil {
		return 0, fmt.Errorf("deleting reviews: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return int(n), nil
}

func (r *reviewRepository) Create(ctx context.Context, rv *Review) error {
	if err := ValidateScore(rv.Score); err != nil {
		return err
	}
	query := `INSERT INTO service_rating_reviews (service_rating_id, title, username, text, score)
	          VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, rv.RatingID, rv.Title, rv.Username, rv.Text, rv.Score)
	if err != nil {
		return fmt.Errorf("inserting review: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting review id: %w", err)
	}
	rv.ID = int(id)
	return nil
}
