package subscriptions

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SubscriptionRepository defines the data access contract for sign-ups.
type SubscriptionRepository interface {
	Create(ctx context.Context, s *Subscription) error
}

type subscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new subscription repository.
func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create inserts the subscription and sets its ID and CreatedAt.
func (r *subscriptionRepository) Create(ctx context.Context, s *Subscription) error {
	s.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO email_subscriptions (mail, created_at) VALUES (?, ?)`,
		s.Mail, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading subscription id: %w", err)
	}
	s.ID = int(id)
	return nil
}
