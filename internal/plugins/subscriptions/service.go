package subscriptions

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/hainu/catalog/internal/apperror"
)

// Field error messages.
const (
	msgRequired = "This field is required."
	msgInvalid  = "Enter a valid email address."
	msgTooLong  = "Ensure this field has no more than 254 characters."
)

// SubscriptionService defines the business logic contract for sign-ups.
type SubscriptionService interface {
	Subscribe(ctx context.Context, input CreateInput) (*Subscription, error)
}

type subscriptionService struct {
	repo SubscriptionRepository
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(repo SubscriptionRepository) SubscriptionService {
	return &subscriptionService{repo: repo}
}

// Subscribe validates the address and stores it.
func (s *subscriptionService) Subscribe(ctx context.Context, input CreateInput) (*Subscription, error) {
	addr, msg := normalizeMail(input.Mail)
	if msg != "" {
		return nil, apperror.NewFieldErrors(map[string][]string{"mail": {msg}})
	}

	sub := &Subscription{Mail: addr}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, apperror.NewInternal(err)
	}

	slog.Info("email subscription created", slog.Int("id", sub.ID))
	return sub, nil
}

// normalizeMail returns the trimmed address, or a field message when it
// is not a bare address with a single @ and a dotted domain.
func normalizeMail(raw string) (string, string) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return "", msgRequired
	}
	if len(addr) > maxMailLength {
		return "", msgTooLong
	}

	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || parsed.Name != "" {
		return "", msgInvalid
	}

	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return "", msgInvalid
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return "", msgInvalid
	}
	for _, l := range labels {
		if l == "" || strings.HasPrefix(l, "-") || strings.HasSuffix(l, "-") {
			return "", msgInvalid
		}
	}
	return addr, ""
}
