package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"travel-agency/internal/clock"
	"travel-agency/internal/status"
	"travel-agency/models"
)

// WelcomeMailer sends the newsletter welcome email.
type WelcomeMailer interface {
	NewsletterWelcome(sub *models.NewsletterSubscriber)
}

type NewsletterService struct {
	repo   ContentRepository[*models.NewsletterSubscriber]
	mailer WelcomeMailer
	clock  clock.Clock
	token  func() string
}

func NewNewsletterService(repo ContentRepository[*models.NewsletterSubscriber], mailer WelcomeMailer, clk clock.Clock) *NewsletterService {
	return &NewsletterService{
		repo:   repo,
		mailer: mailer,
		clock:  clk,
		token:  uuid.NewString,
	}
}

// Subscribe adds email to the list. Addresses that unsubscribed earlier are
// subscribed again with a fresh unsubscribe token.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	email = models.NormalizeEmail(email)
	now := s.clock.Now()

	sub, err := s.repo.FindBy(ctx, "email", email)
	switch {
	case err == nil:
		if sub.Subscribed {
			return nil, status.ErrAlreadySubscribed
		}
		sub.Subscribed = true
		sub.Token = s.token()
		sub.UnsubscribedAt = nil
		sub.ConfirmedAt = &now
	case errors.Is(err, status.ErrNotFound):
		sub = &models.NewsletterSubscriber{
			Email:       email,
			Token:       s.token(),
			Subscribed:  true,
			ConfirmedAt: &now,
		}
	default:
		return nil, fmt.Errorf("find subscriber: %w", err)
	}

	if err := sub.Validate(); err != nil {
		return nil, status.Validation(err)
	}

	saved, err := s.repo.Save(ctx, sub, "")
	if errors.Is(err, status.ErrConflict) {
		// concurrent subscription of the same address
		return nil, status.ErrAlreadySubscribed
	}
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		s.mailer.NewsletterWelcome(saved)
	}
	slog.Info("Newsletter subscription", "subscriber", saved.ID)
	return saved, nil
}

// Unsubscribe ends the subscription owning token. Repeating it is harmless.
func (s *NewsletterService) Unsubscribe(ctx context.Context, token string) error {
	if token == "" {
		return status.ErrNotFound
	}
	sub, err := s.repo.FindBy(ctx, "token", token)
	if err != nil {
		return err
	}
	if !sub.Subscribed {
		return nil
	}

	now := s.clock.Now()
	sub.Subscribed = false
	sub.UnsubscribedAt = &now
	if _, err := s.repo.Save(ctx, sub, ""); err != nil {
		return err
	}
	slog.Info("Newsletter unsubscription", "subscriber", sub.ID)
	return nil
}

func (s *NewsletterService) List(ctx context.Context, actor models.Actor, q models.ListQuery) (models.Page[*models.NewsletterSubscriber], error) {
	if !actor.Can(models.PermManageNewsletter) {
		return models.Page[*models.NewsletterSubscriber]{}, status.ErrForbidden
	}
	q = q.Normalize()
	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return models.Page[*models.NewsletterSubscriber]{}, fmt.Errorf("list subscribers: %w", err)
	}
	return models.NewPage(items, q, total), nil
}

func (s *NewsletterService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if !actor.Can(models.PermManageNewsletter) {
		return status.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
