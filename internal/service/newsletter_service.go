package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zetsuserv/support-portal/internal/domain"
	"github.com/zetsuserv/support-portal/internal/events"
	"github.com/zetsuserv/support-portal/internal/repository"
	apperrors "github.com/zetsuserv/support-portal/pkg/util/errorutil"
)

// NewsletterService covers newsletter membership, news publishing and
// push subscription records.
type NewsletterService struct {
	subscriptions repository.NewsletterRepository
	news          repository.NewsRepository
	push          repository.PushSubscriptionRepository
	users         repository.UserRepository
	dispatcher    events.Dispatcher
}

// NewsletterDependencies bundles repositories for the service.
type NewsletterDependencies struct {
	SubscriptionRepo repository.NewsletterRepository
	NewsRepo         repository.NewsRepository
	PushRepo         repository.PushSubscriptionRepository
	UserRepo         repository.UserRepository
	Dispatcher       events.Dispatcher
}

// PushSubscriptionInput is the browser push registration payload.
type PushSubscriptionInput struct {
	Endpoint  string
	P256DHKey string
	AuthKey   string
	UserID    *string
}

// NewNewsletterService constructs the service.
func NewNewsletterService(deps NewsletterDependencies) *NewsletterService {
	return &NewsletterService{
		subscriptions: deps.SubscriptionRepo,
		news:          deps.NewsRepo,
		push:          deps.PushRepo,
		users:         deps.UserRepo,
		dispatcher:    deps.Dispatcher,
	}
}

// Subscribe adds the email to the broadcast list; repeated subscriptions
// are idempotent.
func (s *NewsletterService) Subscribe(ctx context.Context, email string, userID *string) error {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return apperrors.NewValidationError("invalid email address", nil)
	}
	sub := &domain.NewsletterSubscription{Email: email, UserID: userID}
	if err := s.subscriptions.Subscribe(ctx, sub); err != nil {
		return apperrors.NewInternalError(err)
	}
	if userID != nil {
		if user, err := s.users.GetByID(ctx, *userID); err == nil && !user.NewsletterSubscribed {
			user.NewsletterSubscribed = true
			_ = s.users.Update(ctx, user)
		}
	}
	return nil
}

// SubscribePush records a browser push endpoint; repeated registrations
// refresh the keys.
func (s *NewsletterService) SubscribePush(ctx context.Context, input PushSubscriptionInput) error {
	if strings.TrimSpace(input.Endpoint) == "" || input.P256DHKey == "" || input.AuthKey == "" {
		return apperrors.NewValidationError("endpoint and keys required", nil)
	}
	sub := &domain.PushSubscription{
		UserID:    input.UserID,
		Endpoint:  input.Endpoint,
		P256DHKey: input.P256DHKey,
		AuthKey:   input.AuthKey,
	}
	if err := s.push.Upsert(ctx, sub); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// PublishNews stores the announcement and triggers the broadcast. The
// broadcast runs synchronously in the event handler; per-recipient
// failures surface as warnings.
func (s *NewsletterService) PublishNews(ctx context.Context, authorID, title, content string) (*domain.News, []string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, nil, apperrors.NewValidationError("title and content required", nil)
	}

	news := &domain.News{Title: title, Content: content, AuthorID: authorID}
	if err := s.news.Create(ctx, news); err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	var warnings []string
	if s.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventNewsPublished,
			Timestamp: time.Now(),
			Payload:   events.NewsPublishedPayload{News: *news},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			warnings = append(warnings, splitWarnings(err)...)
		}
	}
	return news, warnings, nil
}

// ListNews returns recent announcements.
func (s *NewsletterService) ListNews(ctx context.Context, limit int) ([]domain.News, error) {
	items, err := s.news.List(ctx, limit)
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, apperrors.NewInternalError(err)
	}
	return items, nil
}
