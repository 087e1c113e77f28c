package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetsuserv/support-portal/internal/domain"
)

// NewsletterRepository manages broadcast list membership.
type NewsletterRepository interface {
	Subscribe(ctx context.Context, sub *domain.NewsletterSubscription) error
	ListEmails(ctx context.Context) ([]string, error)
}

// NewsRepository persists admin announcements.
type NewsRepository interface {
	Create(ctx context.Context, news *domain.News) error
	List(ctx context.Context, limit int) ([]domain.News, error)
}

// PushSubscriptionRepository records browser push endpoints.
type PushSubscriptionRepository interface {
	Upsert(ctx context.Context, sub *domain.PushSubscription) error
}

type newsletterRepository struct {
	pool *pgxpool.Pool
}

// NewNewsletterRepository constructs repository.
func NewNewsletterRepository(pool *pgxpool.Pool) NewsletterRepository {
	return &newsletterRepository{pool: pool}
}

func (r *newsletterRepository) Subscribe(ctx context.Context, sub *domain.NewsletterSubscription) error {
	const query = `
        INSERT INTO newsletter_subscriptions (email, user_id)
        VALUES (LOWER($1), $2)
        ON CONFLICT (email) DO UPDATE SET user_id = COALESCE(EXCLUDED.user_id, newsletter_subscriptions.user_id)
        RETURNING id, subscribed_at`
	return r.pool.QueryRow(ctx, query, sub.Email, sub.UserID).Scan(&sub.ID, &sub.SubscribedAt)
}

func (r *newsletterRepository) ListEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT email FROM newsletter_subscriptions ORDER BY subscribed_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

type newsRepository struct {
	pool *pgxpool.Pool
}

// NewNewsRepository constructs repository.
func NewNewsRepository(pool *pgxpool.Pool) NewsRepository {
	return &newsRepository{pool: pool}
}

func (r *newsRepository) Create(ctx context.Context, news *domain.News) error {
	const query = `
        INSERT INTO news (title, content, author_id)
        VALUES ($1,$2,$3)
        RETURNING id, published_at`
	return r.pool.QueryRow(ctx, query, news.Title, news.Content, news.AuthorID).
		Scan(&news.ID, &news.PublishedAt)
}

func (r *newsRepository) List(ctx context.Context, limit int) ([]domain.News, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, content, author_id, published_at FROM news ORDER BY published_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.News
	for rows.Next() {
		var item domain.News
		if err := rows.Scan(&item.ID, &item.Title, &item.Content, &item.AuthorID, &item.PublishedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

type pushSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewPushSubscriptionRepository constructs repository.
func NewPushSubscriptionRepository(pool *pgxpool.Pool) PushSubscriptionRepository {
	return &pushSubscriptionRepository{pool: pool}
}

func (r *pushSubscriptionRepository) Upsert(ctx context.Context, sub *domain.PushSubscription) error {
	const query = `
        INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (endpoint) DO UPDATE SET p256dh_key=EXCLUDED.p256dh_key, auth_key=EXCLUDED.auth_key
        RETURNING id, subscribed_at`
	return r.pool.QueryRow(ctx, query,
		sub.UserID,
		sub.Endpoint,
		sub.P256DHKey,
		sub.AuthKey,
	).Scan(&sub.ID, &sub.SubscribedAt)
}
