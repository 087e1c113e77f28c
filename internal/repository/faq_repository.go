package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetsuserv/support-portal/internal/domain"
)

// FAQRepository reads static FAQ reference data.
type FAQRepository interface {
	ListOrdered(ctx context.Context) ([]domain.FAQ, error)
}

type faqRepository struct {
	pool *pgxpool.Pool
}

// NewFAQRepository constructs repository.
func NewFAQRepository(pool *pgxpool.Pool) FAQRepository {
	return &faqRepository{pool: pool}
}

func (r *faqRepository) ListOrdered(ctx context.Context) ([]domain.FAQ, error) {
	const query = `
        SELECT id, question, answer, category, display_order, created_at
        FROM faqs ORDER BY display_order ASC, created_at ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.FAQ
	for rows.Next() {
		var faq domain.FAQ
		if err := rows.Scan(
			&faq.ID,
			&faq.Question,
			&faq.Answer,
			&faq.Category,
			&faq.Order,
			&faq.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, faq)
	}
	return result, rows.Err()
}
