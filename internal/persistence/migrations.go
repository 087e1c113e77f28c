package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const migrationsDir = "migrations"

// RunMigrations executes the SQL migrations located in the /migrations
// directory, then seeds FAQ reference data when the table is empty.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)

	for _, name := range filenames {
		path := filepath.Join(migrationsDir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		logger.Info("applying migration", zap.String("file", name))
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	logger.Info("migrations applied", zap.Int("count", len(filenames)))

	if err := seedFAQs(ctx, pool, logger); err != nil {
		return fmt.Errorf("seed faqs: %w", err)
	}
	return nil
}

type faqSeed struct {
	question string
	answer   string
	category string
	order    int
}

var defaultFAQs = []faqSeed{
	{
		question: "How do I submit a support ticket?",
		answer:   "Click on 'Support' in the navigation menu, fill out the form with your details, and click 'Submit Ticket'. You'll receive a confirmation email with your ticket ID.",
		category: "General",
		order:    1,
	},
	{
		question: "What is the expected response time?",
		answer:   "We aim to respond to all tickets within 24 hours during business days. Urgent issues are prioritized and typically receive a response within 4 hours.",
		category: "Support",
		order:    2,
	},
	{
		question: "Can I track my ticket status?",
		answer:   "Yes! You can track your ticket status on the 'Track Ticket' page using your ticket ID or email address.",
		category: "Support",
		order:    3,
	},
}

func seedFAQs(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM faqs`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, faq := range defaultFAQs {
		if _, err := pool.Exec(ctx,
			`INSERT INTO faqs (question, answer, category, display_order) VALUES ($1,$2,$3,$4)`,
			faq.question, faq.answer, faq.category, faq.order,
		); err != nil {
			return err
		}
	}
	logger.Info("seeded faq reference data", zap.Int("count", len(defaultFAQs)))
	return nil
}
