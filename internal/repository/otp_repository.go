package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zetsuserv/support-portal/internal/domain"
)

// OTPRepository manages one-time verification codes.
type OTPRepository interface {
	Create(ctx context.Context, otp *domain.OTPVerification) error
	// GetLatestUnverified returns the most recent unverified code for
	// the email, or pgx.ErrNoRows.
	GetLatestUnverified(ctx context.Context, email string) (*domain.OTPVerification, error)
	MarkVerified(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteUnverifiedByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type otpRepository struct {
	pool *pgxpool.Pool
}

// NewOTPRepository constructs repository.
func NewOTPRepository(pool *pgxpool.Pool) OTPRepository {
	return &otpRepository{pool: pool}
}

func (r *otpRepository) Create(ctx context.Context, otp *domain.OTPVerification) error {
	const query = `
        INSERT INTO otp_verifications (email, otp_code, expires_at, verified)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		otp.Email,
		otp.Code,
		otp.ExpiresAt,
		otp.Verified,
	).Scan(&otp.ID, &otp.CreatedAt)
}

func (r *otpRepository) GetLatestUnverified(ctx context.Context, email string) (*domain.OTPVerification, error) {
	const query = `
        SELECT id, email, otp_code, expires_at, verified, created_at
        FROM otp_verifications
        WHERE LOWER(email)=LOWER($1) AND verified=FALSE
        ORDER BY created_at DESC
        LIMIT 1`
	var otp domain.OTPVerification
	if err := r.pool.QueryRow(ctx, query, email).Scan(
		&otp.ID,
		&otp.Email,
		&otp.Code,
		&otp.ExpiresAt,
		&otp.Verified,
		&otp.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *otpRepository) MarkVerified(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE otp_verifications SET verified=TRUE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *otpRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM otp_verifications WHERE id=$1`, id)
	return err
}

func (r *otpRepository) DeleteUnverifiedByEmail(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM otp_verifications WHERE LOWER(email)=LOWER($1) AND verified=FALSE`, email)
	return err
}

func (r *otpRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM otp_verifications WHERE verified=FALSE AND expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
