package service

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zetsuserv/support-portal/internal/auth"
	"github.com/zetsuserv/support-portal/internal/config"
	"github.com/zetsuserv/support-portal/internal/domain"
	"github.com/zetsuserv/support-portal/internal/events"
	"github.com/zetsuserv/support-portal/internal/repository"
	apperrors "github.com/zetsuserv/support-portal/pkg/util/errorutil"
)

// Sentinel errors for the OTP registration state machine. Handlers map
// them to user-facing responses.
var (
	ErrEmailTaken            = errors.New("email already registered")
	ErrNoPendingRegistration = errors.New("no registration in progress")
	ErrOTPNotFound           = errors.New("no verification code on file")
	ErrOTPExpired            = errors.New("verification code expired")
	ErrOTPMismatch           = errors.New("verification code incorrect")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrNotVerified           = errors.New("account not verified")
)

// AuthService coordinates OTP-gated registration and session login.
type AuthService struct {
	users      repository.UserRepository
	otps       repository.OTPRepository
	sessions   *auth.SessionManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	otpTTL     time.Duration
	adminEmail string
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	OTPRepo    repository.OTPRepository
	Sessions   *auth.SessionManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.SessionConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		otps:       deps.OTPRepo,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: cfg.BcryptCost,
		otpTTL:     cfg.OTPTTL(),
		adminEmail: strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
	}
}

// Sessions exposes the session manager for middleware wiring.
func (s *AuthService) Sessions() *auth.SessionManager {
	return s.sessions
}

// BeginRegistration issues a fresh OTP for the email, deletes prior
// unverified codes best-effort, emails the code and stashes the pending
// account in the session. Rejects before issuing anything when the email
// is already registered.
func (s *AuthService) BeginRegistration(ctx context.Context, session *auth.Session, email, password string) ([]string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}
	if !emailPattern.MatchString(email) {
		return nil, apperrors.NewValidationError("invalid email address", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	// Best-effort cleanup of superseded codes; not transactional with
	// the insert below.
	if err := s.otps.DeleteUnverifiedByEmail(ctx, email); err != nil {
		s.logger.Warn("failed to delete superseded otp rows", zap.String("email", email), zap.Error(err))
	}

	otp := &domain.OTPVerification{
		Email:     email,
		Code:      generateOTPCode(),
		ExpiresAt: time.Now().Add(s.otpTTL),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	session.PendingEmail = email
	session.PendingPasswordHash = hash
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	var warnings []string
	if err := s.publishEvent(ctx, events.Event{
		Type: events.EventOTPIssued,
		Payload: events.OTPIssuedPayload{
			Email:     email,
			Code:      otp.Code,
			ExpiresAt: otp.ExpiresAt,
		},
	}); err != nil {
		warnings = append(warnings, splitWarnings(err)...)
	}
	return warnings, nil
}

// VerifyOTP consumes the most recent unverified code. On success the
// account is created and the session becomes a login session. Expired
// codes are deleted and the pending registration cleared.
func (s *AuthService) VerifyOTP(ctx context.Context, session *auth.Session, code string) (*domain.User, error) {
	if session.PendingEmail == "" || session.PendingPasswordHash == "" {
		return nil, ErrNoPendingRegistration
	}
	email := session.PendingEmail

	otp, err := s.otps.GetLatestUnverified(ctx, email)
	if err == pgx.ErrNoRows {
		return nil, ErrOTPNotFound
	}
	if err != nil {
		return nil, err
	}

	if otp.Expired(time.Now()) {
		if err := s.otps.Delete(ctx, otp.ID); err != nil {
			s.logger.Warn("failed to delete expired otp", zap.String("email", email), zap.Error(err))
		}
		s.clearPending(ctx, session)
		return nil, ErrOTPExpired
	}

	if strings.TrimSpace(code) != otp.Code {
		return nil, ErrOTPMismatch
	}

	if err := s.otps.MarkVerified(ctx, otp.ID); err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: session.PendingPasswordHash,
		IsAdmin:      s.adminEmail != "" && strings.EqualFold(email, s.adminEmail),
		IsVerified:   true,
		IsAvailable:  true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	session.PendingEmail = ""
	session.PendingPasswordHash = ""
	session.UserID = user.ID
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates and binds the account to a fresh session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *auth.Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err == pgx.ErrNoRows {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, nil, ErrNotVerified
	}

	session := &auth.Session{ID: uuid.NewString(), UserID: user.ID}
	return user, session, nil
}

// Logout destroys the server-side session.
func (s *AuthService) Logout(ctx context.Context, session *auth.Session) error {
	return s.sessions.Destroy(ctx, session)
}

// SetAvailability toggles the availability flag on the account.
func (s *AuthService) SetAvailability(ctx context.Context, user *domain.User, available bool) error {
	user.IsAvailable = available
	return s.users.Update(ctx, user)
}

// PurgeExpiredOTPs deletes expired unverified codes; the cron worker
// calls this hourly to complement the lazy delete-on-verify path.
func (s *AuthService) PurgeExpiredOTPs(ctx context.Context) (int64, error) {
	return s.otps.DeleteExpired(ctx, time.Now())
}

func (s *AuthService) clearPending(ctx context.Context, session *auth.Session) {
	session.PendingEmail = ""
	session.PendingPasswordHash = ""
	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.Warn("failed to clear pending registration", zap.Error(err))
	}
}

func (s *AuthService) publishEvent(ctx context.Context, event events.Event) error {
	if s.dispatcher == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return s.dispatcher.Publish(ctx, event)
}

// generateOTPCode returns a 6-digit numeric code.
func generateOTPCode() string {
	const digits = "0123456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read failing means the platform RNG is broken; fall
		// back to a uuid-derived code rather than panic.
		id := uuid.NewString()
		for i := range buf {
			buf[i] = digits[int(id[i])%len(digits)]
		}
		return string(buf)
	}
	for i := range buf {
		buf[i] = digits[int(buf[i])%len(digits)]
	}
	return string(buf)
}
