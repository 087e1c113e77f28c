package service

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zetsuserv/support-portal/internal/auth"
	"github.com/zetsuserv/support-portal/internal/config"
	"github.com/zetsuserv/support-portal/internal/domain"
	apperrors "github.com/zetsuserv/support-portal/pkg/util/errorutil"
)

type fakeUserRepo struct {
	users map[string]*domain.User // keyed by lowercased email
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	f.users[strings.ToLower(user.Email)] = user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.users[strings.ToLower(user.Email)] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if user, ok := f.users[strings.ToLower(email)]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

type fakeOTPRepo struct {
	codes []*domain.OTPVerification
}

func (f *fakeOTPRepo) Create(_ context.Context, otp *domain.OTPVerification) error {
	otp.ID = uuid.NewString()
	otp.CreatedAt = time.Now()
	f.codes = append(f.codes, otp)
	return nil
}

func (f *fakeOTPRepo) GetLatestUnverified(_ context.Context, email string) (*domain.OTPVerification, error) {
	var latest *domain.OTPVerification
	for _, otp := range f.codes {
		if strings.EqualFold(otp.Email, email) && !otp.Verified {
			if latest == nil || otp.CreatedAt.After(latest.CreatedAt) {
				latest = otp
			}
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeOTPRepo) MarkVerified(_ context.Context, id string) error {
	for _, otp := range f.codes {
		if otp.ID == id {
			otp.Verified = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeOTPRepo) Delete(_ context.Context, id string) error {
	for i, otp := range f.codes {
		if otp.ID == id {
			f.codes = append(f.codes[:i], f.codes[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeOTPRepo) DeleteUnverifiedByEmail(_ context.Context, email string) error {
	kept := f.codes[:0]
	for _, otp := range f.codes {
		if !strings.EqualFold(otp.Email, email) || otp.Verified {
			kept = append(kept, otp)
		}
	}
	f.codes = kept
	return nil
}

func (f *fakeOTPRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var removed int64
	kept := f.codes[:0]
	for _, otp := range f.codes {
		if !otp.Verified && otp.Expired(now) {
			removed++
			continue
		}
		kept = append(kept, otp)
	}
	f.codes = kept
	return removed, nil
}

type memSessionStore struct {
	sessions map[string]*auth.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]*auth.Session{}}
}

func (s *memSessionStore) Save(_ context.Context, session *auth.Session, _ time.Duration) error {
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *memSessionStore) Get(_ context.Context, id string) (*auth.Session, error) {
	if session, ok := s.sessions[id]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, auth.ErrSessionNotFound
}

func (s *memSessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type authFixture struct {
	service *AuthService
	users   *fakeUserRepo
	otps    *fakeOTPRepo
	store   *memSessionStore
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := newFakeUserRepo()
	otps := &fakeOTPRepo{}
	store := newMemSessionStore()
	sessions := auth.NewSessionManager(store, "test-secret", time.Hour)
	svc := NewAuthService(config.SessionConfig{
		BcryptCost:    4,
		OTPTTLMinutes: 10,
		AdminEmail:    "Admin@ZetsuServ.example",
	}, AuthDependencies{
		UserRepo: users,
		OTPRepo:  otps,
		Sessions: sessions,
		Logger:   zap.NewNop(),
	})
	return &authFixture{service: svc, users: users, otps: otps, store: store}
}

func (f *authFixture) newSession(t *testing.T) *auth.Session {
	t.Helper()
	session := &auth.Session{ID: uuid.NewString(), CreatedAt: time.Now()}
	require.NoError(t, f.store.Save(context.Background(), session, time.Hour))
	return session
}

func TestBeginRegistration_Success(t *testing.T) {
	f := newAuthFixture(t)
	session := f.newSession(t)

	warnings, err := f.service.BeginRegistration(context.Background(), session, "new@example.com", "hunter22")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.Len(t, f.otps.codes, 1)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), f.otps.codes[0].Code)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), f.otps.codes[0].ExpiresAt, time.Minute)

	assert.Equal(t, "new@example.com", session.PendingEmail)
	assert.NotEmpty(t, session.PendingPasswordHash)
	assert.NotEqual(t, "hunter22", session.PendingPasswordHash)

	stored, err := f.store.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", stored.PendingEmail)
}

func TestBeginRegistration_InvalidInputIsValidationError(t *testing.T) {
	f := newAuthFixture(t)
	session := f.newSession(t)

	cases := map[string]struct {
		email    string
		password string
	}{
		"missing email":    {"", "pw"},
		"missing password": {"new@example.com", ""},
		"malformed email":  {"not-an-email", "pw"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.service.BeginRegistration(context.Background(), session, tc.email, tc.password)
			require.Error(t, err)
			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, 400, domainErr.HTTPStatus)
			assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
		})
	}
	assert.Empty(t, f.otps.codes, "no code is issued for rejected input")
}

func TestBeginRegistration_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.users.Create(context.Background(), &domain.User{Email: "taken@example.com"}))

	_, err := f.service.BeginRegistration(context.Background(), f.newSession(t), "taken@example.com", "pw")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Empty(t, f.otps.codes, "no code should be issued for a taken email")
}

func TestBeginRegistration_SupersedesOldCodes(t *testing.T) {
	f := newAuthFixture(t)
	session := f.newSession(t)

	_, err := f.service.BeginRegistration(context.Background(), session, "new@example.com", "pw-one")
	require.NoError(t, err)
	firstCode := f.otps.codes[0].Code

	_, err = f.service.BeginRegistration(context.Background(), session, "new@example.com", "pw-two")
	require.NoError(t, err)

	require.Len(t, f.otps.codes, 1, "prior unverified codes are deleted")
	if f.otps.codes[0].Code == firstCode {
		// Codes can collide by chance; the row itself must be new.
		assert.NotEqual(t, firstCode, f.otps.codes[0].ID)
	}
}

func TestVerifyOTP_NoPendingRegistration(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.VerifyOTP(context.Background(), f.newSession(t), "123456")
	assert.ErrorIs(t, err, ErrNoPendingRegistration)
}

func TestVerifyOTP_Mismatch(t *testing.T) {
	f := newAuthFixture(t)
	session := f.newSession(t)
	_, err := f.service.BeginRegistration(context.Background(), session, "new@example.com", "pw")
	require.NoError(t, err)

	_, err = f.service.VerifyOTP(context.Background(), session, "000000x")
	assert.ErrorIs(t, err, ErrOTPMismatch)

	// Pending state survives a wrong code so the user can retry.
	assert.Equal(t, "new@example.com", session.PendingEmail)
	assert.Len(t, f.otps.codes, 1)
}

func TestVerifyOTP_Expired(t *testing.T) {
	f := newAuthFixture(t)
	session := f.newSession(t)
	_, err := f.service.BeginRegistration(context.Background(), session, "new@example.com", "pw")
	require.NoError(t, err)
	f.otps.codes[0].ExpiresAt = time.Now().Add(-time.Minute)
	code := f.otps.codes[0].Code

	_, err = f.service.VerifyOTP(context.Background(), session, code)
	assert.ErrorIs(t, err, ErrOTPExpired)
	assert.Empty(t, f.otps.codes, "expired row is deleted")
	assert.Empty(t, session.PendingEmail, "pending registration is cleared")
}

func TestVerifyOTP_Success(t *testing.T) {
	f := newAuthFixture(t)
	session := f.newSession(t)
	_, err := f.service.BeginRegistration(context.Background(), session, "new@example.com", "pw")
	require.NoError(t, err)
	code := f.otps.codes[0].Code

	user, err := f.service.VerifyOTP(context.Background(), session, code)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.False(t, user.IsAdmin)
	assert.Equal(t, user.ID, session.UserID)
	assert.Empty(t, session.PendingEmail)
	assert.Empty(t, session.PendingPasswordHash)
	assert.True(t, f.otps.codes[0].Verified)
}

func TestVerifyOTP_AdminEmailGetsAdmin(t *testing.T) {
	f := newAuthFixture(t)
	session := f.newSession(t)
	_, err := f.service.BeginRegistration(context.Background(), session, "admin@zetsuserv.example", "pw")
	require.NoError(t, err)

	user, err := f.service.VerifyOTP(context.Background(), session, f.otps.codes[0].Code)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin, "admin email match is case-insensitive")
}

func registerVerifiedUser(t *testing.T, f *authFixture, email, password string) *domain.User {
	t.Helper()
	session := f.newSession(t)
	_, err := f.service.BeginRegistration(context.Background(), session, email, password)
	require.NoError(t, err)
	user, err := f.service.VerifyOTP(context.Background(), session, f.otps.codes[len(f.otps.codes)-1].Code)
	require.NoError(t, err)
	return user
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	registerVerifiedUser(t, f, "user@example.com", "correct-horse")

	t.Run("success", func(t *testing.T) {
		user, session, err := f.service.Login(context.Background(), "user@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID, session.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := f.service.Login(context.Background(), "user@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := f.service.Login(context.Background(), "ghost@example.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLogin_UnverifiedRejected(t *testing.T) {
	f := newAuthFixture(t)
	hash, err := auth.HashPassword("pw", 4)
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), &domain.User{
		Email:        "pending@example.com",
		PasswordHash: hash,
		IsVerified:   false,
	}))

	_, _, err = f.service.Login(context.Background(), "pending@example.com", "pw")
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestPurgeExpiredOTPs(t *testing.T) {
	f := newAuthFixture(t)
	now := time.Now()
	f.otps.codes = []*domain.OTPVerification{
		{ID: "1", Email: "a@example.com", ExpiresAt: now.Add(-time.Hour)},
		{ID: "2", Email: "b@example.com", ExpiresAt: now.Add(time.Hour)},
		{ID: "3", Email: "c@example.com", ExpiresAt: now.Add(-time.Minute), Verified: true},
	}

	removed, err := f.service.PurgeExpiredOTPs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	require.Len(t, f.otps.codes, 2)
}
