package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a session ID has no backing record.
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side state attached to a browser cookie. During
// registration PendingEmail/PendingPasswordHash hold the account awaiting
// OTP verification; after login UserID identifies the account.
type Session struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id,omitempty"`
	PendingEmail        string    `json:"pending_email,omitempty"`
	PendingPasswordHash string    `json:"pending_password_hash,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// SessionStore persists sessions server-side.
type SessionStore interface {
	Save(ctx context.Context, session *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore backs sessions with Redis.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *redisSessionStore) Save(ctx context.Context, session *Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err()
}

func (s *redisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// SessionManager issues and resolves cookie sessions. The cookie value is
// the session ID signed as a JWT so a tampered cookie fails before any
// Redis lookup.
type SessionManager struct {
	store  SessionStore
	secret []byte
	ttl    time.Duration
}

// NewSessionManager builds a manager over the given store.
func NewSessionManager(store SessionStore, secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &SessionManager{store: store, secret: []byte(secret), ttl: ttl}
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issue creates a session, persists it and returns the signed cookie value.
func (m *SessionManager) Issue(ctx context.Context, session *Session) (string, time.Time, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if err := m.store.Save(ctx, session, m.ttl); err != nil {
		return "", time.Time{}, err
	}

	expiresAt := time.Now().Add(m.ttl)
	claims := &sessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Resolve validates the cookie value and loads the backing session.
func (m *SessionManager) Resolve(ctx context.Context, cookieValue string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(cookieValue, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid session claims")
	}
	return m.store.Get(ctx, claims.SessionID)
}

// Update re-persists a mutated session without rotating its cookie.
func (m *SessionManager) Update(ctx context.Context, session *Session) error {
	return m.store.Save(ctx, session, m.ttl)
}

// Destroy removes the session record.
func (m *SessionManager) Destroy(ctx context.Context, session *Session) error {
	if session == nil {
		return nil
	}
	return m.store.Delete(ctx, session.ID)
}

// TTL exposes the configured session lifetime for cookie expiry.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}
