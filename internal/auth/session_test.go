package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	sessions map[string]*Session
}

func newMapStore() *mapStore {
	return &mapStore{sessions: map[string]*Session{}}
}

func (s *mapStore) Save(_ context.Context, session *Session, _ time.Duration) error {
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *mapStore) Get(_ context.Context, id string) (*Session, error) {
	if session, ok := s.sessions[id]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, ErrSessionNotFound
}

func (s *mapStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func TestSessionManager_IssueResolveRoundtrip(t *testing.T) {
	manager := NewSessionManager(newMapStore(), "secret-a", time.Hour)
	session := &Session{UserID: "user-1"}

	cookie, expires, err := manager.Issue(context.Background(), session)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	resolved, err := manager.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	assert.Equal(t, session.ID, resolved.ID)
	assert.Equal(t, "user-1", resolved.UserID)
}

func TestSessionManager_RejectsTamperedCookie(t *testing.T) {
	manager := NewSessionManager(newMapStore(), "secret-a", time.Hour)
	cookie, _, err := manager.Issue(context.Background(), &Session{UserID: "user-1"})
	require.NoError(t, err)

	_, err = manager.Resolve(context.Background(), cookie+"x")
	assert.Error(t, err)

	_, err = manager.Resolve(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestSessionManager_RejectsForeignSecret(t *testing.T) {
	store := newMapStore()
	issuer := NewSessionManager(store, "secret-a", time.Hour)
	verifier := NewSessionManager(store, "secret-b", time.Hour)

	cookie, _, err := issuer.Issue(context.Background(), &Session{UserID: "user-1"})
	require.NoError(t, err)

	_, err = verifier.Resolve(context.Background(), cookie)
	assert.Error(t, err)
}

func TestSessionManager_Destroy(t *testing.T) {
	manager := NewSessionManager(newMapStore(), "secret-a", time.Hour)
	session := &Session{UserID: "user-1"}
	cookie, _, err := manager.Issue(context.Background(), session)
	require.NoError(t, err)

	require.NoError(t, manager.Destroy(context.Background(), session))
	_, err = manager.Resolve(context.Background(), cookie)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionManager_UpdateKeepsCookie(t *testing.T) {
	manager := NewSessionManager(newMapStore(), "secret-a", time.Hour)
	session := &Session{}
	cookie, _, err := manager.Issue(context.Background(), session)
	require.NoError(t, err)

	session.PendingEmail = "new@example.com"
	require.NoError(t, manager.Update(context.Background(), session))

	resolved, err := manager.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", resolved.PendingEmail)
}
