package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrightonDube/bizpilot-session/internal/config"
	"github.com/BrightonDube/bizpilot-session/internal/domain"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLDays:   7,
		SessionTTLDays:        30,
	}
	m.Run()
}

// memoryRepo is an in-memory SessionRepository for tests.
type memoryRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.UserSession
	tokens   map[string]*domain.RefreshToken
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		sessions: make(map[string]*domain.UserSession),
		tokens:   make(map[string]*domain.RefreshToken),
	}
}

func (r *memoryRepo) CreateSession(userID int64, sessionID, deviceInfo, ipAddress string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.sessions[sessionID] = &domain.UserSession{
		UserID:       userID,
		SessionID:    sessionID,
		DeviceInfo:   deviceInfo,
		IPAddress:    ipAddress,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
		LastActivity: now,
		IsActive:     true,
	}
	return nil
}

func (r *memoryRepo) GetSessionByID(sessionID string) (*domain.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *memoryRepo) DeactivateSession(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.IsActive = false
	}
	return nil
}

func (r *memoryRepo) DeactivateAllUserSessions(userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID {
			s.IsActive = false
		}
	}
	return nil
}

func (r *memoryRepo) UpdateSessionActivity(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return errors.New("session not found")
	}
	s.LastActivity = time.Now()
	return nil
}

func (r *memoryRepo) StoreRefreshToken(tokenID string, userID int64, sessionID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenID] = &domain.RefreshToken{
		TokenID:   tokenID,
		UserID:    userID,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (r *memoryRepo) GetRefreshToken(tokenID string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenID]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (r *memoryRepo) RevokeRefreshToken(tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[tokenID]; ok {
		t.Revoked = true
	}
	return nil
}

func (r *memoryRepo) RevokeAllUserRefreshTokens(userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

// memoryCache is an in-memory CacheRepository; expirations are ignored.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case string:
		c.data[key] = v
	case []byte:
		c.data[key] = string(v)
	default:
		c.data[key] = fmt.Sprintf("%v", v)
	}
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return v, nil
}

func (c *memoryCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func usernameLookup(username string) func(int64) (string, error) {
	return func(int64) (string, error) { return username, nil }
}

func TestCreateSessionAndValidateToken(t *testing.T) {
	svc := NewAuthService(newMemoryRepo(), newMemoryCache())

	session, err := svc.CreateSession(7, "Chrome on macOS", "203.0.113.9")
	require.NoError(t, err)
	require.NotEmpty(t, session.SessionID)
	assert.True(t, session.IsActive)

	access, _, err := svc.GenerateTokenPair(7, "pat", session.SessionID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, session.SessionID, claims.SessionID)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newMemoryRepo(), nil)

	_, err := svc.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}

func TestRefreshRotationRevokesOldToken(t *testing.T) {
	svc := NewAuthService(newMemoryRepo(), newMemoryCache())

	session, err := svc.CreateSession(7, "", "")
	require.NoError(t, err)
	_, refresh, err := svc.GenerateTokenPair(7, "pat", session.SessionID)
	require.NoError(t, err)

	newAccess, newRefresh, userID, err := svc.ValidateAndRefresh(refresh, usernameLookup("pat"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
	assert.NotEmpty(t, newAccess)
	assert.NotEqual(t, refresh, newRefresh)

	// Replaying the consumed token must fail.
	_, _, _, err = svc.ValidateAndRefresh(refresh, usernameLookup("pat"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoked")

	// The rotated token keeps working.
	_, _, _, err = svc.ValidateAndRefresh(newRefresh, usernameLookup("pat"))
	assert.NoError(t, err)
}

func TestRefreshFailsAfterSessionInvalidation(t *testing.T) {
	svc := NewAuthService(newMemoryRepo(), newMemoryCache())

	session, err := svc.CreateSession(7, "", "")
	require.NoError(t, err)
	_, refresh, err := svc.GenerateTokenPair(7, "pat", session.SessionID)
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateSession(session.SessionID))

	_, _, _, err = svc.ValidateAndRefresh(refresh, usernameLookup("pat"))
	assert.Error(t, err)
}

func TestInvalidateSessionBlocksAccessToken(t *testing.T) {
	svc := NewAuthService(newMemoryRepo(), newMemoryCache())

	session, err := svc.CreateSession(7, "", "")
	require.NoError(t, err)
	access, _, err := svc.GenerateTokenPair(7, "pat", session.SessionID)
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateSession(session.SessionID))

	// The JWT is still signature-valid but the session is blocklisted and
	// the stateful row is inactive.
	_, err = svc.ValidateToken(access)
	assert.Error(t, err)
}

func TestInvalidateSessionWithoutCacheFallsBackToRow(t *testing.T) {
	svc := NewAuthService(newMemoryRepo(), nil)

	session, err := svc.CreateSession(7, "", "")
	require.NoError(t, err)
	access, _, err := svc.GenerateTokenPair(7, "pat", session.SessionID)
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateSession(session.SessionID))

	_, err = svc.ValidateToken(access)
	assert.Error(t, err, "inactive session row alone must reject the token")
}

func TestInvalidateAllUserSessions(t *testing.T) {
	svc := NewAuthService(newMemoryRepo(), newMemoryCache())

	s1, err := svc.CreateSession(7, "", "")
	require.NoError(t, err)
	s2, err := svc.CreateSession(7, "", "")
	require.NoError(t, err)
	_, r1, err := svc.GenerateTokenPair(7, "pat", s1.SessionID)
	require.NoError(t, err)
	_, r2, err := svc.GenerateTokenPair(7, "pat", s2.SessionID)
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateAllUserSessions(7))

	_, _, _, err = svc.ValidateAndRefresh(r1, usernameLookup("pat"))
	assert.Error(t, err)
	_, _, _, err = svc.ValidateAndRefresh(r2, usernameLookup("pat"))
	assert.Error(t, err)
}

func TestUpdateSessionActivityBumpsLastActivity(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewAuthService(repo, nil)

	session, err := svc.CreateSession(7, "", "")
	require.NoError(t, err)

	before, err := repo.GetSessionByID(session.SessionID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.UpdateSessionActivity(session.SessionID))

	after, err := repo.GetSessionByID(session.SessionID)
	require.NoError(t, err)
	assert.True(t, after.LastActivity.After(before.LastActivity))
}

func TestBlocklistSessionRoundTrip(t *testing.T) {
	svc := NewAuthService(newMemoryRepo(), newMemoryCache())

	assert.False(t, svc.IsSessionBlocked("sess-1"))
	require.NoError(t, svc.BlocklistSession("sess-1", time.Hour))
	assert.True(t, svc.IsSessionBlocked("sess-1"))
}
