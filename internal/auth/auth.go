// internal/auth/auth.go
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"

	"recordstorebot/internal/data"
	"recordstorebot/internal/logger"
)

const hashSalt = "recordstorebot-session-salt-v1"

// Manager authenticates operators against the shared store password and
// tracks their sessions. The map is strictly a cache in front of the
// operator_sessions table: expiry is checked on every read, and a cache miss
// falls through to the table so sessions survive a process restart.
type Manager struct {
	mu       sync.Mutex
	cache    map[int64]time.Time // user_id -> expiry
	sessions *data.SessionRepository
	password string
	ttl      time.Duration
}

func NewManager(sessions *data.SessionRepository, password string, ttl time.Duration) *Manager {
	return &Manager{
		cache:    make(map[int64]time.Time),
		sessions: sessions,
		password: password,
		ttl:      ttl,
	}
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password + hashSalt))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword checks an operator's password attempt.
func (m *Manager) VerifyPassword(attempt string) bool {
	expected := hashPassword(m.password)
	got := hashPassword(attempt)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// Login verifies the password and, on success, opens a session for the user.
func (m *Manager) Login(userID int64, username, firstName, attempt string) (bool, error) {
	if !m.VerifyPassword(attempt) {
		logger.LogWarn("Failed login attempt for user %d", userID)
		return false, nil
	}

	now := time.Now()
	expiry := now.Add(m.ttl)

	session := data.OperatorSession{
		UserID:          userID,
		Username:        username,
		FirstName:       firstName,
		AuthenticatedAt: now,
		ExpiresAt:       expiry,
		LastActivity:    now,
	}
	if err := m.sessions.Upsert(session); err != nil {
		return false, err
	}

	m.mu.Lock()
	m.cache[userID] = expiry
	m.mu.Unlock()

	logger.LogInfo("Operator %d authenticated, session valid until %s", userID, expiry.Format(time.RFC3339))
	return true, nil
}

// IsAuthenticated reports whether the user holds a live session. The cache
// answers first; on a miss or a stale entry the durable store decides and
// repopulates the cache.
func (m *Manager) IsAuthenticated(userID int64) bool {
	now := time.Now()

	m.mu.Lock()
	expiry, ok := m.cache[userID]
	if ok && now.Before(expiry) {
		m.mu.Unlock()
		m.touch(userID, now)
		return true
	}
	if ok {
		delete(m.cache, userID)
	}
	m.mu.Unlock()

	session, err := m.sessions.Get(userID)
	if err != nil {
		logger.LogError("Session lookup failed for user %d: %v", userID, err)
		return false
	}
	if session == nil || !now.Before(session.ExpiresAt) {
		return false
	}

	m.mu.Lock()
	m.cache[userID] = session.ExpiresAt
	m.mu.Unlock()

	m.touch(userID, now)
	return true
}

func (m *Manager) touch(userID int64, at time.Time) {
	if err := m.sessions.TouchActivity(userID, at); err != nil {
		logger.LogWarn("Failed to update last activity for user %d: %v", userID, err)
	}
}

// Logout closes the user's session in both the cache and the store.
func (m *Manager) Logout(userID int64) error {
	m.mu.Lock()
	delete(m.cache, userID)
	m.mu.Unlock()

	return m.sessions.Delete(userID)
}

// CleanExpiredSessions periodically drops expired sessions from the cache and
// the durable store. Run as a background goroutine.
func (m *Manager) CleanExpiredSessions(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		m.mu.Lock()
		for userID, expiry := range m.cache {
			if now.After(expiry) {
				delete(m.cache, userID)
			}
		}
		m.mu.Unlock()

		removed, err := m.sessions.DeleteExpired(now)
		if err != nil {
			logger.LogError("Expired session cleanup failed: %v", err)
			continue
		}
		if removed > 0 {
			logger.LogInfo("Removed %d expired operator sessions", removed)
		}
	}
}
