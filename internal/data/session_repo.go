package data

import (
	"database/sql"
	"fmt"
	"time"
)

// =============================================================================
// OPERATOR SESSION REPOSITORY
// =============================================================================

// SessionRepository persists operator authentication sessions. The in-memory
// cache in internal/auth sits in front of this table; the table is the source
// of truth.
type SessionRepository struct{}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

// Upsert writes one session row, replacing any previous session for the user.
func (r *SessionRepository) Upsert(session OperatorSession) error {
	const stmt = `
		INSERT OR REPLACE INTO operator_sessions
			(user_id, username, first_name, authenticated_at, expires_at, last_activity)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := ExecDB(stmt,
		session.UserID, session.Username, session.FirstName,
		formatTime(session.AuthenticatedAt), formatTime(session.ExpiresAt), formatTime(session.LastActivity),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert operator session: %w", err)
	}
	return nil
}

// Get returns the session for a user, or nil if none exists.
func (r *SessionRepository) Get(userID int64) (*OperatorSession, error) {
	const stmt = `
		SELECT user_id, username, first_name, authenticated_at, expires_at, last_activity
		FROM operator_sessions
		WHERE user_id = ?`

	var (
		session         OperatorSession
		authenticatedAt string
		expiresAt       string
		lastActivity    string
	)

	err := QueryRowDB(stmt, userID).Scan(&session.UserID, &session.Username, &session.FirstName,
		&authenticatedAt, &expiresAt, &lastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator session: %w", err)
	}

	if session.AuthenticatedAt, err = parseTime(authenticatedAt); err != nil {
		return nil, err
	}
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if session.LastActivity, err = parseTime(lastActivity); err != nil {
		return nil, err
	}

	return &session, nil
}

// TouchActivity updates the user's last-activity timestamp.
func (r *SessionRepository) TouchActivity(userID int64, at time.Time) error {
	_, err := ExecDB(`UPDATE operator_sessions SET last_activity = ? WHERE user_id = ?`,
		formatTime(at), userID)
	if err != nil {
		return fmt.Errorf("failed to touch operator session: %w", err)
	}
	return nil
}

// Delete removes a user's session.
func (r *SessionRepository) Delete(userID int64) error {
	if _, err := ExecDB(`DELETE FROM operator_sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete operator session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session past its expiry.
func (r *SessionRepository) DeleteExpired(now time.Time) (int, error) {
	result, err := ExecDB(`DELETE FROM operator_sessions WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired operator sessions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
