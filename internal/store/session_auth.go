package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/cgirard/profeval/internal/model"
)

// Instructor sessions expire a day after login.
const authSessionTTL = 24 * time.Hour

// CreateAuthSession issues a fresh opaque token for the user and records it
// with its expiry. The token is the session's primary key.
func (s *Store) CreateAuthSession(userID int64) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := time.Now().UTC()
	if _, err := s.db.Exec(
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		token, userID, now, now.Add(authSessionTTL),
	); err != nil {
		return "", fmt.Errorf("insert auth session: %w", err)
	}
	return token, nil
}

// GetAuthSession resolves a token to its live session. Both unknown and
// expired tokens yield (nil, nil); an expired row is removed on the way out.
func (s *Store) GetAuthSession(token string) (*model.AuthSession, error) {
	var sess model.AuthSession
	err := s.db.QueryRow(
		`SELECT id, user_id, created_at, expires_at FROM auth_sessions WHERE id = ? AND expires_at > ?`,
		token, time.Now().UTC(),
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	switch {
	case err == sql.ErrNoRows:
		_, _ = s.db.Exec(`DELETE FROM auth_sessions WHERE id = ? AND expires_at <= ?`, token, time.Now().UTC())
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &sess, nil
}

// DeleteAuthSession invalidates a token. Deleting an unknown token is not an error.
func (s *Store) DeleteAuthSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE id = ?`, token)
	return err
}

// CleanupExpiredSessions sweeps every expired session row. Run once at startup.
func (s *Store) CleanupExpiredSessions() error {
	_, err := s.db.Exec(`DELETE FROM auth_sessions WHERE expires_at <= ?`, time.Now().UTC())
	return err
}
