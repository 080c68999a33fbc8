package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionStore persists opaque bearer tokens issued at login. Tokens are
// sqlite rows, not signed/stateless, so a logout or an expiry sweep takes
// effect immediately everywhere.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(s *Store) *SessionStore {
	return &SessionStore{db: s.db}
}

// Create stores a new session token for user, expiring at expiresAt.
func (s *SessionStore) Create(token, user string, expiresAt time.Time) error {
	_, err := s.db.Exec(`INSERT INTO session (id, user, expires_at) VALUES (?, ?, ?)`,
		token, user, expiresAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("session: create: %w", err)
	}
	return nil
}

// Lookup returns the user owning token, or ok=false if the token is absent
// or expired.
func (s *SessionStore) Lookup(token string) (user string, ok bool, err error) {
	var expiresAt int64
	row := s.db.QueryRow(`SELECT user, expires_at FROM session WHERE id = ?`, token)
	if err := row.Scan(&user, &expiresAt); err == sql.ErrNoRows {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("session: lookup: %w", err)
	}

	if time.Unix(expiresAt, 0).Before(time.Now()) {
		return "", false, nil
	}
	return user, true, nil
}

// Delete removes a session, used on logout.
func (s *SessionStore) Delete(token string) error {
	_, err := s.db.Exec(`DELETE FROM session WHERE id = ?`, token)
	if err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// Sweep removes every expired session. Supplemented from
// original_source (session rows were never allowed to accumulate
// unbounded): run periodically from a background goroutine in cmd/picad.
func (s *SessionStore) Sweep() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM session WHERE expires_at < ?`, time.Now().UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("session: sweep: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
