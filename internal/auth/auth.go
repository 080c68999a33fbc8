// Package auth authenticates requests: a fixed set of bcrypt-hashed users
// loaded from configuration, and sqlite-backed opaque session tokens
// minted on successful login. Grounded on original_source's
// pica_web/auth/mod.rs (a Backend of users keyed by name, checked against
// a credentials pair) and pica_web/handlers/auth.rs (the login/logout
// handlers), reshaped from axum-login's trait-based backend into a plain
// Go service since this module has no equivalent session-middleware
// crate in its dependency pack.
package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pica-gallery/pica/internal/config"
	"github.com/pica-gallery/pica/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// sessionTTL is how long an issued token remains valid; matches the
// original service's session cookie lifetime.
const sessionTTL = 30 * 24 * time.Hour

// Service authenticates users against a fixed, config-loaded credential
// list and manages their sessions.
type Service struct {
	users    map[string]string // name -> bcrypt hash
	sessions *store.SessionStore
}

// New builds a Service from the configured users.
func New(users []config.User, sessions *store.SessionStore) *Service {
	byName := make(map[string]string, len(users))
	for _, u := range users {
		byName[u.Name] = u.Hash
	}
	return &Service{users: byName, sessions: sessions}
}

// Authenticate checks a username/password pair against the configured
// credentials, returning false (not an error) on any mismatch — a wrong
// password is an expected outcome, not a failure of the service.
func (s *Service) Authenticate(username, password string) (ok bool, err error) {
	hash, known := s.users[username]
	if !known {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false, nil
		}
		return false, fmt.Errorf("auth: compare hash: %w", err)
	}
	return true, nil
}

// Login authenticates the credentials and, on success, mints a new
// session token for username.
func (s *Service) Login(username, password string) (token string, err error) {
	ok, err := s.Authenticate(username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token = uuid.NewString()
	if err := s.sessions.Create(token, username, time.Now().Add(sessionTTL)); err != nil {
		return "", err
	}
	return token, nil
}

// Logout invalidates token immediately.
func (s *Service) Logout(token string) error {
	return s.sessions.Delete(token)
}

// Verify resolves a bearer token to the username that owns it.
func (s *Service) Verify(token string) (username string, ok bool, err error) {
	return s.sessions.Lookup(token)
}

// ErrInvalidCredentials is returned by Login when the username/password
// pair does not match a configured user.
var ErrInvalidCredentials = fmt.Errorf("auth: invalid credentials")
