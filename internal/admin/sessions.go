// Package admin provides the management login and the endpoints behind it
package admin

import (
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/rvahub/localspot/internal/idgen"
)

// ErrInvalidCredentials is returned for a bad username or password
var ErrInvalidCredentials = errors.New("invalid credentials")

// SessionTTL is how long an admin session lasts
const SessionTTL = 24 * time.Hour

// SessionManager issues and validates admin session tokens. Tokens live
// in memory; restarting the server logs every admin out.
type SessionManager struct {
	username string
	password string

	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

// NewSessionManager creates a session manager for one admin credential
func NewSessionManager(username, password string) *SessionManager {
	return &SessionManager{
		username: username,
		password: password,
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Login checks the credentials in constant time and issues a token
func (m *SessionManager) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	token := idgen.Hex(32)
	m.mu.Lock()
	m.sessions[token] = m.now().Add(SessionTTL)
	m.mu.Unlock()
	return token, nil
}

// Validate reports whether the token belongs to a live session.
// Expired sessions are removed on access.
func (m *SessionManager) Validate(token string) bool {
	if token == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	expires, ok := m.sessions[token]
	if !ok {
		return false
	}
	if m.now().After(expires) {
		delete(m.sessions, token)
		return false
	}
	return true
}

// Logout revokes the token
func (m *SessionManager) Logout(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}
