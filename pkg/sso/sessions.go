package sso

import (
	"sync"

	"golang.org/x/oauth2"
)

// Session is a completed login
type Session struct {
	Token       *oauth2.Token
	User        *User
	IDToken     string
	RedirectURI string
}

// SessionStore keeps completed logins across client re-construction, so a
// client created for the same issuer and client ID resumes the session
type SessionStore interface {
	Save(key string, session Session) error
	Load(key string) (Session, bool)
	Delete(key string) error
}

// MemorySessions is an in-memory SessionStore
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// NewMemorySessions creates a new store
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]Session)}
}

func (m *MemorySessions) Save(key string, session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = session
	return nil
}

func (m *MemorySessions) Load(key string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[key]
	return session, ok
}

func (m *MemorySessions) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// sessionKey identifies the sessions of one client at one issuer
func sessionKey(issuer, clientID string) string {
	return issuer + " " + clientID
}
