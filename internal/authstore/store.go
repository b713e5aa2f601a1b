// Package authstore holds the identity state the edge keeps for one
// session: the session ID, the forwarded credential cookie header, and
// the authenticated flag. It has an explicit lifecycle (Init on mount,
// Teardown on logout) and is passed by injection, never read as a global.
package authstore

import "sync"

type Store struct {
	mu            sync.RWMutex
	sessionID     string
	cookieHeader  string
	authenticated bool
}

func New() *Store {
	return &Store{}
}

// Init records the identity for an authenticated mount.
func (s *Store) Init(sessionID, cookieHeader string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = sessionID
	s.cookieHeader = cookieHeader
	s.authenticated = true
}

// Teardown clears all identity state synchronously, so any reader sees
// unauthenticated immediately after it returns.
func (s *Store) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = ""
	s.cookieHeader = ""
	s.authenticated = false
}

func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// CookieHeader returns the credential cookies forwarded on upstream calls.
func (s *Store) CookieHeader() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cookieHeader
}

// UpdateCookies replaces the stored credential cookies after a refresh.
func (s *Store) UpdateCookies(cookieHeader string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authenticated {
		s.cookieHeader = cookieHeader
	}
}
