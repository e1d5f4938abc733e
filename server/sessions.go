package server

import (
	"net/http"
	"strings"
	"sync"
)

// Sessions resolves an incoming request to a user identity.
// The server does not issue or verify credentials itself; any scheme
// that can map a request to a user id can plug in here.
type Sessions interface {
	// UserID returns the authenticated user id for the request,
	// or false when the request carries no valid identity.
	UserID(r *http.Request) (string, bool)
}

// TokenSessions maps bearer tokens to user ids. It is suitable for
// local use and tests.
type TokenSessions struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewTokenSessions creates an empty token table.
func NewTokenSessions() *TokenSessions {
	return &TokenSessions{tokens: make(map[string]string)}
}

// Add registers a token for the given user id.
func (s *TokenSessions) Add(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
}

// UserID resolves the Authorization bearer token, if any.
func (s *TokenSessions) UserID(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.tokens[token]
	return userID, ok
}
