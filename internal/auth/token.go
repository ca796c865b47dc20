package auth

import (
	"sync"
	"time"
)

// Token is the active Zoho token pair. It lives in process memory only and
// is lost on restart; a restart needs a fresh authorization or a refresh
// token supplied via configuration.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenStore holds the current Token behind a mutex so a refresh in flight
// never exposes a torn token to concurrent readers.
type TokenStore struct {
	mu    sync.Mutex
	token Token
}

// NewTokenStore returns a store seeded with an optional bootstrap refresh
// token from configuration.
func NewTokenStore(refreshToken string) *TokenStore {
	return &TokenStore{token: Token{RefreshToken: refreshToken}}
}

// Get returns a copy of the current token.
func (s *TokenStore) Get() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Set replaces the stored token wholesale. An empty refresh token in the
// replacement keeps the previous one, since providers omit refresh_token on
// refresh-grant responses.
func (s *TokenStore) Set(t Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.RefreshToken == "" {
		t.RefreshToken = s.token.RefreshToken
	}
	s.token = t
}
