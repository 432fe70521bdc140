package reset

import "sync"

// TokenStore holds the continuation token threading the reset steps.
// It lives in memory for the lifetime of one session only.
type TokenStore struct {
	mu    sync.Mutex
	token string
}

// Replace overwrites the held token.
func (s *TokenStore) Replace(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

func (s *TokenStore) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token, s.token != ""
}

func (s *TokenStore) Clear() {
	s.Replace("")
}
