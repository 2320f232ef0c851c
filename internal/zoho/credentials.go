package zoho

import (
	"sync"

	"zanalytics/pkg/logging"
)

// CredentialStore holds the current access token behind a mutex. Tokens are
// opaque strings; the store tracks no expiry because the client discovers
// staleness reactively through upstream authentication failures.
type CredentialStore struct {
	mu    sync.RWMutex
	token string
}

// NewCredentialStore creates an empty credential store.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

// Get returns the cached access token, or the empty string when none is held.
func (s *CredentialStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set replaces the cached access token.
func (s *CredentialStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	logging.Debug("CredentialStore", "Cached access token (length %d)", len(token))
}

// Clear drops the cached access token so the next call must re-authenticate.
func (s *CredentialStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	logging.Debug("CredentialStore", "Cleared cached access token")
}

// Has reports whether an access token is currently cached.
func (s *CredentialStore) Has() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}
