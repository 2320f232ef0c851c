package authserver

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"zanalytics/pkg/logging"
)

// Lifetimes for credentials minted by the authorization server.
const (
	codeLifetime         = 2 * time.Minute
	accessTokenLifetime  = time.Hour
	refreshTokenLifetime = 30 * 24 * time.Hour
)

// cleanupInterval is how often expired credentials are swept from the store.
const cleanupInterval = 5 * time.Minute

// codeEntropyBytes and tokenEntropyBytes size the random material behind
// minted credentials before URL-safe encoding.
const (
	codeEntropyBytes  = 24
	tokenEntropyBytes = 32
)

// authCode records the binding of an authorization code to the client that
// requested it.
type authCode struct {
	clientID    string
	redirectURI string
	expiresAt   time.Time
}

// TokenStore provides thread-safe in-memory storage for the authorization
// codes, access tokens, and refresh tokens minted by the authorization
// server.
type TokenStore struct {
	mu            sync.RWMutex
	codes         map[string]*authCode
	accessTokens  map[string]time.Time
	refreshTokens map[string]time.Time

	stopCleanup chan struct{}
}

// NewTokenStore creates a new in-memory token store.
// It starts a background goroutine for periodic cleanup of expired entries.
func NewTokenStore() *TokenStore {
	ts := &TokenStore{
		codes:         make(map[string]*authCode),
		accessTokens:  make(map[string]time.Time),
		refreshTokens: make(map[string]time.Time),
		stopCleanup:   make(chan struct{}),
	}

	go ts.cleanupLoop()

	return ts
}

// IssueCode mints an authorization code bound to the given client and
// redirect URI.
func (ts *TokenStore) IssueCode(clientID, redirectURI string) (string, error) {
	code, err := newToken(codeEntropyBytes)
	if err != nil {
		return "", err
	}

	ts.mu.Lock()
	ts.codes[code] = &authCode{
		clientID:    clientID,
		redirectURI: redirectURI,
		expiresAt:   time.Now().Add(codeLifetime),
	}
	ts.mu.Unlock()

	logging.Debug("AuthServer", "Issued authorization code for client %q", clientID)
	return code, nil
}

// ConsumeCode redeems an authorization code and returns the client it was
// issued to. Codes are single use: the entry is removed even when it has
// already expired, so a replayed code never succeeds.
func (ts *TokenStore) ConsumeCode(code string) (string, bool) {
	ts.mu.Lock()
	record, exists := ts.codes[code]
	if exists {
		delete(ts.codes, code)
	}
	ts.mu.Unlock()

	if !exists {
		return "", false
	}
	if time.Now().After(record.expiresAt) {
		logging.Debug("AuthServer", "Rejected expired authorization code for client %q", record.clientID)
		return "", false
	}

	return record.clientID, true
}

// IssueAccessToken mints a Bearer access token valid for one hour.
func (ts *TokenStore) IssueAccessToken() (string, error) {
	token, err := newToken(tokenEntropyBytes)
	if err != nil {
		return "", err
	}

	ts.mu.Lock()
	ts.accessTokens[token] = time.Now().Add(accessTokenLifetime)
	ts.mu.Unlock()

	return token, nil
}

// IssueRefreshToken mints a refresh token valid for thirty days.
func (ts *TokenStore) IssueRefreshToken() (string, error) {
	token, err := newToken(tokenEntropyBytes)
	if err != nil {
		return "", err
	}

	ts.mu.Lock()
	ts.refreshTokens[token] = time.Now().Add(refreshTokenLifetime)
	ts.mu.Unlock()

	return token, nil
}

// ValidateAccessToken reports whether the token was issued by this store and
// has not expired.
func (ts *TokenStore) ValidateAccessToken(token string) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	expiresAt, exists := ts.accessTokens[token]
	return exists && time.Now().Before(expiresAt)
}

// ValidateRefreshToken reports whether the refresh token was issued by this
// store and has not expired. Refresh tokens are reusable until they expire.
func (ts *TokenStore) ValidateRefreshToken(token string) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	expiresAt, exists := ts.refreshTokens[token]
	return exists && time.Now().Before(expiresAt)
}

// Stop stops the background cleanup goroutine.
func (ts *TokenStore) Stop() {
	close(ts.stopCleanup)
}

// cleanupLoop periodically removes expired credentials from the store.
func (ts *TokenStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ts.cleanup()
		case <-ts.stopCleanup:
			return
		}
	}
}

// cleanup removes all expired credentials from the store.
func (ts *TokenStore) cleanup() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now()
	count := 0
	for code, record := range ts.codes {
		if now.After(record.expiresAt) {
			delete(ts.codes, code)
			count++
		}
	}
	for token, expiresAt := range ts.accessTokens {
		if now.After(expiresAt) {
			delete(ts.accessTokens, token)
			count++
		}
	}
	for token, expiresAt := range ts.refreshTokens {
		if now.After(expiresAt) {
			delete(ts.refreshTokens, token)
			count++
		}
	}

	if count > 0 {
		logging.Debug("AuthServer", "Cleaned up %d expired credentials", count)
	}
}

// newToken returns a URL-safe random string built from n bytes of entropy.
func newToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
