package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTokenStorageDir is the default directory for storing login tokens,
// relative to the user's home directory.
const DefaultTokenStorageDir = ".config/zanalytics/tokens"

// tokenExpiryBuffer is the margin applied when checking token validity, to
// absorb clock skew and the time a command takes to run.
const tokenExpiryBuffer = 60 * time.Second

// StoredToken is the on-disk representation of a login token.
//
// SECURITY: token files are written with 0600 permissions into a 0700
// directory, and token values are never logged.
type StoredToken struct {
	// AccessToken is the OAuth access token.
	AccessToken string `json:"access_token"`

	// RefreshToken is the OAuth refresh token (if available).
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`

	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`

	// Endpoint is the gateway URL this token authenticates to.
	Endpoint string `json:"endpoint"`

	// CreatedAt is when the token was stored.
	CreatedAt time.Time `json:"created_at"`
}

// TokenStore persists login tokens per gateway endpoint, one JSON file per
// endpoint keyed by a hash of its URL.
type TokenStore struct {
	mu         sync.Mutex
	storageDir string
}

// NewTokenStore creates a token store rooted at storageDir. An empty
// storageDir selects the default under the user's home directory. The
// directory is created owner-only.
func NewTokenStore(storageDir string) (*TokenStore, error) {
	if storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(homeDir, DefaultTokenStorageDir)
	}

	if err := os.MkdirAll(storageDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create token storage directory: %w", err)
	}

	return &TokenStore{storageDir: storageDir}, nil
}

// Store persists a token for the given endpoint.
func (s *TokenStore) Store(endpoint string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := &StoredToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		Endpoint:     endpoint,
		CreatedAt:    time.Now(),
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.tokenPath(endpoint), data, 0600); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	return nil
}

// Get retrieves the stored token for an endpoint. Returns nil when no token
// exists or the stored one has expired.
func (s *TokenStore) Get(endpoint string) *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.tokenPath(endpoint))
	if err != nil {
		return nil
	}

	var stored StoredToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil
	}
	if !stored.valid() {
		return nil
	}

	return &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}
}

// Delete removes the stored token for an endpoint. Deleting a token that
// does not exist is not an error.
func (s *TokenStore) Delete(endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.tokenPath(endpoint))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// valid reports whether the token is still usable. Tokens without an expiry
// are treated as valid.
func (t *StoredToken) valid() bool {
	if t.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(tokenExpiryBuffer).Before(t.Expiry)
}

// tokenPath maps an endpoint URL onto a filesystem-safe file name.
func (s *TokenStore) tokenPath(endpoint string) string {
	hash := sha256.Sum256([]byte(endpoint))
	return filepath.Join(s.storageDir, hex.EncodeToString(hash[:16])+".json")
}
