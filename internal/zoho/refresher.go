package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"zanalytics/pkg/logging"
)

// tokenEndpointPath is the OAuth token endpoint on the accounts server.
const tokenEndpointPath = "/oauth/v2/token"

// maxTokenResponseBytes bounds how much of a token response is read.
const maxTokenResponseBytes = 1 << 20

// Refresher exchanges the long-lived refresh token for short-lived access
// tokens at the Zoho accounts server and deposits them in the credential
// store. Concurrent refreshes are collapsed into a single upstream exchange,
// so callers that observe the same stale token never stampede the token
// endpoint.
type Refresher struct {
	store      *CredentialStore
	httpClient *http.Client

	// refreshGroup deduplicates concurrent token exchanges.
	refreshGroup singleflight.Group

	// mu guards the OAuth credentials, which can change at runtime when
	// the on-disk refresh token is rotated.
	mu           sync.RWMutex
	clientID     string
	clientSecret string
	refreshToken string
	tokenURL     string
}

// NewRefresher creates a refresher bound to the given credential store.
func NewRefresher(config Config, store *CredentialStore) *Refresher {
	return &Refresher{
		store:        store,
		httpClient:   &http.Client{Timeout: refreshTimeout},
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
		refreshToken: config.RefreshToken,
		tokenURL:     config.AccountsServer + tokenEndpointPath,
	}
}

// Token returns a usable access token, reusing the cached one when present
// and refreshing otherwise. Repeated calls with a warm cache perform no
// network activity.
func (r *Refresher) Token(ctx context.Context) (string, error) {
	if token := r.store.Get(); token != "" {
		return token, nil
	}
	return r.Refresh(ctx)
}

// Refresh obtains a fresh access token from the accounts server and stores
// it. Missing credentials fail immediately with a ConfigurationError before
// any network activity. On any exchange failure the store is left untouched.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	if err := r.checkConfigured(); err != nil {
		return "", err
	}

	// Deduplicate concurrent exchanges: every caller waiting on this key
	// receives the token from the single underlying request.
	result, err, _ := r.refreshGroup.Do("refresh", func() (interface{}, error) {
		// Double-check the store after winning the singleflight slot; a
		// refresh that completed while this caller was queued already
		// produced a usable token.
		if token := r.store.Get(); token != "" {
			return token, nil
		}

		token, err := r.exchange(ctx)
		if err != nil {
			return nil, err
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Rotate swaps in a new refresh token and drops the cached access token so
// the next call authenticates with the rotated credential.
func (r *Refresher) Rotate(refreshToken string) {
	r.mu.Lock()
	r.refreshToken = refreshToken
	r.mu.Unlock()

	r.store.Clear()
	logging.Info("Refresher", "Refresh token rotated (length %d)", len(refreshToken))
}

// checkConfigured verifies that all OAuth credentials are present.
func (r *Refresher) checkConfigured() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	if r.clientID == "" {
		missing = append(missing, "client_id")
	}
	if r.clientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if r.refreshToken == "" {
		missing = append(missing, "refresh_token")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// exchange performs the form-encoded POST against the token endpoint and
// stores the resulting access token.
func (r *Refresher) exchange(ctx context.Context) (string, error) {
	r.mu.RLock()
	form := url.Values{}
	form.Set("refresh_token", r.refreshToken)
	form.Set("client_id", r.clientID)
	form.Set("client_secret", r.clientSecret)
	form.Set("grant_type", "refresh_token")
	tokenURL := r.tokenURL
	r.mu.RUnlock()

	logging.Debug("Refresher", "Requesting access token from %s", tokenURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", &NetworkError{Op: "token refresh", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return "", &NetworkError{Op: "token refresh", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		logging.Warn("Refresher", "Token refresh rejected with status %d", resp.StatusCode)
		return "", &UpstreamAuthError{Status: resp.StatusCode, Body: truncateBody(body)}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.AccessToken == "" {
		logging.Warn("Refresher", "Token response carried no access token")
		return "", &UpstreamAuthError{Status: resp.StatusCode, Body: truncateBody(body)}
	}

	r.store.Set(payload.AccessToken)
	logging.Info("Refresher", "Obtained access token (length %d, expires_in %d)", len(payload.AccessToken), payload.ExpiresIn)
	return payload.AccessToken, nil
}
