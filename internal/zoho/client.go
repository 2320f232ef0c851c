package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"zanalytics/pkg/logging"
)

// maxConns bounds the connection pool toward the Analytics API.
const maxConns = 10

// invalidTokenMarkers identify 403 responses that are authentication
// failures in disguise. Zoho Analytics reports expired or revoked tokens
// with 403 and one of these fragments in the body.
var invalidTokenMarkers = []string{
	"invalid_oauthtoken",
	"invalid oauthtoken",
	"invalid_token",
	"invalid token",
}

// Client is the authenticated executor for the Zoho Analytics REST API v2.
// It owns the credential store and refresher and transparently recovers from
// stale access tokens: an authentication failure clears the cached token,
// refreshes, and retries the request exactly once. Non-authentication
// failures are never retried.
type Client struct {
	config    Config
	store     *CredentialStore
	refresher *Refresher
	rest      *resty.Client
}

// NewClient creates an Analytics client from the given configuration.
func NewClient(config Config) *Client {
	store := NewCredentialStore()
	rest := resty.NewWithClient(&http.Client{
		Timeout: exportTimeout,
		Transport: &http.Transport{
			MaxConnsPerHost:     maxConns,
			MaxIdleConnsPerHost: maxConns,
		},
	})
	rest.SetBaseURL(config.AnalyticsServer)
	rest.SetHeader("Accept", "application/json")

	return &Client{
		config:    config,
		store:     store,
		refresher: NewRefresher(config, store),
		rest:      rest,
	}
}

// RotateRefreshToken installs a new refresh token and invalidates the cached
// access token. Called by the credential watcher when the on-disk token file
// changes.
func (c *Client) RotateRefreshToken(token string) {
	c.refresher.Rotate(token)
}

// do acquires a token, executes the request, and recovers from at most one
// authentication failure by refreshing and retrying.
func (c *Client) do(ctx context.Context, req request) (map[string]interface{}, error) {
	op := fmt.Sprintf("%s %s", req.method, req.path)

	token, err := c.refresher.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.execute(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if isAuthFailure(resp.StatusCode(), resp.Body()) {
		logging.Info("Zoho", "Authentication failure on %s (status %d), refreshing token and retrying once", op, resp.StatusCode())
		c.store.Clear()

		token, err = c.refresher.Refresh(ctx)
		if err != nil {
			return nil, &AuthExhaustedError{Op: op, Err: err}
		}

		resp, err = c.execute(ctx, req, token)
		if err != nil {
			return nil, err
		}
		if isAuthFailure(resp.StatusCode(), resp.Body()) {
			return nil, &AuthExhaustedError{Op: op, Status: resp.StatusCode(), Body: truncateBody(resp.Body())}
		}
	}

	if resp.IsError() {
		return nil, &UpstreamRequestError{Status: resp.StatusCode(), Body: truncateBody(resp.Body())}
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		logging.Warn("Zoho", "Upstream returned undecodable body for %s: %v", op, err)
		return nil, &UpstreamRequestError{Status: resp.StatusCode(), Body: truncateBody(resp.Body())}
	}
	return result, nil
}

// execute performs a single attempt with the given access token. Each
// attempt gets its own deadline from the request descriptor.
func (c *Client) execute(ctx context.Context, req request, token string) (*resty.Response, error) {
	if req.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.timeout)
		defer cancel()
	}

	r := c.rest.NewRequest().
		SetContext(ctx).
		SetHeader("Authorization", "Zoho-oauthtoken "+token)
	if c.config.OrgID != "" {
		r.SetHeader("ZANALYTICS-ORGID", c.config.OrgID)
	}
	if len(req.query) > 0 {
		r.SetQueryParamsFromValues(req.query)
	}
	if req.body != nil {
		r.SetBody(req.body)
	}

	var (
		resp *resty.Response
		err  error
	)
	switch req.method {
	case http.MethodPost:
		resp, err = r.Post(req.path)
	default:
		resp, err = r.Get(req.path)
	}
	if err != nil {
		return nil, &NetworkError{Op: fmt.Sprintf("%s %s", req.method, req.path), Err: err}
	}
	return resp, nil
}

// isAuthFailure reports whether an upstream response means the access token
// was rejected: a 401, or a 403 whose body carries an invalid token marker.
func isAuthFailure(status int, body []byte) bool {
	if status == http.StatusUnauthorized {
		return true
	}
	if status != http.StatusForbidden {
		return false
	}
	lower := strings.ToLower(string(body))
	for _, marker := range invalidTokenMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
