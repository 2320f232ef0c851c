package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// clientTimeout bounds every gateway request issued by the CLI. Query and
// export calls proxy to Zoho, so this mirrors the gateway's own slowest
// upstream budget.
const clientTimeout = 2 * time.Minute

// ClientOptions configures a gateway client.
type ClientOptions struct {
	// Endpoint is the base URL of a running gateway.
	Endpoint string

	// APIKey is the static X-API-Key credential. When set it takes
	// precedence over any stored login token.
	APIKey string

	// Quiet suppresses progress indicators.
	Quiet bool
}

// Client calls the REST surface of a running gateway. Credentials are
// resolved once at construction: an explicit API key wins, otherwise a token
// persisted by a previous login is attached.
type Client struct {
	options ClientOptions
	rest    *resty.Client
	bearer  string
}

// NewClient creates a gateway client for the given options.
func NewClient(options ClientOptions) *Client {
	options.Endpoint = strings.TrimRight(options.Endpoint, "/")

	rest := resty.NewWithClient(&http.Client{Timeout: clientTimeout})
	rest.SetBaseURL(options.Endpoint)
	rest.SetHeader("Accept", "application/json")

	client := &Client{options: options, rest: rest}

	if options.APIKey == "" {
		if store, err := NewTokenStore(""); err == nil {
			if token := store.Get(options.Endpoint); token != nil {
				client.bearer = token.AccessToken
			}
		}
	}

	return client
}

// Endpoint returns the gateway base URL the client talks to.
func (c *Client) Endpoint() string {
	return c.options.Endpoint
}

// Connect verifies the gateway is reachable. It shows a progress spinner
// unless quiet mode is enabled.
func (c *Client) Connect(ctx context.Context) error {
	return WithSpinner(c.options.Quiet, "Connecting to gateway...", "Failed to connect to gateway", func() error {
		_, err := c.Health(ctx)
		return err
	})
}

// Health fetches the gateway health snapshot. The endpoint requires no
// credentials, which makes it the reachability probe.
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	return c.get(ctx, "/health", nil)
}

// Workspaces lists the workspaces visible to the configured Zoho account.
func (c *Client) Workspaces(ctx context.Context) (map[string]interface{}, error) {
	return c.get(ctx, "/workspaces_v2", nil)
}

// Views searches views in a workspace. Zero limit and offset defer to the
// gateway defaults.
func (c *Client) Views(ctx context.Context, workspaceID, keyword string, limit, offset int) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("workspace_id", workspaceID)
	if keyword != "" {
		params.Set("q", keyword)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	return c.get(ctx, "/views_v2", params)
}

// ViewDetails fetches the metadata of a single view.
func (c *Client) ViewDetails(ctx context.Context, workspaceID, viewID string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("workspace_id", workspaceID)
	params.Set("view_id", viewID)
	return c.get(ctx, "/view_details_v2", params)
}

// ExportView exports rows from a view. Zero limit and offset defer to the
// gateway defaults.
func (c *Client) ExportView(ctx context.Context, workspaceID, view string, limit, offset int) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"workspace_id": workspaceID,
		"view":         view,
	}
	if limit > 0 {
		body["limit"] = limit
	}
	if offset > 0 {
		body["offset"] = offset
	}
	return c.post(ctx, "/export_view_v2", body)
}

// Query runs a SQL query against a workspace.
func (c *Client) Query(ctx context.Context, workspaceID, sql string) (map[string]interface{}, error) {
	return c.post(ctx, "/query_v2", map[string]interface{}{
		"workspace_id": workspaceID,
		"sql":          sql,
	})
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (map[string]interface{}, error) {
	req := c.rest.R().SetContext(ctx)
	c.authorize(req)
	if params != nil {
		req.SetQueryParamsFromValues(params)
	}

	resp, err := req.Get(path)
	return c.decode(resp, err)
}

func (c *Client) post(ctx context.Context, path string, body map[string]interface{}) (map[string]interface{}, error) {
	req := c.rest.R().SetContext(ctx)
	c.authorize(req)
	req.SetHeader("Content-Type", "application/json")
	req.SetBody(body)

	resp, err := req.Post(path)
	return c.decode(resp, err)
}

// authorize attaches credentials to a request. The API key wins over a
// stored bearer token; with neither set the request goes out bare, which
// works against a gateway with key auth disabled.
func (c *Client) authorize(req *resty.Request) {
	if c.options.APIKey != "" {
		req.SetHeader("X-API-Key", c.options.APIKey)
		return
	}
	if c.bearer != "" {
		req.SetAuthToken(c.bearer)
	}
}

func (c *Client) decode(resp *resty.Response, err error) (map[string]interface{}, error) {
	if err != nil {
		return nil, &ConnectionError{Endpoint: c.options.Endpoint, Reason: err}
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, &AuthRequiredError{Endpoint: c.options.Endpoint}
	}
	if resp.IsError() {
		return nil, decodeRequestError(resp)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("invalid response from gateway: %w", err)
	}
	return payload, nil
}

// decodeRequestError maps a non-2xx gateway response onto a RequestError.
// Responses that do not carry the gateway's error body degrade to the raw
// status.
func decodeRequestError(resp *resty.Response) error {
	var body struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
			Status  int    `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Error.Kind == "" {
		return &RequestError{
			Kind:    "http",
			Message: fmt.Sprintf("gateway returned %s", resp.Status()),
			Status:  resp.StatusCode(),
		}
	}

	return &RequestError{
		Kind:     body.Error.Kind,
		Message:  body.Error.Message,
		Status:   resp.StatusCode(),
		Upstream: body.Error.Status,
	}
}
