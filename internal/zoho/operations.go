package zoho

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-querystring/query"
)

// viewsQuery carries pagination and search parameters for view listing.
type viewsQuery struct {
	Limit  int    `url:"limit"`
	Offset int    `url:"offset"`
	Search string `url:"search,omitempty"`
}

// exportQuery carries format and pagination parameters for data export.
type exportQuery struct {
	Format string `url:"format"`
	Limit  int    `url:"limit"`
	Offset int    `url:"offset"`
}

// ListWorkspaces returns the workspaces visible to the configured account,
// both owned and shared.
func (c *Client) ListWorkspaces(ctx context.Context) (map[string]interface{}, error) {
	return c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/restapi/v2/workspaces",
		timeout: readTimeout,
	})
}

// SearchViews lists views inside a workspace, optionally filtered upstream
// by a search keyword matched against view names.
func (c *Client) SearchViews(ctx context.Context, workspaceID, keyword string, limit, offset int) (map[string]interface{}, error) {
	if workspaceID == "" {
		return nil, &ValidationError{Field: "workspace_id", Reason: "must not be empty"}
	}
	limit, err := normalizeLimit(limit, viewsLimitDefault, viewsLimitMax)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, &ValidationError{Field: "offset", Reason: "must not be negative"}
	}

	values, err := query.Values(viewsQuery{Limit: limit, Offset: offset, Search: keyword})
	if err != nil {
		return nil, fmt.Errorf("failed to encode views query: %w", err)
	}
	return c.do(ctx, request{
		method:  http.MethodGet,
		path:    fmt.Sprintf("/restapi/v2/workspaces/%s/views", url.PathEscape(workspaceID)),
		query:   values,
		timeout: readTimeout,
	})
}

// ViewDetails fetches metadata for a single view. The Analytics API
// addresses views globally here, so no workspace appears in the path.
func (c *Client) ViewDetails(ctx context.Context, viewID string) (map[string]interface{}, error) {
	if viewID == "" {
		return nil, &ValidationError{Field: "view_id", Reason: "must not be empty"}
	}
	return c.do(ctx, request{
		method:  http.MethodGet,
		path:    fmt.Sprintf("/restapi/v2/views/%s", url.PathEscape(viewID)),
		timeout: readTimeout,
	})
}

// ExportView exports view rows as JSON. The view segment may be an id or a
// name; the Analytics API accepts both. The upstream payload is returned
// unmodified.
func (c *Client) ExportView(ctx context.Context, workspaceID, view string, limit, offset int) (map[string]interface{}, error) {
	if workspaceID == "" {
		return nil, &ValidationError{Field: "workspace_id", Reason: "must not be empty"}
	}
	if view == "" {
		return nil, &ValidationError{Field: "view", Reason: "must not be empty"}
	}
	limit, err := normalizeLimit(limit, exportLimitDefault, exportLimitMax)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, &ValidationError{Field: "offset", Reason: "must not be negative"}
	}

	values, err := query.Values(exportQuery{Format: "json", Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("failed to encode export query: %w", err)
	}
	return c.do(ctx, request{
		method:  http.MethodGet,
		path:    fmt.Sprintf("/restapi/v2/workspaces/%s/views/%s/data", url.PathEscape(workspaceID), url.PathEscape(view)),
		query:   values,
		timeout: exportTimeout,
	})
}

// Query runs a SQL SELECT against a workspace.
func (c *Client) Query(ctx context.Context, workspaceID, sql string) (map[string]interface{}, error) {
	if workspaceID == "" {
		return nil, &ValidationError{Field: "workspace_id", Reason: "must not be empty"}
	}
	if sql == "" {
		return nil, &ValidationError{Field: "sql", Reason: "must not be empty"}
	}
	return c.do(ctx, request{
		method:  http.MethodPost,
		path:    fmt.Sprintf("/restapi/v2/workspaces/%s/sql", url.PathEscape(workspaceID)),
		body:    map[string]string{"query": sql},
		timeout: exportTimeout,
	})
}

// normalizeLimit applies the default when limit is unset and enforces the
// inclusive bounds. Zero means the caller did not supply a value.
func normalizeLimit(limit, def, max int) (int, error) {
	if limit == 0 {
		return def, nil
	}
	if limit < 1 || limit > max {
		return 0, &ValidationError{Field: "limit", Reason: fmt.Sprintf("must be between 1 and %d", max)}
	}
	return limit, nil
}
