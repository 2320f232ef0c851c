package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"zanalytics/internal/authserver"
	"zanalytics/internal/zoho"
)

// fakeClient implements AnalyticsClient with overridable behavior per
// method. Unset methods succeed with a recognizable payload.
type fakeClient struct {
	listWorkspaces func(ctx context.Context) (map[string]interface{}, error)
	searchViews    func(ctx context.Context, workspaceID, keyword string, limit, offset int) (map[string]interface{}, error)
	viewDetails    func(ctx context.Context, viewID string) (map[string]interface{}, error)
	exportView     func(ctx context.Context, workspaceID, view string, limit, offset int) (map[string]interface{}, error)
	query          func(ctx context.Context, workspaceID, sql string) (map[string]interface{}, error)
	health         func() zoho.Health
}

func fakePayload(op string) map[string]interface{} {
	return map[string]interface{}{"op": op}
}

func (f *fakeClient) ListWorkspaces(ctx context.Context) (map[string]interface{}, error) {
	if f.listWorkspaces != nil {
		return f.listWorkspaces(ctx)
	}
	return fakePayload("workspaces"), nil
}

func (f *fakeClient) SearchViews(ctx context.Context, workspaceID, keyword string, limit, offset int) (map[string]interface{}, error) {
	if f.searchViews != nil {
		return f.searchViews(ctx, workspaceID, keyword, limit, offset)
	}
	return fakePayload("views"), nil
}

func (f *fakeClient) ViewDetails(ctx context.Context, viewID string) (map[string]interface{}, error) {
	if f.viewDetails != nil {
		return f.viewDetails(ctx, viewID)
	}
	return fakePayload("view_details"), nil
}

func (f *fakeClient) ExportView(ctx context.Context, workspaceID, view string, limit, offset int) (map[string]interface{}, error) {
	if f.exportView != nil {
		return f.exportView(ctx, workspaceID, view, limit, offset)
	}
	return fakePayload("export"), nil
}

func (f *fakeClient) Query(ctx context.Context, workspaceID, sql string) (map[string]interface{}, error) {
	if f.query != nil {
		return f.query(ctx, workspaceID, sql)
	}
	return fakePayload("query"), nil
}

func (f *fakeClient) Health() zoho.Health {
	if f.health != nil {
		return f.health()
	}
	return zoho.Health{Status: "ok", Mode: "oauth", TokenCached: true}
}

// testGateway bundles a gateway served over httptest with its auth server.
type testGateway struct {
	server *Server
	http   *httptest.Server
	auth   *authserver.Server
}

func newTestGateway(t *testing.T, client AnalyticsClient, apiKey string) *testGateway {
	t.Helper()

	auth := authserver.NewServer()
	t.Cleanup(auth.Stop)

	server := NewServer(Config{APIKey: apiKey}, client, auth)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &testGateway{server: server, http: ts, auth: auth}
}

func (g *testGateway) url(path string) string {
	return g.http.URL + path
}

// get performs a GET with optional header pairs.
func (g *testGateway) get(t *testing.T, path string, headers ...string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, g.url(path), nil)
	require.NoError(t, err)
	applyHeaders(req, headers)

	resp, err := g.http.Client().Do(req)
	require.NoError(t, err)
	return resp
}

// post sends a JSON body with optional header pairs.
func (g *testGateway) post(t *testing.T, path, body string, headers ...string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, g.url(path), strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	applyHeaders(req, headers)

	resp, err := g.http.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func applyHeaders(req *http.Request, pairs []string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		req.Header.Set(pairs[i], pairs[i+1])
	}
}

// decodeBody drains and decodes a JSON response body into a generic map.
func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	return body
}

// errorDetailOf digs the error object out of a REST failure body.
func errorDetailOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	detail, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "missing error detail in %v", body)
	return detail
}
