package zoho

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// testClientConfig builds a complete client configuration pointed at the
// given test servers.
func testClientConfig(analyticsURL, accountsURL string) Config {
	return Config{
		ClientID:        "test-client-id",
		ClientSecret:    "test-client-secret",
		RefreshToken:    "test-refresh-token",
		OrgID:           "700001",
		AccountsServer:  accountsURL,
		AnalyticsServer: analyticsURL,
		DataDir:         "/tmp",
	}
}

// newAccountsStub serves the token endpoint, minting the given access token
// on every exchange.
func newAccountsStub(token string, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": token,
			"expires_in":   3600,
		})
	}))
}

func TestClient_RecoversFromStaleToken(t *testing.T) {
	var apiCalls, refreshCalls int32

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		if r.Header.Get("Authorization") != "Zoho-oauthtoken fresh-token" {
			http.Error(w, `{"summary":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"workspaces": []map[string]interface{}{{"workspaceName": "Sales"}},
		})
	}))
	defer api.Close()

	accounts := newAccountsStub("fresh-token", &refreshCalls)
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))
	client.store.Set("stale-token")

	result, err := client.ListWorkspaces(context.Background())
	if err != nil {
		t.Fatalf("ListWorkspaces failed: %v", err)
	}
	if _, ok := result["workspaces"]; !ok {
		t.Errorf("Expected workspaces in result, got %v", result)
	}

	// One failed attempt, one refresh, one successful retry
	if n := atomic.LoadInt32(&apiCalls); n != 2 {
		t.Errorf("Expected 2 API calls, got %d", n)
	}
	if n := atomic.LoadInt32(&refreshCalls); n != 1 {
		t.Errorf("Expected 1 refresh, got %d", n)
	}
	if client.store.Get() != "fresh-token" {
		t.Errorf("Expected store to hold fresh token, got %q", client.store.Get())
	}
}

func TestClient_ExactlyOneRetry(t *testing.T) {
	var apiCalls, refreshCalls int32

	// The API rejects every token, including freshly minted ones
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		http.Error(w, `{"summary":"Invalid token"}`, http.StatusUnauthorized)
	}))
	defer api.Close()

	accounts := newAccountsStub("fresh-token", &refreshCalls)
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))
	client.store.Set("stale-token")

	_, err := client.ListWorkspaces(context.Background())
	if err == nil {
		t.Fatal("Expected error when every attempt is rejected")
	}
	if !IsAuthExhaustedError(err) {
		t.Fatalf("Expected AuthExhaustedError, got %T: %v", err, err)
	}

	var exhausted *AuthExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatal("Expected to extract AuthExhaustedError")
	}
	if exhausted.Status != http.StatusUnauthorized {
		t.Errorf("Expected final status 401, got %d", exhausted.Status)
	}

	// Exactly one retry, never a loop
	if n := atomic.LoadInt32(&apiCalls); n != 2 {
		t.Errorf("Expected exactly 2 API calls, got %d", n)
	}
	if n := atomic.LoadInt32(&refreshCalls); n != 1 {
		t.Errorf("Expected exactly 1 refresh, got %d", n)
	}
}

func TestClient_NoRetryOnServerError(t *testing.T) {
	var apiCalls, refreshCalls int32

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		http.Error(w, `{"summary":"internal failure"}`, http.StatusInternalServerError)
	}))
	defer api.Close()

	accounts := newAccountsStub("fresh-token", &refreshCalls)
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))
	client.store.Set("good-token")

	_, err := client.ListWorkspaces(context.Background())
	if err == nil {
		t.Fatal("Expected error for server failure")
	}
	if !IsUpstreamRequestError(err) {
		t.Fatalf("Expected UpstreamRequestError, got %T: %v", err, err)
	}

	var requestErr *UpstreamRequestError
	if !errors.As(err, &requestErr) {
		t.Fatal("Expected to extract UpstreamRequestError")
	}
	if requestErr.Status != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", requestErr.Status)
	}
	if !strings.Contains(requestErr.Body, "internal failure") {
		t.Errorf("Expected upstream body in error, got %q", requestErr.Body)
	}

	// Non-auth failures never trigger the recovery path
	if n := atomic.LoadInt32(&apiCalls); n != 1 {
		t.Errorf("Expected 1 API call, got %d", n)
	}
	if n := atomic.LoadInt32(&refreshCalls); n != 0 {
		t.Errorf("Expected 0 refreshes, got %d", n)
	}

	// The cached token survives a non-auth failure
	if client.store.Get() != "good-token" {
		t.Errorf("Expected cached token to survive, got %q", client.store.Get())
	}
}

func TestClient_ForbiddenWithInvalidTokenMarker(t *testing.T) {
	var apiCalls, refreshCalls int32

	// Some deployments report token expiry as 403 with a marker body
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		if r.Header.Get("Authorization") != "Zoho-oauthtoken fresh-token" {
			http.Error(w, `{"data":{"errorCode":8535,"summary":"INVALID_OAUTHTOKEN"}}`, http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"views": []interface{}{}})
	}))
	defer api.Close()

	accounts := newAccountsStub("fresh-token", &refreshCalls)
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))
	client.store.Set("stale-token")

	_, err := client.SearchViews(context.Background(), "ws-1", "", 0, 0)
	if err != nil {
		t.Fatalf("SearchViews failed: %v", err)
	}

	if n := atomic.LoadInt32(&apiCalls); n != 2 {
		t.Errorf("Expected 2 API calls, got %d", n)
	}
	if n := atomic.LoadInt32(&refreshCalls); n != 1 {
		t.Errorf("Expected 1 refresh, got %d", n)
	}
}

func TestClient_ForbiddenWithoutMarkerNotRetried(t *testing.T) {
	var apiCalls, refreshCalls int32

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		http.Error(w, `{"summary":"permission denied for this view"}`, http.StatusForbidden)
	}))
	defer api.Close()

	accounts := newAccountsStub("fresh-token", &refreshCalls)
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))
	client.store.Set("good-token")

	_, err := client.ListWorkspaces(context.Background())
	if err == nil {
		t.Fatal("Expected error for permission failure")
	}
	if !IsUpstreamRequestError(err) {
		t.Fatalf("Expected UpstreamRequestError, got %T: %v", err, err)
	}

	// A plain 403 is an authorization problem, not a stale token
	if n := atomic.LoadInt32(&apiCalls); n != 1 {
		t.Errorf("Expected 1 API call, got %d", n)
	}
	if n := atomic.LoadInt32(&refreshCalls); n != 0 {
		t.Errorf("Expected 0 refreshes, got %d", n)
	}
}

func TestClient_RefreshFailureDuringRecovery(t *testing.T) {
	var apiCalls int32

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
		http.Error(w, `{"summary":"Invalid token"}`, http.StatusUnauthorized)
	}))
	defer api.Close()

	accounts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"server busy"}`, http.StatusInternalServerError)
	}))
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))
	client.store.Set("stale-token")

	_, err := client.ListWorkspaces(context.Background())
	if err == nil {
		t.Fatal("Expected error when recovery refresh fails")
	}
	if !IsAuthExhaustedError(err) {
		t.Fatalf("Expected AuthExhaustedError, got %T: %v", err, err)
	}

	// The refresh failure is preserved inside the exhaustion error
	var authErr *UpstreamAuthError
	if !errors.As(err, &authErr) {
		t.Fatal("Expected to unwrap the refresh failure")
	}
	if authErr.Status != http.StatusInternalServerError {
		t.Errorf("Expected inner status 500, got %d", authErr.Status)
	}

	// The failed first attempt is never retried without a fresh token
	if n := atomic.LoadInt32(&apiCalls); n != 1 {
		t.Errorf("Expected 1 API call, got %d", n)
	}
}

func TestClient_ConfigurationErrorBeforeNetwork(t *testing.T) {
	var apiCalls, refreshCalls int32

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
	}))
	defer api.Close()

	accounts := newAccountsStub("fresh-token", &refreshCalls)
	defer accounts.Close()

	config := testClientConfig(api.URL, accounts.URL)
	config.ClientSecret = ""
	client := NewClient(config)

	_, err := client.ListWorkspaces(context.Background())
	if err == nil {
		t.Fatal("Expected error for missing credentials")
	}
	if !IsConfigurationError(err) {
		t.Fatalf("Expected ConfigurationError, got %T: %v", err, err)
	}

	// Misconfiguration is detected before any request leaves the process
	if n := atomic.LoadInt32(&apiCalls); n != 0 {
		t.Errorf("Expected 0 API calls, got %d", n)
	}
	if n := atomic.LoadInt32(&refreshCalls); n != 0 {
		t.Errorf("Expected 0 refreshes, got %d", n)
	}
}

func TestClient_AcquisitionFailurePassesThrough(t *testing.T) {
	var apiCalls int32

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&apiCalls, 1)
	}))
	defer api.Close()

	accounts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"access_denied"}`, http.StatusBadRequest)
	}))
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))

	// With no cached token the initial acquisition fails; that failure is
	// the refresher's own error, not an exhausted retry.
	_, err := client.ListWorkspaces(context.Background())
	if err == nil {
		t.Fatal("Expected error when acquisition fails")
	}
	if !IsUpstreamAuthError(err) {
		t.Fatalf("Expected UpstreamAuthError, got %T: %v", err, err)
	}
	if IsAuthExhaustedError(err) {
		t.Error("Acquisition failure must not be reported as retry exhaustion")
	}
	if n := atomic.LoadInt32(&apiCalls); n != 0 {
		t.Errorf("Expected 0 API calls, got %d", n)
	}
}

func TestClient_ConcurrentAcquisitionSharesOneRefresh(t *testing.T) {
	var refreshCalls int32

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Zoho-oauthtoken fresh-token" {
			http.Error(w, `{"summary":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"workspaces": []interface{}{}})
	}))
	defer api.Close()

	accounts := newAccountsStub("fresh-token", &refreshCalls)
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.ListWorkspaces(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Worker %d failed: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&refreshCalls); n != 1 {
		t.Errorf("Expected 1 refresh across all workers, got %d", n)
	}
}

func TestClient_SendsAuthHeaders(t *testing.T) {
	var gotAuth, gotOrg, gotAccept string

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotOrg = r.Header.Get("ZANALYTICS-ORGID")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"workspaces": []interface{}{}})
	}))
	defer api.Close()

	accounts := newAccountsStub("fresh-token", nil)
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))

	if _, err := client.ListWorkspaces(context.Background()); err != nil {
		t.Fatalf("ListWorkspaces failed: %v", err)
	}

	if gotAuth != "Zoho-oauthtoken fresh-token" {
		t.Errorf("Expected Zoho-oauthtoken authorization, got %q", gotAuth)
	}
	if gotOrg != "700001" {
		t.Errorf("Expected org header %q, got %q", "700001", gotOrg)
	}
	if gotAccept != "application/json" {
		t.Errorf("Expected Accept application/json, got %q", gotAccept)
	}
}

func TestClient_OmitsOrgHeaderWhenUnset(t *testing.T) {
	orgSeen := false

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, orgSeen = r.Header["Zanalytics-Orgid"]
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"workspaces": []interface{}{}})
	}))
	defer api.Close()

	accounts := newAccountsStub("fresh-token", nil)
	defer accounts.Close()

	config := testClientConfig(api.URL, accounts.URL)
	config.OrgID = ""
	client := NewClient(config)

	if _, err := client.ListWorkspaces(context.Background()); err != nil {
		t.Fatalf("ListWorkspaces failed: %v", err)
	}
	if orgSeen {
		t.Error("Expected no org header when org id is not configured")
	}
}

func TestClient_UndecodableSuccessBody(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer api.Close()

	accounts := newAccountsStub("fresh-token", nil)
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))

	_, err := client.ListWorkspaces(context.Background())
	if err == nil {
		t.Fatal("Expected error for undecodable body")
	}
	if !IsUpstreamRequestError(err) {
		t.Fatalf("Expected UpstreamRequestError, got %T: %v", err, err)
	}

	var requestErr *UpstreamRequestError
	if !errors.As(err, &requestErr) {
		t.Fatal("Expected to extract UpstreamRequestError")
	}
	if requestErr.Status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", requestErr.Status)
	}
}

func TestClient_NetworkErrorSurfaces(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	api.Close() // nothing listening anymore

	accounts := newAccountsStub("fresh-token", nil)
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))

	_, err := client.ListWorkspaces(context.Background())
	if err == nil {
		t.Fatal("Expected error when the API is unreachable")
	}
	if !IsNetworkError(err) {
		t.Fatalf("Expected NetworkError, got %T: %v", err, err)
	}
}

func TestClient_RotateRefreshToken(t *testing.T) {
	var refreshTokens []string
	var mu sync.Mutex

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"workspaces": []interface{}{}})
	}))
	defer api.Close()

	accounts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		mu.Lock()
		refreshTokens = append(refreshTokens, r.FormValue("refresh_token"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "minted-token"})
	}))
	defer accounts.Close()

	client := NewClient(testClientConfig(api.URL, accounts.URL))

	if _, err := client.ListWorkspaces(context.Background()); err != nil {
		t.Fatalf("First call failed: %v", err)
	}

	client.RotateRefreshToken("rotated-token")
	if client.store.Has() {
		t.Error("Expected cached access token to be dropped on rotation")
	}

	if _, err := client.ListWorkspaces(context.Background()); err != nil {
		t.Fatalf("Call after rotation failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(refreshTokens) != 2 {
		t.Fatalf("Expected 2 exchanges, got %d", len(refreshTokens))
	}
	if refreshTokens[0] != "test-refresh-token" || refreshTokens[1] != "rotated-token" {
		t.Errorf("Expected rotation to change the exchanged credential, got %v", refreshTokens)
	}
}

func TestIsAuthFailure(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected bool
	}{
		{"401 always auth failure", http.StatusUnauthorized, "", true},
		{"401 with body", http.StatusUnauthorized, `{"summary":"whatever"}`, true},
		{"403 with invalid oauthtoken", http.StatusForbidden, `{"summary":"INVALID_OAUTHTOKEN"}`, true},
		{"403 with invalid token text", http.StatusForbidden, "Invalid Token provided", true},
		{"403 with invalid_token code", http.StatusForbidden, `{"error":"invalid_token"}`, true},
		{"403 without marker", http.StatusForbidden, "permission denied", false},
		{"500 never auth failure", http.StatusInternalServerError, "Invalid token", false},
		{"200 never auth failure", http.StatusOK, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isAuthFailure(tc.status, []byte(tc.body)); got != tc.expected {
				t.Errorf("isAuthFailure(%d, %q) = %v, expected %v", tc.status, tc.body, got, tc.expected)
			}
		})
	}
}
