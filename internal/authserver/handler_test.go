package authserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer starts the authorization server on an httptest listener.
func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	s := NewServer()
	t.Cleanup(s.Stop)

	mux := http.NewServeMux()
	s.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return s, srv
}

// noRedirectClient returns a client that surfaces 3xx responses instead of
// following them.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestServerMetadata(t *testing.T) {
	_, srv := newTestServer(t)

	for _, path := range []string{
		"/.well-known/oauth-authorization-server",
		"/.well-known/openid-configuration",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var meta serverMetadata
		decodeJSON(t, resp, &meta)

		assert.Equal(t, srv.URL, meta.Issuer, "path %s", path)
		assert.Equal(t, srv.URL+"/authorize", meta.AuthorizationEndpoint)
		assert.Equal(t, srv.URL+"/token", meta.TokenEndpoint)
		assert.Equal(t, []string{"authorization_code", "refresh_token"}, meta.GrantTypesSupported)
		assert.Equal(t, []string{"code"}, meta.ResponseTypesSupported)
		assert.Equal(t, []string{"S256", "plain"}, meta.CodeChallengeMethodsSupported)
		assert.Equal(t, []string{"default"}, meta.ScopesSupported)
	}
}

func TestProtectedResourceMetadata(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/.well-known/oauth-protected-resource")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var meta protectedResourceMetadata
	decodeJSON(t, resp, &meta)

	assert.Equal(t, srv.URL, meta.Issuer)
	assert.Equal(t, []string{srv.URL}, meta.AuthorizationServers)
}

func TestAuthorize_RedirectsWithCodeAndState(t *testing.T) {
	_, srv := newTestServer(t)

	authorizeURL := srv.URL + "/authorize?" + url.Values{
		"response_type": {"code"},
		"client_id":     {"chatgpt"},
		"redirect_uri":  {"https://client.example/cb"},
		"state":         {"xyz-state"},
	}.Encode()

	resp, err := noRedirectClient().Get(authorizeURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "https://client.example/cb", location.Scheme+"://"+location.Host+location.Path)
	assert.NotEmpty(t, location.Query().Get("code"))
	assert.Equal(t, "xyz-state", location.Query().Get("state"))
}

func TestAuthorize_AppendsToExistingQuery(t *testing.T) {
	_, srv := newTestServer(t)

	authorizeURL := srv.URL + "/authorize?" + url.Values{
		"response_type": {"code"},
		"client_id":     {"chatgpt"},
		"redirect_uri":  {"https://client.example/cb?session=42"},
	}.Encode()

	resp, err := noRedirectClient().Get(authorizeURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	query := location.Query()
	assert.Equal(t, "42", query.Get("session"), "existing query must survive")
	assert.NotEmpty(t, query.Get("code"))
	// State is echoed even when the client sent none.
	_, hasState := query["state"]
	assert.True(t, hasState)
}

func TestAuthorize_RejectsWrongResponseType(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/authorize?response_type=token&redirect_uri=https%3A%2F%2Fclient.example%2Fcb")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body oauthError
	decodeJSON(t, resp, &body)
	assert.Equal(t, "unsupported_response_type", body.Code)
}

func TestAuthorize_RequiresRedirectURI(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/authorize?response_type=code&client_id=chatgpt")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body oauthError
	decodeJSON(t, resp, &body)
	assert.Equal(t, "invalid_request", body.Code)
}

func TestToken_AuthorizationCodeGrant_Form(t *testing.T) {
	s, srv := newTestServer(t)

	code, err := s.store.IssueCode("chatgpt", "https://client.example/cb")
	require.NoError(t, err)

	resp, err := http.PostForm(srv.URL+"/token", url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token tokenResponse
	decodeJSON(t, resp, &token)

	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, 3600, token.ExpiresIn)
	assert.Equal(t, "default", token.Scope)
	assert.NotEmpty(t, token.AccessToken)
	assert.NotEmpty(t, token.RefreshToken)
	assert.True(t, s.ValidateToken(token.AccessToken))
}

func TestToken_AuthorizationCodeGrant_JSON(t *testing.T) {
	s, srv := newTestServer(t)

	code, err := s.store.IssueCode("chatgpt", "https://client.example/cb")
	require.NoError(t, err)

	body, err := json.Marshal(map[string]string{
		"grant_type": "authorization_code",
		"code":       code,
	})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/token", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token tokenResponse
	decodeJSON(t, resp, &token)
	assert.NotEmpty(t, token.AccessToken)
	assert.True(t, s.ValidateToken(token.AccessToken))
}

func TestToken_CodeIsSingleUse(t *testing.T) {
	s, srv := newTestServer(t)

	code, err := s.store.IssueCode("chatgpt", "https://client.example/cb")
	require.NoError(t, err)

	form := url.Values{"grant_type": {"authorization_code"}, "code": {code}}

	resp, err := http.PostForm(srv.URL+"/token", form)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.PostForm(srv.URL+"/token", form)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body oauthError
	decodeJSON(t, resp, &body)
	assert.Equal(t, "invalid_grant", body.Code)
}

func TestToken_ExpiredCode(t *testing.T) {
	s, srv := newTestServer(t)

	code, err := s.store.IssueCode("chatgpt", "https://client.example/cb")
	require.NoError(t, err)

	s.store.mu.Lock()
	s.store.codes[code].expiresAt = time.Now().Add(-time.Minute)
	s.store.mu.Unlock()

	resp, err := http.PostForm(srv.URL+"/token", url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body oauthError
	decodeJSON(t, resp, &body)
	assert.Equal(t, "invalid_grant", body.Code)
}

func TestToken_MissingCode(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.PostForm(srv.URL+"/token", url.Values{
		"grant_type": {"authorization_code"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body oauthError
	decodeJSON(t, resp, &body)
	assert.Equal(t, "invalid_request", body.Code)
}

func TestToken_UnsupportedGrantType(t *testing.T) {
	_, srv := newTestServer(t)

	for _, grantType := range []string{"password", "client_credentials", ""} {
		resp, err := http.PostForm(srv.URL+"/token", url.Values{
			"grant_type": {grantType},
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body oauthError
		decodeJSON(t, resp, &body)
		assert.Equal(t, "unsupported_grant_type", body.Code, "grant_type %q", grantType)
	}
}

func TestToken_RefreshGrant(t *testing.T) {
	s, srv := newTestServer(t)

	code, err := s.store.IssueCode("chatgpt", "https://client.example/cb")
	require.NoError(t, err)

	resp, err := http.PostForm(srv.URL+"/token", url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	})
	require.NoError(t, err)
	var first tokenResponse
	decodeJSON(t, resp, &first)

	resp, err = http.PostForm(srv.URL+"/token", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {first.RefreshToken},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var second tokenResponse
	decodeJSON(t, resp, &second)

	assert.NotEmpty(t, second.AccessToken)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	// The refresh token is reusable and echoed back unchanged.
	assert.Equal(t, first.RefreshToken, second.RefreshToken)
	// Earlier access tokens keep working until they expire on their own.
	assert.True(t, s.ValidateToken(first.AccessToken))
	assert.True(t, s.ValidateToken(second.AccessToken))
}

func TestToken_RefreshGrantRejectsUnknownToken(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.PostForm(srv.URL+"/token", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {"no-such-refresh-token"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body oauthError
	decodeJSON(t, resp, &body)
	assert.Equal(t, "invalid_grant", body.Code)
}

func TestToken_RefreshGrantRequiresToken(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.PostForm(srv.URL+"/token", url.Values{
		"grant_type": {"refresh_token"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body oauthError
	decodeJSON(t, resp, &body)
	assert.Equal(t, "invalid_request", body.Code)
}

func TestValidateToken_RejectsUnknownToken(t *testing.T) {
	s, _ := newTestServer(t)

	assert.False(t, s.ValidateToken("never-issued"))
	assert.False(t, s.ValidateToken(""))
}
