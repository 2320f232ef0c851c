package authserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"zanalytics/pkg/logging"
)

// Server exposes the authorization endpoints over HTTP and owns the token
// store behind them.
type Server struct {
	store *TokenStore
}

// NewServer creates an authorization server with a fresh token store.
func NewServer() *Server {
	return &Server{store: NewTokenStore()}
}

// ValidateToken reports whether token is a live access token issued by this
// server. The gateway's bearer middleware uses this to admit requests.
func (s *Server) ValidateToken(token string) bool {
	return s.store.ValidateAccessToken(token)
}

// Stop releases the background resources held by the token store.
func (s *Server) Stop() {
	s.store.Stop()
}

// Register mounts the metadata and grant endpoints on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/.well-known/oauth-protected-resource", s.handleProtectedResource)
	mux.HandleFunc("/.well-known/oauth-authorization-server", s.handleServerMetadata)
	mux.HandleFunc("/.well-known/openid-configuration", s.handleServerMetadata)
	mux.HandleFunc("/authorize", s.handleAuthorize)
	mux.HandleFunc("/token", s.handleToken)
}

// protectedResourceMetadata is the RFC 9728 style document pointing clients
// at the authorization server guarding this resource. Both roles are played
// by the same process, so the issuer lists itself.
type protectedResourceMetadata struct {
	Issuer               string   `json:"issuer"`
	AuthorizationServers []string `json:"authorization_servers"`
}

// serverMetadata is the authorization server metadata document. The same
// payload answers /.well-known/oauth-authorization-server and
// /.well-known/openid-configuration because some connectors only probe the
// OIDC path.
type serverMetadata struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	GrantTypesSupported           []string `json:"grant_types_supported"`
	ResponseTypesSupported        []string `json:"response_types_supported"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
	ScopesSupported               []string `json:"scopes_supported"`
}

// tokenResponse is the success body of the /token endpoint.
type tokenResponse struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

func (s *Server) handleProtectedResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	base := issuer(r)
	writeJSON(w, http.StatusOK, protectedResourceMetadata{
		Issuer:               base,
		AuthorizationServers: []string{base},
	})
}

func (s *Server) handleServerMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	base := issuer(r)
	writeJSON(w, http.StatusOK, serverMetadata{
		Issuer:                        base,
		AuthorizationEndpoint:         base + "/authorize",
		TokenEndpoint:                 base + "/token",
		GrantTypesSupported:           []string{"authorization_code", "refresh_token"},
		ResponseTypesSupported:        []string{"code"},
		CodeChallengeMethodsSupported: []string{"S256", "plain"},
		ScopesSupported:               []string{"default"},
	})
}

// handleAuthorize implements the immediate-consent authorization endpoint.
// There is no consent page: a code is minted for every well-formed request
// and the browser is redirected straight back to the client.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	if query.Get("response_type") != "code" {
		writeOAuthError(w, "unsupported_response_type")
		return
	}
	redirectURI := query.Get("redirect_uri")
	if redirectURI == "" {
		writeOAuthError(w, "invalid_request")
		return
	}

	code, err := s.store.IssueCode(query.Get("client_id"), redirectURI)
	if err != nil {
		logging.Error("AuthServer", err, "Failed to mint authorization code")
		writeJSON(w, http.StatusInternalServerError, oauthError{Code: "server_error"})
		return
	}

	// The state parameter is echoed back even when the client sent none.
	params := url.Values{}
	params.Set("code", code)
	params.Set("state", query.Get("state"))

	sep := "?"
	if strings.Contains(redirectURI, "?") {
		sep = "&"
	}
	http.Redirect(w, r, redirectURI+sep+params.Encode(), http.StatusFound)
}

// tokenRequest carries the fields of a grant request, whether the client
// sent them as JSON or form-encoded. redirect_uri, client_id, and
// code_verifier are accepted for compatibility but not verified.
type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	ClientID     string `json:"client_id"`
	RefreshToken string `json:"refresh_token"`
	CodeVerifier string `json:"code_verifier"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := parseTokenRequest(r)
	if err != nil {
		writeOAuthError(w, "invalid_request")
		return
	}

	switch req.GrantType {
	case "authorization_code":
		s.exchangeCode(w, req)
	case "refresh_token":
		s.refreshGrant(w, req)
	default:
		writeOAuthError(w, "unsupported_grant_type")
	}
}

// parseTokenRequest reads the grant fields from a JSON body when the client
// declares one, falling back to form decoding otherwise.
func parseTokenRequest(r *http.Request) (*tokenRequest, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return &tokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		ClientID:     r.PostFormValue("client_id"),
		RefreshToken: r.PostFormValue("refresh_token"),
		CodeVerifier: r.PostFormValue("code_verifier"),
	}, nil
}

// exchangeCode redeems an authorization code for a fresh access and refresh
// token pair.
func (s *Server) exchangeCode(w http.ResponseWriter, req *tokenRequest) {
	if req.Code == "" {
		writeOAuthError(w, "invalid_request")
		return
	}

	clientID, ok := s.store.ConsumeCode(req.Code)
	if !ok {
		writeOAuthError(w, "invalid_grant")
		return
	}

	accessToken, err := s.store.IssueAccessToken()
	if err != nil {
		logging.Error("AuthServer", err, "Failed to mint access token")
		writeJSON(w, http.StatusInternalServerError, oauthError{Code: "server_error"})
		return
	}
	refreshToken, err := s.store.IssueRefreshToken()
	if err != nil {
		logging.Error("AuthServer", err, "Failed to mint refresh token")
		writeJSON(w, http.StatusInternalServerError, oauthError{Code: "server_error"})
		return
	}

	logging.Debug("AuthServer", "Exchanged authorization code for client %q", clientID)
	writeJSON(w, http.StatusOK, tokenResponse{
		TokenType:    "Bearer",
		AccessToken:  accessToken,
		ExpiresIn:    int(accessTokenLifetime / time.Second),
		RefreshToken: refreshToken,
		Scope:        "default",
	})
}

// refreshGrant mints a new access token against a live refresh token. The
// presented refresh token stays valid and is echoed back unchanged.
func (s *Server) refreshGrant(w http.ResponseWriter, req *tokenRequest) {
	if req.RefreshToken == "" {
		writeOAuthError(w, "invalid_request")
		return
	}
	if !s.store.ValidateRefreshToken(req.RefreshToken) {
		writeOAuthError(w, "invalid_grant")
		return
	}

	accessToken, err := s.store.IssueAccessToken()
	if err != nil {
		logging.Error("AuthServer", err, "Failed to mint access token")
		writeJSON(w, http.StatusInternalServerError, oauthError{Code: "server_error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		TokenType:    "Bearer",
		AccessToken:  accessToken,
		ExpiresIn:    int(accessTokenLifetime / time.Second),
		RefreshToken: req.RefreshToken,
		Scope:        "default",
	})
}

// oauthError is the RFC 6749 error body shape.
type oauthError struct {
	Code string `json:"error"`
}

// writeOAuthError writes an OAuth error response with status 400.
func writeOAuthError(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusBadRequest, oauthError{Code: code})
}

// issuer derives the external base URL for metadata and endpoint fields from
// the incoming request.
func issuer(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("AuthServer", err, "Failed to encode response body")
	}
}
