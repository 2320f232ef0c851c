package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"zanalytics/internal/authserver"
	"zanalytics/pkg/logging"
)

const shutdownTimeout = 5 * time.Second

// Config holds the gateway listen address and the static API key. An empty
// APIKey disables header auth, leaving Bearer tokens as the only way in.
type Config struct {
	Host   string
	Port   int
	APIKey string
}

// Server serves the REST endpoints, the JSON-RPC bridge, the SSE feed, and
// the embedded authorization server over a single listener.
type Server struct {
	config Config
	client AnalyticsClient
	auth   *authserver.Server
	tools  []toolDefinition

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	wg         sync.WaitGroup
}

// NewServer creates a gateway for the given analytics client. The auth
// server is mounted on the gateway mux and consulted for Bearer tokens.
func NewServer(config Config, client AnalyticsClient, auth *authserver.Server) *Server {
	return &Server{
		config: config,
		client: client,
		auth:   auth,
		tools:  newToolRegistry(client),
	}
}

// Handler assembles the gateway route table. Only the data endpoints sit
// behind requireAuth; health, discovery, grants, and the connector surfaces
// are reachable without credentials.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	s.auth.Register(mux)

	mux.Handle("/workspaces_v2", s.requireAuth(http.HandlerFunc(s.handleWorkspaces)))
	mux.Handle("/views_v2", s.requireAuth(http.HandlerFunc(s.handleViews)))
	mux.Handle("/view_details_v2", s.requireAuth(http.HandlerFunc(s.handleViewDetails)))
	mux.Handle("/export_view_v2", s.requireAuth(http.HandlerFunc(s.handleExportView)))
	mux.Handle("/query_v2", s.requireAuth(http.HandlerFunc(s.handleQuery)))

	mux.HandleFunc("/mcp", s.handleMCP)
	mux.HandleFunc("/mcp/", s.handleMCP)
	mux.HandleFunc("/sse", s.handleSSE)

	return logRequests(corsMiddleware(mux))
}

// Start binds the listener and begins serving in the background. It returns
// once the address is bound so callers can rely on the port being open.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return fmt.Errorf("gateway server already started")
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.httpServer = &http.Server{Handler: s.Handler()}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logging.Info("Gateway", "HTTP server listening on %s", listener.Addr())
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Gateway", err, "HTTP server error")
		}
	}()

	return nil
}

// Stop drains in-flight requests and shuts the server down. It is safe to
// call before Start or more than once.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.httpServer
	s.httpServer = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to shut down gateway server: %w", err)
	}

	logging.Info("Gateway", "HTTP server stopped")
	return nil
}

// Addr reports the bound listen address, or "" before Start. Useful when
// the server was started on port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
