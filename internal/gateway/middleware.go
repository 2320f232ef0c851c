package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"zanalytics/pkg/logging"
)

// requireAuth admits requests carrying the configured API key or a live
// Bearer token issued by the embedded authorization server. It guards the
// data endpoints only; discovery, grant, and connector surfaces stay open.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.APIKey != "" && r.Header.Get("X-API-Key") == s.config.APIKey {
			next.ServeHTTP(w, r)
			return
		}
		if token, ok := bearerToken(r.Header.Get("Authorization")); ok && s.auth.ValidateToken(token) {
			next.ServeHTTP(w, r)
			return
		}

		writeJSON(w, http.StatusUnauthorized, errorBody{Error: errorDetail{
			Kind:    "unauthorized",
			Message: "Auth required: X-API-Key or Bearer token",
		}})
	})
}

// bearerToken extracts the token from an Authorization header, tolerating
// any casing of the Bearer scheme.
func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// corsMiddleware mirrors the permissive posture of the connector surface:
// any origin is allowed with credentials, and preflights are answered
// without reaching the handlers.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			// Credentialed CORS cannot use the wildcard, so the origin is
			// echoed back instead.
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
				w.Header().Set("Access-Control-Allow-Headers", requested)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// logRequests tags each request with a short id and records the outcome.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()[:8]
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(recorder, r)

		logging.Debug("Gateway", "[%s] %s %s -> %d (%s)",
			requestID, r.Method, r.URL.Path, recorder.status, time.Since(start).Round(time.Millisecond))
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming handlers working through the recorder.
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
