package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"zanalytics/pkg/logging"
)

// keepAliveInterval and keepAliveCount shape the /sse stream: one actions
// frame, then a fixed run of comment frames before the server closes the
// stream and lets the client reconnect.
const (
	keepAliveInterval = time.Second
	keepAliveCount    = 5
)

// actionCatalogEntry is the /sse announcement shape. The input schema
// travels under "parameters" and there is no title; that is the older
// actions contract, distinct from tools/list.
type actionCatalogEntry struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"`
}

// handleSSE announces the tool catalog as a server-sent event and keeps the
// connection warm with comment frames until the run ends or the client
// disconnects.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	actions := make([]actionCatalogEntry, 0, len(s.tools))
	for _, def := range s.tools {
		actions = append(actions, actionCatalogEntry{
			Name:        def.tool.Name,
			Description: def.tool.Description,
			Parameters:  def.tool.InputSchema,
		})
	}

	payload, err := json.Marshal(map[string]interface{}{"actions": actions})
	if err != nil {
		logging.Error("Gateway", err, "Failed to encode action catalog")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	fmt.Fprintf(w, "event: actions\ndata: %s\n\n", payload)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for i := 0; i < keepAliveCount; i++ {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
