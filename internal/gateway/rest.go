package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"zanalytics/internal/zoho"
	"zanalytics/pkg/logging"
)

// errorBody is the REST failure envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail classifies a failure for callers. Status carries the upstream
// HTTP status when one was observed.
type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.client.Health())
}

func (s *Server) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.client.ListWorkspaces(r.Context())
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	limit, err := queryInt(query, "limit")
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	offset, err := queryInt(query, "offset")
	if err != nil {
		s.writeOperationError(w, err)
		return
	}

	result, err := s.client.SearchViews(r.Context(), query.Get("workspace_id"), query.Get("q"), limit, offset)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleViewDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	// workspace_id is part of the path contract even though the upstream
	// view lookup is global; it is validated and then unused.
	if query.Get("workspace_id") == "" {
		s.writeOperationError(w, &zoho.ValidationError{Field: "workspace_id", Reason: "must not be empty"})
		return
	}

	result, err := s.client.ViewDetails(r.Context(), query.Get("view_id"))
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// exportRequest is the /export_view_v2 body. Absent limit and offset fall
// through as zero and take the operation defaults.
type exportRequest struct {
	WorkspaceID string `json:"workspace_id"`
	View        string `json:"view"`
	Limit       int    `json:"limit"`
	Offset      int    `json:"offset"`
}

func (s *Server) handleExportView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeOperationError(w, &zoho.ValidationError{Field: "body", Reason: "must be valid JSON"})
		return
	}

	result, err := s.client.ExportView(r.Context(), req.WorkspaceID, req.View, req.Limit, req.Offset)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// queryRequest is the /query_v2 body.
type queryRequest struct {
	WorkspaceID string `json:"workspace_id"`
	SQL         string `json:"sql"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeOperationError(w, &zoho.ValidationError{Field: "body", Reason: "must be valid JSON"})
		return
	}

	result, err := s.client.Query(r.Context(), req.WorkspaceID, req.SQL)
	if err != nil {
		s.writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeOperationError maps the client error taxonomy onto transport codes.
// Validation problems are the caller's fault, configuration gaps are ours,
// and upstream rejections surface as gateway errors. Error messages from
// the client never contain credential material, so they pass through
// verbatim.
func (s *Server) writeOperationError(w http.ResponseWriter, err error) {
	detail := errorDetail{Message: err.Error()}
	var status int

	switch {
	case zoho.IsValidationError(err):
		status = http.StatusBadRequest
		detail.Kind = "validation"
	case zoho.IsConfigurationError(err):
		status = http.StatusInternalServerError
		detail.Kind = "configuration"
	case zoho.IsAuthExhaustedError(err):
		status = http.StatusBadGateway
		detail.Kind = "auth"
		var exhausted *zoho.AuthExhaustedError
		if errors.As(err, &exhausted) {
			detail.Status = exhausted.Status
		}
	case zoho.IsUpstreamAuthError(err):
		status = http.StatusBadGateway
		detail.Kind = "auth"
		var authErr *zoho.UpstreamAuthError
		if errors.As(err, &authErr) {
			detail.Status = authErr.Status
		}
	case zoho.IsUpstreamRequestError(err):
		status = http.StatusBadGateway
		detail.Kind = "upstream"
		var reqErr *zoho.UpstreamRequestError
		if errors.As(err, &reqErr) {
			detail.Status = reqErr.Status
		}
	case zoho.IsNetworkError(err):
		status = http.StatusGatewayTimeout
		detail.Kind = "network"
	default:
		status = http.StatusInternalServerError
		detail.Kind = "internal"
	}

	if status >= http.StatusInternalServerError {
		logging.Warn("Gateway", "Operation failed (%s): %v", detail.Kind, err)
	}

	writeJSON(w, status, errorBody{Error: detail})
}

// queryInt parses an optional integer query parameter.
func queryInt(query url.Values, name string) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &zoho.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return value, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("Gateway", err, "Failed to encode response body")
	}
}
