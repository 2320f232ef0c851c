package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// serverName and serverVersion identify this bridge in initialize responses.
const (
	serverName    = "Zoho Analytics MCP"
	serverVersion = "0.1.0"
)

// toolErrorCode is the JSON-RPC server error code used for tool execution
// failures, including missing arguments.
const toolErrorCode = -32000

// maxRPCBodyBytes bounds the /mcp request body.
const maxRPCBodyBytes = 1 << 20

// rpcErrorBody is the error member of a JSON-RPC failure.
type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcEnvelopeError is a failure without an id, returned when the request
// could not be decoded far enough to know one.
type rpcEnvelopeError struct {
	JSONRPC string       `json:"jsonrpc"`
	Error   rpcErrorBody `json:"error"`
}

// rpcFailure is a failure echoing the request id, null included.
type rpcFailure struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      interface{}  `json:"id"`
	Error   rpcErrorBody `json:"error"`
}

// rpcResult is a successful response.
type rpcResult struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result"`
}

// initializeResult is the initialize response payload.
type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      mcp.Implementation `json:"serverInfo"`
}

type serverCapabilities struct {
	Tools toolCapabilities `json:"tools"`
}

type toolCapabilities struct {
	ListChanged bool `json:"listChanged"`
}

// toolDescriptor is a tools/list entry. The title rides next to the schema
// the way connector clients expect.
type toolDescriptor struct {
	Name        string              `json:"name"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	InputSchema mcp.ToolInputSchema `json:"inputSchema"`
}

// callResult wraps a tool payload in the connector's content envelope. The
// "json" content type carries the decoded upstream document instead of
// flattened text.
type callResult struct {
	Content []contentItem `json:"content"`
}

type contentItem struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// actionSuccess and actionFailure are the legacy dispatch response shapes.
type actionSuccess struct {
	OK     bool        `json:"ok"`
	Action string      `json:"action"`
	Result interface{} `json:"result"`
}

type actionFailure struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// handleMCP routes a POST body to the JSON-RPC dispatcher or the legacy
// action dispatcher. Error responses carry a paired HTTP status: unknown
// methods and tools are 404, every other failure is 400.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/mcp" && r.URL.Path != "/mcp/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRPCBodyBytes))
	if err != nil {
		writeEnvelopeError(w, mcp.PARSE_ERROR, "Parse error")
		return
	}

	// An empty body is treated as an empty object, which falls through to
	// the invalid-request response rather than a parse error.
	var decoded interface{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &decoded); err != nil {
			writeEnvelopeError(w, mcp.PARSE_ERROR, "Parse error")
			return
		}
	}

	if data, ok := decoded.(map[string]interface{}); ok {
		if data["jsonrpc"] == "2.0" {
			s.dispatchRPC(w, r, data)
			return
		}
		if _, ok := data["action"]; ok {
			s.dispatchAction(w, r, data)
			return
		}
	}

	writeEnvelopeError(w, mcp.INVALID_REQUEST, "Invalid request")
}

// dispatchRPC handles a JSON-RPC 2.0 envelope.
func (s *Server) dispatchRPC(w http.ResponseWriter, r *http.Request, data map[string]interface{}) {
	id := data["id"]
	method, _ := data["method"].(string)
	params, _ := data["params"].(map[string]interface{})

	switch method {
	case "initialize":
		s.rpcInitialize(w, id, params)
	case "tools/list":
		s.rpcListTools(w, id)
	case "tools/call":
		s.rpcCallTool(w, r, id, params)
	default:
		writeRPCFailure(w, http.StatusNotFound, id, mcp.METHOD_NOT_FOUND, fmt.Sprintf("Method not found: %s", method))
	}
}

// rpcInitialize answers the MCP handshake. The client's protocol version is
// echoed back when present; otherwise the current UTC date stands in, which
// is what the connector protocol expects from a versionless server.
func (s *Server) rpcInitialize(w http.ResponseWriter, id interface{}, params map[string]interface{}) {
	protocolVersion, _ := params["protocolVersion"].(string)
	if protocolVersion == "" {
		protocolVersion = time.Now().UTC().Format("2006-01-02")
	}

	writeRPCResult(w, id, initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    serverCapabilities{Tools: toolCapabilities{ListChanged: false}},
		ServerInfo:      mcp.Implementation{Name: serverName, Version: serverVersion},
	})
}

func (s *Server) rpcListTools(w http.ResponseWriter, id interface{}) {
	tools := make([]toolDescriptor, 0, len(s.tools))
	for _, def := range s.tools {
		tools = append(tools, toolDescriptor{
			Name:        def.tool.Name,
			Title:       def.title,
			Description: def.tool.Description,
			InputSchema: def.tool.InputSchema,
		})
	}
	writeRPCResult(w, id, map[string]interface{}{"tools": tools})
}

func (s *Server) rpcCallTool(w http.ResponseWriter, r *http.Request, id interface{}, params map[string]interface{}) {
	name, _ := params["name"].(string)
	def, ok := s.lookupTool(name)
	if !ok {
		writeRPCFailure(w, http.StatusNotFound, id, mcp.METHOD_NOT_FOUND, fmt.Sprintf("Unknown tool: %s", name))
		return
	}

	args, _ := params["arguments"].(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := def.handler(r.Context(), args)
	if err != nil {
		writeRPCFailure(w, http.StatusBadRequest, id, toolErrorCode, err.Error())
		return
	}

	writeRPCResult(w, id, callResult{
		Content: []contentItem{{Type: "json", Value: result}},
	})
}

// dispatchAction handles the legacy {"action", "input"} dispatch shape.
func (s *Server) dispatchAction(w http.ResponseWriter, r *http.Request, data map[string]interface{}) {
	name, _ := data["action"].(string)
	def, ok := s.lookupTool(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, actionFailure{Error: fmt.Sprintf("Unknown action: %s", name)})
		return
	}

	args, _ := data["input"].(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := def.handler(r.Context(), args)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, actionFailure{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, actionSuccess{OK: true, Action: name, Result: result})
}

func writeRPCResult(w http.ResponseWriter, id interface{}, result interface{}) {
	writeJSON(w, http.StatusOK, rpcResult{JSONRPC: "2.0", ID: id, Result: result})
}

func writeRPCFailure(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	writeJSON(w, status, rpcFailure{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcErrorBody{Code: code, Message: message},
	})
}

func writeEnvelopeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, http.StatusBadRequest, rpcEnvelopeError{
		JSONRPC: "2.0",
		Error:   rpcErrorBody{Code: code, Message: message},
	})
}
