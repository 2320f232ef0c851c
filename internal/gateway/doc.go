// Package gateway is the HTTP front door of the service.
//
// One listener carries four surfaces:
//
//   - REST endpoints mirroring the classic connector paths (/workspaces_v2,
//     /views_v2, /view_details_v2, /export_view_v2, /query_v2, /health).
//   - A JSON-RPC bridge at /mcp implementing the initialize, tools/list, and
//     tools/call methods, plus the legacy {"action", "input"} dispatch shape
//     older connectors still send.
//   - An SSE feed at /sse that announces the tool catalog and keeps the
//     connection warm with comment frames.
//   - The embedded authorization server's metadata and grant endpoints.
//
// Data endpoints require either the configured API key or a Bearer token
// minted by the embedded authorization server. Everything else (health,
// discovery metadata, the MCP and SSE surfaces) is reachable without
// credentials, matching the connector contract.
package gateway
