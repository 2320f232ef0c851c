// Package config provides configuration management for zanalytics.
//
// Configuration is assembled in three layers: built-in defaults, an optional
// config.yaml in the configuration directory, and environment variables. The
// default configuration directory is ~/.config/zanalytics; commands accept a
// --config-path flag to point somewhere else.
//
// # Environment variables
//
// The environment layer uses the names the service has always used:
//
//	ANALYTICS_CLIENT_ID           OAuth client ID for the Zoho Analytics app
//	ANALYTICS_CLIENT_SECRET       OAuth client secret
//	ANALYTICS_REFRESH_TOKEN       OAuth refresh token
//	ANALYTICS_REFRESH_TOKEN_FILE  file holding the refresh token (watched for rotation)
//	ANALYTICS_ORG_ID              organisation ID, sent as ZANALYTICS-ORGID
//	ANALYTICS_SERVER_URL          analytics API base (default https://analyticsapi.zoho.com)
//	ACCOUNTS_SERVER_URL           accounts base for token exchange (default https://accounts.zoho.com)
//	ANALYTICS_MCP_DATA_DIR        scratch directory echoed by health (default /tmp)
//	API_KEY                       static key accepted by the gateway's X-API-Key scheme
//	ZA_HOST, ZA_PORT              gateway bind address (default localhost:8090)
//
// When ANALYTICS_REFRESH_TOKEN_FILE is set, the file contents take
// precedence over any inline refresh token so that rotated secrets win.
//
// Validation is separate from loading: Validate checks structural
// correctness (ports, base URLs) but deliberately does not require the
// upstream OAuth credentials, so the service can come up for health checks
// and downstream auth before upstream credentials are provisioned.
package config
