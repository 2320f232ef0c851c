// Package logging provides the structured logging system shared by every
// zanalytics subsystem.
//
// It is a thin wrapper over Go's standard slog package. Each entry carries a
// subsystem identifier, a formatted message, and an optional error, so log
// output can be filtered by the component that produced it.
//
// # Usage
//
//	import "zanalytics/pkg/logging"
//
//	// Initialize once at startup with the desired level and output.
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Bootstrap", "application starting up")
//	logging.Debug("Config", "loaded configuration from %s", path)
//	logging.Warn("Gateway", "request rejected: %s", reason)
//	logging.Error("Zoho", err, "upstream call failed")
//
// InitForService switches to a JSON handler for running under a supervisor
// with a log collector.
//
// # Subsystems
//
// Conventional subsystem names used across the codebase:
//
//   - Bootstrap: application initialization
//   - Config: configuration loading and validation
//   - Zoho: upstream analytics client and token lifecycle
//   - Refresher: OAuth refresh exchanges
//   - CredentialWatcher: refresh-token file rotation
//   - AuthServer: downstream token issuance
//   - Gateway: HTTP/MCP serving
//
// Secrets never appear in log output; token and secret values are referenced
// only by presence or length.
package logging
