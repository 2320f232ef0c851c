// Package app bootstraps and runs the zanalytics gateway service.
//
// The package follows a two-phase pattern:
//
//  1. Bootstrap: NewApplication configures logging, loads and validates the
//     service configuration, and wires the services (Zoho Analytics client,
//     embedded authorization server, HTTP gateway, optional credential
//     watcher).
//  2. Execution: Run starts the gateway, reports readiness to the service
//     manager when one is present, and blocks until the context is
//     canceled, then shuts everything down gracefully.
//
// Usage:
//
//	cfg := app.NewConfig(debug, silent, configPath)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("bootstrap failed: %w", err)
//	}
//	return application.Run(ctx)
//
// Signal handling is the caller's concern; cmd/serve passes a context wired
// to SIGINT/SIGTERM.
package app
