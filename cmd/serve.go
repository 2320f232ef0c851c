package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"zanalytics/internal/app"

	"github.com/spf13/cobra"
)

// serveJSONLogs switches the gateway to line-oriented JSON logs for running
// under a process supervisor.
var serveJSONLogs bool

// serveHost and servePort override the gateway listener from the command
// line, winning over config file and environment.
var (
	serveHost string
	servePort int
)

// serveCmd defines the serve command. This is the main command of
// zanalytics: it starts the gateway and blocks until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Zoho Analytics gateway",
	Long: `Starts the gateway with all endpoints on a single listener:

  /mcp                    MCP streamable HTTP plus legacy JSON dispatch
  /sse                    MCP SSE transport
  /workspaces_v2, ...     REST data endpoints
  /authorize, /token      built-in authorization server ('zanalytics login')
  /health                 liveness and configuration summary

Configuration is loaded from config.yaml in the configuration directory
(--config-path, default ~/.config/zanalytics), overridden by ANALYTICS_*
environment variables. The gateway needs Zoho client credentials and a
refresh token to reach the Analytics API.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(rootDebug, rootSilent, rootConfigPath)
	cfg.JSONLogs = serveJSONLogs
	cfg.Host = serveHost
	cfg.Port = servePort

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

// init registers the serve command and its flags with the root command.
func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveJSONLogs, "json-logs", false, "Log in JSON instead of text (for process supervisors)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (overrides configuration)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides configuration)")
}
