package cmd

import (
	"errors"
	"os"

	"zanalytics/internal/cli"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands. Scripts rely on these to tell missing
// credentials from a failed login from everything else.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates the gateway wants credentials the client does not have.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the login flow failed.
	ExitCodeAuthFailed = 3
)

// Global flags shared by the serve command and anything else that starts
// services. Registered as persistent flags in init.
var (
	rootDebug      bool
	rootSilent     bool
	rootConfigPath string
)

// rootCmd represents the base command for the zanalytics application.
var rootCmd = &cobra.Command{
	Use:   "zanalytics",
	Short: "Zoho Analytics gateway for AI tools",
	Long: `zanalytics runs a local gateway that translates AI tool calls (MCP,
JSON-RPC, plain REST) into Zoho Analytics REST API v2 requests, managing
the OAuth access token lifecycle transparently.

The same binary is also the client: 'zanalytics serve' starts the gateway,
while the data commands (workspaces, views, query, export) talk to a
running one.`,
	// SilenceUsage keeps error output clean; usage on every failed request
	// would drown the actual message.
	SilenceUsage: true,
}

// buildCommit and buildDate carry build metadata injected via main. They
// default to placeholders for go-install builds.
var (
	buildCommit = "none"
	buildDate   = "unknown"
)

// SetVersion sets the version for the root command. Called from the main
// package to inject the release version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// SetBuildInfo records the commit hash and build date shown by the version
// command.
func SetBuildInfo(commit, date string) {
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application, called by
// main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "zanalytics version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps error types onto semantic exit codes for scripting.
func getExitCode(err error) int {
	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&rootSilent, "silent", false, "Suppress log output")
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config-path", "", "Configuration directory (default ~/.config/zanalytics)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
