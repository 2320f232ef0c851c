package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable renders results as a rounded table.
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON prints the raw gateway response as indented JSON.
	OutputFormatJSON OutputFormat = "json"
)

// ValidateOutputFormat validates that the given format string is a supported
// output format.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, json)", format)
	}
}

// EndpointEnvVar is the environment variable overriding the default gateway
// endpoint.
const EndpointEnvVar = "ZA_ENDPOINT"

// APIKeyEnvVar is the environment variable supplying the static gateway API
// key. It is the same variable the gateway itself reads, so a local setup
// needs it exported only once.
const APIKeyEnvVar = "API_KEY"

// DefaultEndpoint is the gateway URL assumed when neither the flag nor the
// environment names one. It matches the gateway's default listener.
const DefaultEndpoint = "http://localhost:8090"

// GetDefaultEndpoint returns the endpoint from the environment, falling back
// to DefaultEndpoint.
func GetDefaultEndpoint() string {
	if endpoint := os.Getenv(EndpointEnvVar); endpoint != "" {
		return endpoint
	}
	return DefaultEndpoint
}

// CommandFlags holds the common flag values used by CLI commands that talk
// to a running gateway.
type CommandFlags struct {
	// Output specifies the desired output format (table, json).
	Output string
	// Quiet suppresses progress indicators and non-essential output.
	Quiet bool
	// Endpoint is the gateway base URL.
	Endpoint string
	// APIKey is the static gateway credential, overriding any stored login
	// token.
	APIKey string
}

// RegisterCommonFlags registers the common flags used by the data commands.
// This keeps flag naming and descriptions consistent across command files.
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "table", "Output format (table, json)")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.Flags().StringVar(&flags.Endpoint, "endpoint", GetDefaultEndpoint(), "Gateway endpoint URL (env: ZA_ENDPOINT)")
	cmd.Flags().StringVar(&flags.APIKey, "api-key", os.Getenv(APIKeyEnvVar), "Gateway API key (env: API_KEY)")
}

// ToClientOptions converts CommandFlags to ClientOptions, validating the
// output format along the way.
func (f *CommandFlags) ToClientOptions() (ClientOptions, error) {
	if err := ValidateOutputFormat(f.Output); err != nil {
		return ClientOptions{}, err
	}

	return ClientOptions{
		Endpoint: f.Endpoint,
		APIKey:   f.APIKey,
		Quiet:    f.Quiet,
	}, nil
}
