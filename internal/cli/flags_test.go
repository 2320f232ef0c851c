package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	assert.NoError(t, ValidateOutputFormat("table"))
	assert.NoError(t, ValidateOutputFormat("json"))

	err := ValidateOutputFormat("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"yaml"`)
}

func TestGetDefaultEndpoint(t *testing.T) {
	t.Setenv(EndpointEnvVar, "")
	assert.Equal(t, DefaultEndpoint, GetDefaultEndpoint())

	t.Setenv(EndpointEnvVar, "http://gateway.internal:9000")
	assert.Equal(t, "http://gateway.internal:9000", GetDefaultEndpoint())
}

func TestRegisterCommonFlags(t *testing.T) {
	t.Setenv(EndpointEnvVar, "")
	t.Setenv(APIKeyEnvVar, "")

	cmd := &cobra.Command{Use: "test"}
	flags := &CommandFlags{}
	RegisterCommonFlags(cmd, flags)

	require.NoError(t, cmd.ParseFlags([]string{
		"--output", "json",
		"--quiet",
		"--endpoint", "http://localhost:9999",
		"--api-key", "k",
	}))

	assert.Equal(t, "json", flags.Output)
	assert.True(t, flags.Quiet)
	assert.Equal(t, "http://localhost:9999", flags.Endpoint)
	assert.Equal(t, "k", flags.APIKey)
}

func TestRegisterCommonFlags_Defaults(t *testing.T) {
	t.Setenv(EndpointEnvVar, "")
	t.Setenv(APIKeyEnvVar, "env-key")

	cmd := &cobra.Command{Use: "test"}
	flags := &CommandFlags{}
	RegisterCommonFlags(cmd, flags)

	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, "table", flags.Output)
	assert.False(t, flags.Quiet)
	assert.Equal(t, DefaultEndpoint, flags.Endpoint)
	assert.Equal(t, "env-key", flags.APIKey)
}

func TestCommandFlags_ToClientOptions(t *testing.T) {
	flags := &CommandFlags{
		Output:   "table",
		Quiet:    true,
		Endpoint: "http://localhost:8090",
		APIKey:   "k",
	}

	options, err := flags.ToClientOptions()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8090", options.Endpoint)
	assert.Equal(t, "k", options.APIKey)
	assert.True(t, options.Quiet)

	flags.Output = "csv"
	_, err = flags.ToClientOptions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
