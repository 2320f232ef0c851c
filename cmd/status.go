package cmd

import (
	"zanalytics/internal/cli"

	"github.com/spf13/cobra"
)

var statusFlags = &cli.CommandFlags{}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the health of a running gateway",
	Long: `Fetches the gateway health snapshot: upstream servers, organization,
and whether an access token is currently cached. Token values are never
part of the output.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	options, err := statusFlags.ToClientOptions()
	if err != nil {
		return err
	}

	client := cli.NewClient(options)
	payload, err := client.Health(commandContext(cmd))
	if err != nil {
		return err
	}

	if statusFlags.Output == string(cli.OutputFormatJSON) {
		return cli.RenderJSON(cmd.OutOrStdout(), payload)
	}
	cli.RenderKeyValue(cmd.OutOrStdout(), payload)
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
	cli.RegisterCommonFlags(statusCmd, statusFlags)
}
