package cmd

import (
	"zanalytics/internal/cli"

	"github.com/spf13/cobra"
)

// workspaceColumns orders the table for workspace listings. Fields beyond
// these stay reachable with --output json.
var workspaceColumns = []string{"workspaceId", "workspaceName", "workspaceDesc", "orgId", "createdBy"}

var workspacesFlags = &cli.CommandFlags{}

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "List workspaces visible to the configured Zoho account",
	Args:  cobra.NoArgs,
	RunE:  runWorkspaces,
}

func runWorkspaces(cmd *cobra.Command, args []string) error {
	client, err := connectClient(cmd, workspacesFlags)
	if err != nil {
		return err
	}

	payload, err := client.Workspaces(commandContext(cmd))
	if err != nil {
		return err
	}
	return renderPayload(cmd, workspacesFlags, payload, "workspaces", workspaceColumns)
}

func init() {
	rootCmd.AddCommand(workspacesCmd)
	cli.RegisterCommonFlags(workspacesCmd, workspacesFlags)
}
