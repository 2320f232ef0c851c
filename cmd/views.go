package cmd

import (
	"zanalytics/internal/cli"

	"github.com/spf13/cobra"
)

// viewColumns orders the table for view listings.
var viewColumns = []string{"viewId", "viewName", "viewType", "viewDesc", "createdBy"}

var (
	viewsFlags   = &cli.CommandFlags{}
	viewsSearch  string
	viewsLimit   int
	viewsOffset  int
	detailsFlags = &cli.CommandFlags{}
)

var viewsCmd = &cobra.Command{
	Use:   "views <workspace-id>",
	Short: "List or search views in a workspace",
	Long: `Lists the views (tables, reports, dashboards) of a workspace. With
--search only views whose name or description match the keyword are
returned. The gateway caps --limit at 2000.`,
	Args: cobra.ExactArgs(1),
	RunE: runViews,
}

func runViews(cmd *cobra.Command, args []string) error {
	client, err := connectClient(cmd, viewsFlags)
	if err != nil {
		return err
	}

	payload, err := client.Views(commandContext(cmd), args[0], viewsSearch, viewsLimit, viewsOffset)
	if err != nil {
		return err
	}
	return renderPayload(cmd, viewsFlags, payload, "views", viewColumns)
}

var viewCmd = &cobra.Command{
	Use:   "view <workspace-id> <view-id>",
	Short: "Show the metadata of a single view",
	Args:  cobra.ExactArgs(2),
	RunE:  runViewDetails,
}

func runViewDetails(cmd *cobra.Command, args []string) error {
	client, err := connectClient(cmd, detailsFlags)
	if err != nil {
		return err
	}

	payload, err := client.ViewDetails(commandContext(cmd), args[0], args[1])
	if err != nil {
		return err
	}

	if detailsFlags.Output == string(cli.OutputFormatJSON) {
		return cli.RenderJSON(cmd.OutOrStdout(), payload)
	}
	cli.RenderKeyValue(cmd.OutOrStdout(), cli.Object(payload, "views", "view"))
	return nil
}

func init() {
	rootCmd.AddCommand(viewsCmd)
	cli.RegisterCommonFlags(viewsCmd, viewsFlags)
	viewsCmd.Flags().StringVarP(&viewsSearch, "search", "s", "", "Keyword filter on view names and descriptions")
	viewsCmd.Flags().IntVar(&viewsLimit, "limit", 0, "Maximum number of views to return (gateway default 200)")
	viewsCmd.Flags().IntVar(&viewsOffset, "offset", 0, "Number of views to skip")

	rootCmd.AddCommand(viewCmd)
	cli.RegisterCommonFlags(viewCmd, detailsFlags)
}
