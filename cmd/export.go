package cmd

import (
	"zanalytics/internal/cli"

	"github.com/spf13/cobra"
)

var (
	exportFlags  = &cli.CommandFlags{}
	exportLimit  int
	exportOffset int
)

var exportCmd = &cobra.Command{
	Use:   "export <workspace-id> <view>",
	Short: "Export rows from a view",
	Long: `Exports data rows from a view, addressed by view id or view name.
The gateway caps --limit at 10000; combine --limit and --offset to page
through larger views.`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	client, err := connectClient(cmd, exportFlags)
	if err != nil {
		return err
	}

	payload, err := client.ExportView(commandContext(cmd), args[0], args[1], exportLimit, exportOffset)
	if err != nil {
		return err
	}
	return renderPayload(cmd, exportFlags, payload, "rows", nil)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	cli.RegisterCommonFlags(exportCmd, exportFlags)
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "Maximum number of rows to export (gateway default 100)")
	exportCmd.Flags().IntVar(&exportOffset, "offset", 0, "Number of rows to skip")
}
