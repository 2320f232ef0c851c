package cmd

import (
	"fmt"
	"strings"

	"zanalytics/internal/cli"

	"github.com/spf13/cobra"
)

var logoutEndpoint string

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored login token for a gateway",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	endpoint := strings.TrimRight(logoutEndpoint, "/")

	store, err := cli.NewTokenStore("")
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	if err := store.Delete(endpoint); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged out from %s.\n", endpoint)
	return nil
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	logoutCmd.Flags().StringVar(&logoutEndpoint, "endpoint", cli.GetDefaultEndpoint(), "Gateway endpoint URL (env: ZA_ENDPOINT)")
}
