package cmd

import (
	"context"

	"zanalytics/internal/cli"

	"github.com/spf13/cobra"
)

// connectClient builds a gateway client from common command flags and
// verifies the gateway is reachable before the actual request goes out.
func connectClient(cmd *cobra.Command, flags *cli.CommandFlags) (*cli.Client, error) {
	options, err := flags.ToClientOptions()
	if err != nil {
		return nil, err
	}

	client := cli.NewClient(options)
	if err := client.Connect(commandContext(cmd)); err != nil {
		return nil, err
	}
	return client, nil
}

// renderPayload writes a gateway response in the selected output format.
// Table output falls back to a key/value dump when the payload carries no
// row list under the given key.
func renderPayload(cmd *cobra.Command, flags *cli.CommandFlags, payload map[string]interface{}, rowsKey string, columns []string) error {
	if flags.Output == string(cli.OutputFormatJSON) {
		return cli.RenderJSON(cmd.OutOrStdout(), payload)
	}

	rows, ok := cli.Rows(payload, rowsKey)
	if !ok {
		cli.RenderKeyValue(cmd.OutOrStdout(), payload)
		return nil
	}

	cli.RenderTable(cmd.OutOrStdout(), cli.Columns(rows, columns), rows)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
