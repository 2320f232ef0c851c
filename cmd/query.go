package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"zanalytics/internal/cli"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var queryFlags = &cli.CommandFlags{}

var queryCmd = &cobra.Command{
	Use:   "query <workspace-id> [sql...]",
	Short: "Run SQL against a workspace",
	Long: `Runs a SQL SELECT query against a workspace through the gateway.

With a SQL argument the query runs once and the command exits:

  zanalytics query 12345 "SELECT Region, SUM(Sales) FROM Orders GROUP BY Region"

Without one an interactive shell opens: statement history, tab completion
for SQL keywords, Ctrl+D or 'exit' to leave.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	client, err := connectClient(cmd, queryFlags)
	if err != nil {
		return err
	}

	workspaceID := args[0]
	if len(args) > 1 {
		return executeQuery(cmd, client, workspaceID, strings.Join(args[1:], " "))
	}
	return runQueryShell(cmd, client, workspaceID)
}

// executeQuery runs one statement and renders the result rows.
func executeQuery(cmd *cobra.Command, client *cli.Client, workspaceID, sql string) error {
	var payload map[string]interface{}
	err := cli.WithSpinner(queryFlags.Quiet, "Running query...", "", func() error {
		var queryErr error
		payload, queryErr = client.Query(commandContext(cmd), workspaceID, sql)
		return queryErr
	})
	if err != nil {
		return err
	}
	return renderPayload(cmd, queryFlags, payload, "rows", nil)
}

// sqlCompleter offers the keywords of the SELECT dialect Zoho Analytics
// accepts. Table and column names are workspace data the shell does not
// know up front.
var sqlCompleter = readline.NewPrefixCompleter(
	readline.PcItem("SELECT"),
	readline.PcItem("FROM"),
	readline.PcItem("WHERE"),
	readline.PcItem("GROUP BY"),
	readline.PcItem("HAVING"),
	readline.PcItem("ORDER BY"),
	readline.PcItem("LIMIT"),
	readline.PcItem("OFFSET"),
	readline.PcItem("JOIN"),
	readline.PcItem("UNION"),
	readline.PcItem("DISTINCT"),
	readline.PcItem("exit"),
)

// filterInput filters input characters for readline.
func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// runQueryShell drives the interactive SQL loop until Ctrl+D or exit.
func runQueryShell(cmd *cobra.Command, client *cli.Client, workspaceID string) error {
	out := cmd.OutOrStdout()
	historyFile := filepath.Join(os.TempDir(), ".zanalytics_query_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s sql> ", workspaceID),
		HistoryFile:     historyFile,
		AutoComplete:    sqlCompleter,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(out, "Interactive SQL shell for workspace %s. Type 'exit' or press Ctrl+D to leave.\n\n", workspaceID)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				continue
			}
		} else if err == io.EOF {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		// Query errors are shown inline so a typo does not end the session.
		if err := executeQuery(cmd, client, workspaceID, input); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}

		fmt.Fprintln(out)
	}
}

func init() {
	rootCmd.AddCommand(queryCmd)
	cli.RegisterCommonFlags(queryCmd, queryFlags)
}
