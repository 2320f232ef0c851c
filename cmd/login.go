package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"zanalytics/internal/cli"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

var (
	loginEndpoint     string
	loginCallbackPort int
	loginNoBrowser    bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to a gateway and store the session token",
	Long: `Runs the browser login flow against the gateway's built-in
authorization server and stores the resulting token under
~/.config/zanalytics/tokens. Data commands pick the token up
automatically; an explicit --api-key still wins when set.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	endpoint := strings.TrimRight(loginEndpoint, "/")
	out := cmd.OutOrStdout()

	ctx, cancel := context.WithTimeout(commandContext(cmd), cli.CallbackTimeout)
	defer cancel()

	callback := cli.NewCallbackServer(loginCallbackPort)
	redirectURI, err := callback.Start(ctx)
	if err != nil {
		return &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	}
	defer callback.Stop()

	state, err := randomState()
	if err != nil {
		return err
	}

	oauthCfg := &oauth2.Config{
		ClientID:    "zanalytics-cli",
		RedirectURL: redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   endpoint + "/authorize",
			TokenURL:  endpoint + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	authURL := oauthCfg.AuthCodeURL(state)
	fmt.Fprintf(out, "Opening browser for login. If it does not open, visit:\n\n  %s\n\n", authURL)
	if !loginNoBrowser {
		if err := cli.OpenBrowser(authURL); err != nil {
			fmt.Fprintf(out, "Could not open browser: %v\n", err)
		}
	}

	result, err := callback.WaitForCallback(ctx)
	if err != nil {
		return &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	}
	if result.IsError() {
		return &cli.AuthFailedError{
			Endpoint: endpoint,
			Reason:   fmt.Errorf("%s: %s", result.Error, result.ErrorDescription),
		}
	}
	if result.State != state {
		return &cli.AuthFailedError{Endpoint: endpoint, Reason: errors.New("state parameter mismatch")}
	}

	token, err := oauthCfg.Exchange(ctx, result.Code)
	if err != nil {
		return &cli.AuthFailedError{Endpoint: endpoint, Reason: err}
	}

	store, err := cli.NewTokenStore("")
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	if err := store.Store(endpoint, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	fmt.Fprintf(out, "Login successful. Token stored for %s.\n", endpoint)
	return nil
}

// randomState generates the CSRF state parameter for the authorization
// request.
func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state parameter: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVar(&loginEndpoint, "endpoint", cli.GetDefaultEndpoint(), "Gateway endpoint URL (env: ZA_ENDPOINT)")
	loginCmd.Flags().IntVar(&loginCallbackPort, "callback-port", 0, "Local port for the login callback (default 3000)")
	loginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "Print the login URL instead of opening a browser")
}
