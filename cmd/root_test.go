package cmd

import (
	"errors"
	"fmt"
	"testing"

	"zanalytics/internal/cli"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "auth required",
			err:  &cli.AuthRequiredError{Endpoint: "http://localhost:8090"},
			want: ExitCodeAuthRequired,
		},
		{
			name: "wrapped auth required",
			err:  fmt.Errorf("listing workspaces: %w", &cli.AuthRequiredError{Endpoint: "http://localhost:8090"}),
			want: ExitCodeAuthRequired,
		},
		{
			name: "auth failed",
			err:  &cli.AuthFailedError{Endpoint: "http://localhost:8090", Reason: errors.New("state mismatch")},
			want: ExitCodeAuthFailed,
		},
		{
			name: "generic error",
			err:  errors.New("boom"),
			want: ExitCodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetVersion(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	SetVersion("9.9.9")
	if got := GetVersion(); got != "9.9.9" {
		t.Errorf("GetVersion() = %q, want %q", got, "9.9.9")
	}
}

func TestRootCommandRegistration(t *testing.T) {
	registered := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		registered[sub.Name()] = true
	}

	for _, name := range []string{
		"serve",
		"version",
		"self-update",
		"status",
		"workspaces",
		"views",
		"view",
		"export",
		"query",
		"login",
		"logout",
	} {
		if !registered[name] {
			t.Errorf("command %q not registered on root", name)
		}
	}
}

func TestRootPersistentFlags(t *testing.T) {
	for _, name := range []string{"debug", "silent", "config-path"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag %q not registered", name)
		}
	}
}
