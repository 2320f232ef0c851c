package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearAppEnv neutralizes the configuration environment variables so the
// surrounding shell cannot leak into bootstrap tests.
func clearAppEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ANALYTICS_CLIENT_ID", "ANALYTICS_CLIENT_SECRET", "ANALYTICS_REFRESH_TOKEN",
		"ANALYTICS_REFRESH_TOKEN_FILE", "ANALYTICS_ORG_ID", "ANALYTICS_SERVER_URL",
		"ACCOUNTS_SERVER_URL", "ANALYTICS_MCP_DATA_DIR", "API_KEY", "ZA_HOST", "ZA_PORT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfigYAML(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config.yaml: %v", err)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(true, false, "/etc/zanalytics")

	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Silent {
		t.Error("Silent = true, want false")
	}
	if cfg.JSONLogs {
		t.Error("JSONLogs = true, want false")
	}
	if cfg.ConfigPath != "/etc/zanalytics" {
		t.Errorf("ConfigPath = %q, want %q", cfg.ConfigPath, "/etc/zanalytics")
	}
	if cfg.ServiceConfig != nil {
		t.Error("ServiceConfig should be nil before bootstrap")
	}
}

func TestNewApplication_DefaultsOnly(t *testing.T) {
	clearAppEnv(t)
	cfg := NewConfig(false, true, t.TempDir())

	app, err := NewApplication(cfg)
	if err != nil {
		t.Fatalf("NewApplication() error = %v", err)
	}
	t.Cleanup(app.services.Auth.Stop)

	if cfg.ServiceConfig == nil {
		t.Fatal("ServiceConfig not populated during bootstrap")
	}
	if got := cfg.ServiceConfig.Gateway.Port; got != 8090 {
		t.Errorf("Gateway.Port = %d, want 8090", got)
	}
	if app.services.Analytics == nil {
		t.Error("Analytics client not wired")
	}
	if app.services.Auth == nil {
		t.Error("Auth server not wired")
	}
	if app.services.Gateway == nil {
		t.Error("Gateway server not wired")
	}
	if app.services.Watcher != nil {
		t.Error("Watcher should be nil without a refresh token file")
	}
}

func TestNewApplication_ConfigFile(t *testing.T) {
	clearAppEnv(t)
	dir := t.TempDir()
	writeConfigYAML(t, dir, `
zoho:
  clientID: 1000.FILECLIENT
  clientSecret: filesecret
  refreshToken: filerefresh
  orgID: "700001"
gateway:
  port: 9999
  apiKey: file-api-key
`)

	app, err := NewApplication(NewConfig(false, true, dir))
	if err != nil {
		t.Fatalf("NewApplication() error = %v", err)
	}
	t.Cleanup(app.services.Auth.Stop)

	loaded := app.config.ServiceConfig
	if loaded.Zoho.ClientID != "1000.FILECLIENT" {
		t.Errorf("ClientID = %q, want %q", loaded.Zoho.ClientID, "1000.FILECLIENT")
	}
	if loaded.Zoho.OrgID != "700001" {
		t.Errorf("OrgID = %q, want %q", loaded.Zoho.OrgID, "700001")
	}
	if loaded.Gateway.Port != 9999 {
		t.Errorf("Gateway.Port = %d, want 9999", loaded.Gateway.Port)
	}
	if loaded.Gateway.APIKey != "file-api-key" {
		t.Errorf("Gateway.APIKey = %q, want %q", loaded.Gateway.APIKey, "file-api-key")
	}
}

func TestNewApplication_ListenerOverrides(t *testing.T) {
	clearAppEnv(t)
	dir := t.TempDir()
	writeConfigYAML(t, dir, `
gateway:
  port: 9999
`)

	cfg := NewConfig(false, true, dir)
	cfg.Host = "127.0.0.1"
	cfg.Port = 18090

	app, err := NewApplication(cfg)
	if err != nil {
		t.Fatalf("NewApplication() error = %v", err)
	}
	t.Cleanup(app.services.Auth.Stop)

	if got := cfg.ServiceConfig.Gateway.Host; got != "127.0.0.1" {
		t.Errorf("Gateway.Host = %q, want %q", got, "127.0.0.1")
	}
	if got := cfg.ServiceConfig.Gateway.Port; got != 18090 {
		t.Errorf("Gateway.Port = %d, want 18090", got)
	}
}

func TestNewApplication_RefreshTokenFile(t *testing.T) {
	clearAppEnv(t)
	dir := t.TempDir()

	tokenFile := filepath.Join(dir, "refresh-token")
	if err := os.WriteFile(tokenFile, []byte("rotated-refresh\n"), 0600); err != nil {
		t.Fatalf("Failed to write token file: %v", err)
	}
	writeConfigYAML(t, dir, fmt.Sprintf("zoho:\n  refreshTokenFile: %q\n", tokenFile))

	app, err := NewApplication(NewConfig(false, true, dir))
	if err != nil {
		t.Fatalf("NewApplication() error = %v", err)
	}
	t.Cleanup(app.services.Auth.Stop)

	if app.services.Watcher == nil {
		t.Fatal("Watcher not wired for configured refresh token file")
	}
	if got := app.config.ServiceConfig.Zoho.RefreshToken; got != "rotated-refresh" {
		t.Errorf("RefreshToken = %q, want %q", got, "rotated-refresh")
	}
}

func TestNewApplication_Failures(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "malformed config file",
			yaml:    "zoho: [not a mapping",
			wantErr: "failed to load configuration",
		},
		{
			name:    "validation failure",
			yaml:    "gateway:\n  port: -1\n",
			wantErr: "invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAppEnv(t)
			dir := t.TempDir()
			writeConfigYAML(t, dir, tt.yaml)

			app, err := NewApplication(NewConfig(false, true, dir))
			if err == nil {
				t.Fatal("NewApplication() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
			if app != nil {
				t.Error("App should be nil when NewApplication fails")
			}
		})
	}
}
