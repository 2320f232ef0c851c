package app

import (
	"fmt"

	"zanalytics/internal/authserver"
	"zanalytics/internal/gateway"
	"zanalytics/internal/zoho"
	"zanalytics/pkg/logging"
)

// Services holds the wired components of the running gateway.
type Services struct {
	// Analytics is the authenticated Zoho Analytics client shared by every
	// surface of the gateway.
	Analytics *zoho.Client

	// Auth is the embedded authorization server backing connector sign-in
	// and Bearer validation.
	Auth *authserver.Server

	// Gateway is the HTTP server exposing the REST, JSON-RPC, and SSE
	// surfaces.
	Gateway *gateway.Server

	// Watcher rotates the upstream refresh token when the configured token
	// file changes. Nil when no file is configured.
	Watcher *zoho.CredentialWatcher
}

// InitializeServices wires the analytics client, the authorization server,
// the gateway, and the optional credential watcher from the loaded
// configuration.
func InitializeServices(cfg *Config) (*Services, error) {
	zohoCfg := cfg.ServiceConfig.Zoho

	analytics := zoho.NewClient(zoho.Config{
		ClientID:        zohoCfg.ClientID,
		ClientSecret:    zohoCfg.ClientSecret,
		RefreshToken:    zohoCfg.RefreshToken,
		OrgID:           zohoCfg.OrgID,
		AccountsServer:  zohoCfg.AccountsServer,
		AnalyticsServer: zohoCfg.AnalyticsServer,
		DataDir:         zohoCfg.DataDir,
	})

	auth := authserver.NewServer()

	gw := gateway.NewServer(gateway.Config{
		Host:   cfg.ServiceConfig.Gateway.Host,
		Port:   cfg.ServiceConfig.Gateway.Port,
		APIKey: cfg.ServiceConfig.Gateway.APIKey,
	}, analytics, auth)

	services := &Services{
		Analytics: analytics,
		Auth:      auth,
		Gateway:   gw,
	}

	if zohoCfg.RefreshTokenFile != "" {
		watcher, err := zoho.NewCredentialWatcher(zoho.CredentialWatcherConfig{
			Path: zohoCfg.RefreshTokenFile,
			OnRotate: func(token string) {
				logging.Info("Services", "Refresh token rotated on disk, installing new credential")
				analytics.RotateRefreshToken(token)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create credential watcher: %w", err)
		}
		services.Watcher = watcher
	}

	return services, nil
}
