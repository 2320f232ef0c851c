package config

const (
	// DefaultAccountsServer is the Zoho accounts base URL used for the
	// OAuth refresh-token exchange.
	DefaultAccountsServer = "https://accounts.zoho.com"

	// DefaultAnalyticsServer is the Zoho Analytics REST API base URL.
	DefaultAnalyticsServer = "https://analyticsapi.zoho.com"

	// DefaultDataDir is the scratch directory reported by health.
	DefaultDataDir = "/tmp"
)

// GetDefaultConfig returns the built-in defaults. File and environment
// values are layered on top by the loader.
func GetDefaultConfig() Config {
	return Config{
		Zoho: ZohoConfig{
			AccountsServer:  DefaultAccountsServer,
			AnalyticsServer: DefaultAnalyticsServer,
			DataDir:         DefaultDataDir,
		},
		Gateway: GatewayConfig{
			Host: "localhost",
			Port: 8090,
		},
	}
}
