package config

// Config is the top-level configuration structure for zanalytics.
type Config struct {
	Zoho    ZohoConfig    `yaml:"zoho"`
	Gateway GatewayConfig `yaml:"gateway"`
}

// ZohoConfig holds the upstream OAuth client configuration and the base URLs
// of the Zoho services. ClientID, ClientSecret and RefreshToken are all
// required for any authenticated upstream call.
type ZohoConfig struct {
	ClientID     string `yaml:"clientID,omitempty"`
	ClientSecret string `yaml:"clientSecret,omitempty"`
	RefreshToken string `yaml:"refreshToken,omitempty"`

	// RefreshTokenFile, when set, points at a file holding the refresh
	// token. The file is read at startup and watched for rotation.
	RefreshTokenFile string `yaml:"refreshTokenFile,omitempty"`

	OrgID string `yaml:"orgID,omitempty"` // Sent as ZANALYTICS-ORGID when non-empty

	AccountsServer  string `yaml:"accountsServer,omitempty"`  // Token endpoint base (default: https://accounts.zoho.com)
	AnalyticsServer string `yaml:"analyticsServer,omitempty"` // Analytics API base (default: https://analyticsapi.zoho.com)

	DataDir string `yaml:"dataDir,omitempty"` // Scratch directory echoed by health (default: /tmp)
}

// GatewayConfig defines the listener configuration for the HTTP/MCP gateway.
type GatewayConfig struct {
	Host string `yaml:"host,omitempty"` // Host to bind to (default: localhost)
	Port int    `yaml:"port,omitempty"` // Listen port (default: 8090)

	// APIKey enables the static X-API-Key authentication scheme on the
	// data endpoints. Tokens issued by the built-in authorization server
	// are accepted regardless.
	APIKey string `yaml:"apiKey,omitempty"`
}

// HasOAuthCredentials reports whether all three mandatory upstream OAuth
// values are present.
func (z ZohoConfig) HasOAuthCredentials() bool {
	return z.ClientID != "" && z.ClientSecret != "" && z.RefreshToken != ""
}
