package app

import (
	"zanalytics/internal/config"
)

// Config holds the application bootstrap configuration.
type Config struct {
	// Debug enables debug-level logging.
	Debug bool

	// Silent suppresses all log output. Used when the caller owns stdout.
	Silent bool

	// JSONLogs switches to the line-oriented JSON log handler intended for
	// running under a process supervisor.
	JSONLogs bool

	// ConfigPath is the directory holding config.yaml. Empty selects the
	// default user configuration directory.
	ConfigPath string

	// Host overrides the gateway listen host when non-empty. It backs the
	// serve command's --host flag and wins over file and environment.
	Host string

	// Port overrides the gateway listen port when non-zero.
	Port int

	// ServiceConfig is populated during bootstrap.
	ServiceConfig *config.Config
}

// NewConfig creates a new application configuration.
func NewConfig(debug, silent bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Silent:     silent,
		ConfigPath: configPath,
	}
}
