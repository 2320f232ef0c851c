package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"zanalytics/internal/config"
	"zanalytics/pkg/logging"
)

// Application bundles the loaded configuration and the wired services.
//
// It follows a two-phase initialization pattern:
//  1. Bootstrap phase: configure logging, load configuration, wire services
//  2. Execution phase: run the gateway until the context is canceled
type Application struct {
	config   *Config
	services *Services
}

// NewApplication creates and initializes an application instance. It
// configures logging from the debug and output flags, loads and validates
// the service configuration, and wires all services. Any failure along the
// way aborts the bootstrap.
func NewApplication(cfg *Config) (*Application, error) {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}

	var output io.Writer = os.Stdout
	if cfg.Silent {
		output = io.Discard
	}
	if cfg.JSONLogs {
		logging.InitForService(level, output)
	} else {
		logging.InitForCLI(level, output)
	}

	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPathOrPanic()
	}

	serviceCfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from %s", configPath)
		return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}
	if cfg.Host != "" {
		serviceCfg.Gateway.Host = cfg.Host
	}
	if cfg.Port != 0 {
		serviceCfg.Gateway.Port = cfg.Port
	}
	if err := config.Validate(serviceCfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.ServiceConfig = &serviceCfg

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Run starts the gateway and blocks until ctx is canceled, then performs a
// graceful shutdown. The method returns the first error encountered while
// starting or stopping the services.
func (a *Application) Run(ctx context.Context) error {
	return runService(ctx, a.services)
}
