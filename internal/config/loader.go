package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"zanalytics/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/zanalytics"
	configFileName = "config.yaml"
)

func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from the specified directory, layering
// config.yaml over the built-in defaults and environment variables over
// both. A missing config.yaml is not an error.
func LoadConfig(configPath string) (Config, error) {
	config := GetDefaultConfig()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
		}
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	applyEnvironment(&config)
	normalize(&config)

	if err := loadRefreshTokenFile(&config); err != nil {
		return Config{}, err
	}

	return config, nil
}

// applyEnvironment overlays environment variables on the config. The
// variable names match the ones the service has always used.
func applyEnvironment(config *Config) {
	setIfPresent := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	setIfPresent("ANALYTICS_CLIENT_ID", &config.Zoho.ClientID)
	setIfPresent("ANALYTICS_CLIENT_SECRET", &config.Zoho.ClientSecret)
	setIfPresent("ANALYTICS_REFRESH_TOKEN", &config.Zoho.RefreshToken)
	setIfPresent("ANALYTICS_REFRESH_TOKEN_FILE", &config.Zoho.RefreshTokenFile)
	setIfPresent("ANALYTICS_ORG_ID", &config.Zoho.OrgID)
	setIfPresent("ANALYTICS_SERVER_URL", &config.Zoho.AnalyticsServer)
	setIfPresent("ACCOUNTS_SERVER_URL", &config.Zoho.AccountsServer)
	setIfPresent("ANALYTICS_MCP_DATA_DIR", &config.Zoho.DataDir)
	setIfPresent("API_KEY", &config.Gateway.APIKey)
	setIfPresent("ZA_HOST", &config.Gateway.Host)

	if v, ok := os.LookupEnv("ZA_PORT"); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && port > 0 {
			config.Gateway.Port = port
		} else {
			logging.Warn("ConfigLoader", "Ignoring invalid ZA_PORT value %q", v)
		}
	}
}

// normalize strips trailing slashes from the base URLs so path joining is
// uniform everywhere else.
func normalize(config *Config) {
	config.Zoho.AccountsServer = strings.TrimRight(config.Zoho.AccountsServer, "/")
	config.Zoho.AnalyticsServer = strings.TrimRight(config.Zoho.AnalyticsServer, "/")
}

// loadRefreshTokenFile reads the refresh token from RefreshTokenFile when
// one is configured. The file value takes precedence over any inline value
// so rotation always wins.
func loadRefreshTokenFile(config *Config) error {
	if config.Zoho.RefreshTokenFile == "" {
		return nil
	}

	token, err := ReadRefreshTokenFile(config.Zoho.RefreshTokenFile)
	if err != nil {
		return fmt.Errorf("error reading refresh token file %s: %w", config.Zoho.RefreshTokenFile, err)
	}

	config.Zoho.RefreshToken = token
	logging.Info("ConfigLoader", "Loaded refresh token from %s", config.Zoho.RefreshTokenFile)
	return nil
}

// ReadRefreshTokenFile reads and trims a refresh token from disk. Shared
// with the rotation watcher.
func ReadRefreshTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("refresh token file %s is empty", path)
	}
	return token, nil
}
