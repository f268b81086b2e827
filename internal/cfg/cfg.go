// Package cfg loads forecaster settings from a YAML file and the
// environment. A CONFIG_FILE path takes precedence, with individual
// environment variables overriding file values.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"marketcast/internal/common"
)

type Settings struct {
	ModelPath     string
	DataPath      string
	GammaBaseURL  string
	RESTTimeout   time.Duration
	HistoryWindow int
	LogLevel      string
}

type ConfigFile struct {
	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`

	Gamma struct {
		BaseURL string `yaml:"baseURL"`
		Timeout string `yaml:"timeout"`
	} `yaml:"gamma"`

	System struct {
		DataPath      string `yaml:"dataPath"`
		HistoryWindow int    `yaml:"historyWindow"`
		LogLevel      string `yaml:"logLevel"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	restTimeout, err := time.ParseDuration(config.Gamma.Timeout)
	if err != nil {
		restTimeout = 5 * time.Second
	}

	settings := Settings{
		ModelPath:     getEnvOrDefault(common.EnvModelPath, stringOrDefault(config.Model.Path, common.DefaultModelPath)),
		DataPath:      getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		GammaBaseURL:  getEnvOrDefault(common.EnvGammaBaseURL, stringOrDefault(config.Gamma.BaseURL, common.DefaultGammaBaseURL)),
		RESTTimeout:   getDurationOrDefault(common.EnvRESTTimeout, restTimeout),
		HistoryWindow: getIntFromEnvOrConfig(common.EnvHistoryWindow, config.System.HistoryWindow),
		LogLevel:      getEnvOrDefault(common.EnvLogLevel, stringOrDefault(config.System.LogLevel, common.DefaultLogLevel)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ModelPath:     getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		DataPath:      os.Getenv(common.EnvDataPath), // optional
		GammaBaseURL:  getEnvOrDefault(common.EnvGammaBaseURL, common.DefaultGammaBaseURL),
		RESTTimeout:   getDurationOrDefault(common.EnvRESTTimeout, 5*time.Second),
		HistoryWindow: getIntOrDefault(common.EnvHistoryWindow, common.DefaultHistoryWindow),
		LogLevel:      getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return common.DefaultHistoryWindow
}

func stringOrDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// validateSettings performs validation of configuration values.
func validateSettings(settings *Settings) error {
	if settings.GammaBaseURL == "" {
		return fmt.Errorf("gamma base URL cannot be empty")
	}
	if settings.RESTTimeout < time.Second || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", settings.RESTTimeout)
	}
	if settings.HistoryWindow < 2 || settings.HistoryWindow > 1000 {
		return fmt.Errorf("history window must be between 2 and 1000, got %d", settings.HistoryWindow)
	}
	switch settings.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}
	return nil
}
