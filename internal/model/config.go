package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// Token is the chat service bot token. When empty, the token is
	// looked up in the system keyring instead.
	Token string `mapstructure:"token" yaml:"token"`

	// UsersPath is the path to the JSON users database.
	UsersPath string `mapstructure:"users_path" yaml:"users_path"`

	// HistoryPath is the path to the SQLite send-history database.
	HistoryPath string `mapstructure:"history_path" yaml:"history_path"`

	// PollTimeoutSec is the long-poll timeout for the chat transport.
	PollTimeoutSec int `mapstructure:"poll_timeout_sec" yaml:"poll_timeout_sec"`

	// Verbose enables debug-level logging.
	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mailerbot/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailerbot", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		UsersPath:      filepath.Join(".", "db.json"),
		HistoryPath:    filepath.Join(".", "history.db"),
		PollTimeoutSec: 30,
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("users_path", filepath.Join(".", "db.json"))
	v.SetDefault("history_path", filepath.Join(".", "history.db"))
	v.SetDefault("poll_timeout_sec", 30)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("token", cfg.Token)
	v.Set("users_path", cfg.UsersPath)
	v.Set("history_path", cfg.HistoryPath)
	v.Set("poll_timeout_sec", cfg.PollTimeoutSec)
	v.Set("verbose", cfg.Verbose)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
