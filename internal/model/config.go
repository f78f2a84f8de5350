package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the connection settings for the remote task service.
type ServerConfig struct {
	// BaseURL is the root URL of the task service
	// (e.g., https://tasks.example.com).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// FeedConfig holds settings for the realtime change feed subscription.
type FeedConfig struct {
	// Scope selects which task events the subscription receives:
	// "all" for every task, "owned" for tasks owned by the signed-in
	// user. Deployment policy; defaults to "all".
	Scope string `mapstructure:"scope" yaml:"scope"`
}

// NotificationsConfig holds settings for the transient notification queue.
type NotificationsConfig struct {
	// TTLMillis is how long a notification stays visible, in
	// milliseconds.
	TTLMillis int `mapstructure:"ttl_ms" yaml:"ttl_ms"`
}

// SessionConfig holds settings for session state monitoring.
type SessionConfig struct {
	// PollIntervalSec is how often (in seconds) the session monitor
	// re-checks the identity provider for expired credentials.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// LogConfig holds diagnostic logging settings.
type LogConfig struct {
	// File is the path the JSON log is written to. Stdout belongs to
	// the terminal UI, so logs always go to a file.
	File string `mapstructure:"file" yaml:"file"`

	// Level is one of "debug", "info", "warn", "error".
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Feed          FeedConfig          `mapstructure:"feed" yaml:"feed"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Session       SessionConfig       `mapstructure:"session" yaml:"session"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`

	// CachePath is the SQLite file holding the last-known task
	// snapshot. Empty disables the cache.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskmate/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskmate", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".local", "share", "taskmate")
	return &AppConfig{
		Server:        ServerConfig{BaseURL: "http://localhost:8080"},
		Feed:          FeedConfig{Scope: "all"},
		Notifications: NotificationsConfig{TTLMillis: 5000},
		Session:       SessionConfig{PollIntervalSec: 60},
		Log: LogConfig{
			File:  filepath.Join(stateDir, "taskmate.log"),
			Level: "info",
		},
		CachePath: filepath.Join(stateDir, "tasks.db"),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := defaultAppConfig()
	v.SetDefault("server.base_url", def.Server.BaseURL)
	v.SetDefault("feed.scope", def.Feed.Scope)
	v.SetDefault("notifications.ttl_ms", def.Notifications.TTLMillis)
	v.SetDefault("session.poll_interval_sec", def.Session.PollIntervalSec)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("cache_path", def.CachePath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Feed.Scope != "all" && cfg.Feed.Scope != "owned" {
		return nil, fmt.Errorf("config %s: feed.scope must be \"all\" or \"owned\", got %q", path, cfg.Feed.Scope)
	}
	if cfg.Notifications.TTLMillis <= 0 {
		cfg.Notifications.TTLMillis = def.Notifications.TTLMillis
	}
	if cfg.Session.PollIntervalSec <= 0 {
		cfg.Session.PollIntervalSec = def.Session.PollIntervalSec
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

	v.Set("server", cfg.Server)
	v.Set("feed", cfg.Feed)
	v.Set("notifications", cfg.Notifications)
	v.Set("session", cfg.Session)
	v.Set("log", cfg.Log)
	v.Set("cache_path", cfg.CachePath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
