// Package config provides configuration management for studify.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/spf13/viper"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// EnvPrefix prefixes environment overrides, e.g. STUDIFY_SERVER_URL.
const EnvPrefix = "STUDIFY"

const defaultDataDir = "~/.studify"

// Config holds all configuration for the studify application.
type Config struct {
	Backend       string             `mapstructure:"backend"`
	Server        ServerConfig       `mapstructure:"server"`
	Goals         GoalsConfig        `mapstructure:"goals"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Log           LogConfig          `mapstructure:"log"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	History       HistoryConfig      `mapstructure:"history"`
}

// ServerConfig holds the remote backend settings.
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// GoalsConfig holds study goals.
type GoalsConfig struct {
	Daily int `mapstructure:"daily"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Sound   bool `mapstructure:"sound"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LogConfig holds logging settings. An empty File disables file logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// MetricsConfig holds the prometheus endpoint address. Empty disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// HistoryConfig holds history paging settings.
type HistoryConfig struct {
	PageSize  int `mapstructure:"page_size"`
	CacheSize int `mapstructure:"cache_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendLocal,
		Server: ServerConfig{
			Timeout: 10 * time.Second,
		},
		Goals: GoalsConfig{
			Daily: domain.DefaultDailyGoal,
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Sound:   false,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir,
		},
		Log: LogConfig{
			Level: "info",
			File:  "studify.log",
		},
		History: HistoryConfig{
			PageSize:  domain.DefaultHistoryLimit,
			CacheSize: 32,
		},
	}
}

// Load loads the configuration from the default config file.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath, creating the file with
// defaults when it does not exist. Environment variables override the file.
func LoadFrom(configPath string) (*Config, error) {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper(configPath)

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveTo(configPath, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dataDir, err := expandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dataDir

	return &cfg, nil
}

// Save saves the configuration to the default config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveTo(configPath, cfg)
}

// SaveTo writes cfg to configPath.
func SaveTo(configPath string, cfg *Config) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	v.Set("backend", cfg.Backend)
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout", cfg.Server.Timeout.String())
	v.Set("goals.daily", cfg.Goals.Daily)
	v.Set("notifications.enabled", cfg.Notifications.Enabled)
	v.Set("notifications.sound", cfg.Notifications.Sound)
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("metrics.addr", cfg.Metrics.Addr)
	v.Set("history.page_size", cfg.History.PageSize)
	v.Set("history.cache_size", cfg.History.CacheSize)

	return v.WriteConfig()
}

// Validate reports the first invalid setting, naming its key.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
	case BackendRemote:
		if strings.TrimSpace(c.Server.URL) == "" {
			return fmt.Errorf("%w: server.url is required when backend is %q", domain.ErrValidation, BackendRemote)
		}
	default:
		return fmt.Errorf("%w: backend must be %q or %q, got %q", domain.ErrValidation, BackendLocal, BackendRemote, c.Backend)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("%w: server.timeout must be positive", domain.ErrValidation)
	}
	if c.Goals.Daily <= 0 {
		return fmt.Errorf("%w: goals.daily must be positive, got %d", domain.ErrValidation, c.Goals.Daily)
	}
	if c.History.PageSize <= 0 {
		return fmt.Errorf("%w: history.page_size must be positive, got %d", domain.ErrValidation, c.History.PageSize)
	}
	if c.History.CacheSize <= 0 {
		return fmt.Errorf("%w: history.cache_size must be positive, got %d", domain.ErrValidation, c.History.CacheSize)
	}
	return nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".studify", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "studify.db")
}

// GetLogPath returns the log file path, or "" when file logging is off.
func GetLogPath(cfg *Config) string {
	if cfg.Log.File == "" {
		return ""
	}
	if filepath.IsAbs(cfg.Log.File) {
		return cfg.Log.File
	}
	return filepath.Join(cfg.Storage.DataDir, cfg.Log.File)
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("backend", d.Backend)
	v.SetDefault("server.url", d.Server.URL)
	v.SetDefault("server.timeout", d.Server.Timeout.String())
	v.SetDefault("goals.daily", d.Goals.Daily)
	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
	v.SetDefault("notifications.sound", d.Notifications.Sound)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("history.page_size", d.History.PageSize)
	v.SetDefault("history.cache_size", d.History.CacheSize)
}

// expandHome resolves a leading ~ in the data directory.
func expandHome(dir string) (string, error) {
	if dir == "" {
		dir = defaultDataDir
	}
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(dir, "~")), nil
}
