package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Backend struct {
	// Base URL of the REST backend, including the /api prefix.
	BaseURL string `mapstructure:"base_url"`
	// Optional bearer token sent with every request.
	Token string `mapstructure:"token"`
	// HTTP timeout in seconds.
	Timeout uint `mapstructure:"timeout"`
	// Upper bound on RFID log pages read per refresh.
	MaxEntryPages int `mapstructure:"max_entry_pages"`
}

type Auth struct {
	// HMAC secret for operator tokens. Empty leaves the mutating endpoints open.
	Secret string `mapstructure:"secret"`
	// Default operator token lifetime in minutes.
	TokenTTL uint `mapstructure:"token_ttl"`
}

type Config struct {
	LogLevel string `mapstructure:"log_level"`

	ListenAddr string `mapstructure:"listen_addr"`
	// Comma separated list of allowed CIDR networks. Empty means allow all.
	AllowedNetworks string `mapstructure:"allowed_networks"`

	// Cron spec for scheduled refreshes, e.g. "@every 30s". Empty disables polling.
	RefreshInterval string `mapstructure:"refresh_interval"`

	Auth    Auth    `mapstructure:"auth"`
	Backend Backend `mapstructure:"backend"`
	Storage Storage `mapstructure:"storage"`
}

// Check if running in Docker container by checking for the presence of /.dockerenv file
func runningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

func getConfigPath() string {
	if runningInDocker() {
		return "/app/instance"
	}
	return "./instance"
}

// LoadConfig reads configuration from defaults, an optional config file and
// environment variables, in increasing order of precedence.
func LoadConfig(configFile ...string) (*Config, error) {
	var cfg Config

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(getConfigPath())
	v.AddConfigPath(".")

	for _, path := range configFile {
		if path != "" {
			v.SetConfigFile(path)
		}
	}

	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	// BACKEND_BASE_URL overrides backend.base_url
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
		slog.Debug("No config file found, using defaults and environment")
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if cfg.Backend.MaxEntryPages <= 0 {
		slog.Warn("backend.max_entry_pages must be positive", slog.Int("actual", cfg.Backend.MaxEntryPages))
		cfg.Backend.MaxEntryPages = 1
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = defaults["auth.token_ttl"].(uint)
	}

	// Convert relative sqlite path to absolute instance folder
	if cfg.Storage.SQLite != nil && cfg.Storage.SQLite.Path != "" {
		if cfg.Storage.SQLite.Path == ":memory:" {
			// In-memory database, do nothing
		} else if !os.IsPathSeparator(cfg.Storage.SQLite.Path[0]) {
			cfg.Storage.SQLite.Path = fmt.Sprintf("%s/%s", getConfigPath(), cfg.Storage.SQLite.Path)
		}
	}

	return &cfg, nil
}
