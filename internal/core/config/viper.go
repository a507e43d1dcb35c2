package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/solatis/sieve/internal/tasks"
)

// FlagKeys maps command-line flag names to configuration keys. Flags not
// present in the set passed to LoadConfig are ignored.
var FlagKeys = map[string]string{
	"host":         "server.host",
	"port":         "server.port",
	"timeout":      "server.request_timeout",
	"db-url":       "database.url",
	"max-length":   "query.max_length",
	"max-cost":     "query.max_cost",
	"default-kind": "query.default_kind",
}

// secretKeys must never come from a config file.
var secretKeys = []string{"api_key", "api_keys", "server.api_key", "server.api_keys"}

// LoadConfig resolves configuration with precedence
// flags > SIEVE_* environment > config file > defaults.
// configPath and flags may both be empty/nil.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.request_timeout", def.Server.RequestTimeout.String())
	v.SetDefault("query.max_length", def.Query.MaxLength)
	v.SetDefault("query.max_cost", def.Query.MaxCost)
	v.SetDefault("query.default_kind", def.Query.DefaultKind)
	v.SetDefault("database.url", def.Database.URL)

	v.SetEnvPrefix("SIEVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Query: QueryConfig{
			MaxLength:   v.GetInt("query.max_length"),
			MaxCost:     v.GetInt("query.max_cost"),
			DefaultKind: v.GetString("query.default_kind"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Query.MaxLength <= 0 {
		return fmt.Errorf("max_length must be positive, got %d", cfg.Query.MaxLength)
	}
	if cfg.Query.MaxCost <= 0 {
		return fmt.Errorf("max_cost must be positive, got %d", cfg.Query.MaxCost)
	}
	kind, err := tasks.ParseKind(cfg.Query.DefaultKind)
	if err != nil {
		return fmt.Errorf("default_kind: %w", err)
	}
	cfg.Query.DefaultKind = string(kind)
	if cfg.Database.URL == "" {
		return fmt.Errorf("database url must not be empty")
	}
	return nil
}

// validateNoSecretsInConfig keeps API keys out of files that get committed
// or copied around.
func validateNoSecretsInConfig(v *viper.Viper) error {
	for _, key := range secretKeys {
		if v.InConfig(key) {
			return fmt.Errorf("API keys not allowed in config files (use SIEVE_API_KEY environment variable)")
		}
	}
	return nil
}
