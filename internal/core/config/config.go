// Package config loads sieve settings from defaults, an optional config
// file, SIEVE_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/solatis/sieve/internal/types"
)

// Config is the full sieve configuration.
type Config struct {
	Server   ServerConfig
	Query    QueryConfig
	Database DatabaseConfig
}

// ServerConfig holds settings for the gRPC query service.
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
}

// QueryConfig bounds untrusted filter queries.
type QueryConfig struct {
	MaxLength   int
	MaxCost     int
	DefaultKind string
}

// DatabaseConfig names the task store.
type DatabaseConfig struct {
	URL string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           50051,
			RequestTimeout: 30 * time.Second,
		},
		Query: QueryConfig{
			MaxLength:   types.MaxQueryLength,
			MaxCost:     types.MaxQueryCost,
			DefaultKind: "todos",
		},
		Database: DatabaseConfig{
			URL: "sqlite://sieve.db",
		},
	}
}

// Address returns host:port for listening.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIKeys collects API keys from SIEVE_API_KEY and SIEVE_API_KEY_1,
// SIEVE_API_KEY_2, ... stopping at the first unset number. Keys are only
// read from the environment. Format checks happen in the auth package.
func APIKeys() []string {
	var keys []string
	if val := strings.TrimSpace(os.Getenv("SIEVE_API_KEY")); val != "" {
		keys = append(keys, val)
	}

	// Numbered keys allow rotation: old and new both valid for a while.
	for i := 1; ; i++ {
		val := strings.TrimSpace(os.Getenv(fmt.Sprintf("SIEVE_API_KEY_%d", i)))
		if val == "" {
			break
		}
		keys = append(keys, val)
	}
	return keys
}
