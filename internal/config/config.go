// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Cache    CacheConfig    `toml:"cache"`
	Sources  SourcesConfig  `toml:"sources"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type CacheConfig struct {
	Dir string `toml:"dir"`
}

// SourcesConfig declares the backing sources. Each entry is optional; the
// gateway serves whatever subset is configured.
type SourcesConfig struct {
	Media   *MediaSourceConfig   `toml:"media"`
	Plex    *PlexSourceConfig    `toml:"plex"`
	Catalog *CatalogSourceConfig `toml:"catalog"`
}

// MediaSourceConfig configures the local filesystem source.
type MediaSourceConfig struct {
	Root string `toml:"root"`
}

// PlexSourceConfig configures the remote media-server source.
type PlexSourceConfig struct {
	URL   string `toml:"url"`
	Token string `toml:"token"`
}

// CatalogSourceConfig configures the annotated local catalog source.
type CatalogSourceConfig struct {
	Root string `toml:"root"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8591
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/omnicast.db"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "./data/cache"
	}

	return &cfg, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}
