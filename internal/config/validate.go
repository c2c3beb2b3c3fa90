package config

import (
	"fmt"
	"os"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// At least one source required
	if c.Sources.Media == nil && c.Sources.Plex == nil && c.Sources.Catalog == nil {
		errs = append(errs, "sources: at least one source (media, plex or catalog) must be configured")
	}

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	// Media source validation
	if c.Sources.Media != nil {
		if c.Sources.Media.Root == "" {
			errs = append(errs, "sources.media.root: required when media is configured")
		} else if _, err := os.Stat(c.Sources.Media.Root); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("sources.media.root: warning: directory %q does not exist", c.Sources.Media.Root))
		}
	}

	// Plex source validation
	if c.Sources.Plex != nil {
		if c.Sources.Plex.URL == "" {
			errs = append(errs, "sources.plex.url: required when plex is configured")
		}
		if c.Sources.Plex.Token == "" {
			errs = append(errs, "sources.plex.token: required when plex is configured")
		}
	}

	// Catalog source validation
	if c.Sources.Catalog != nil {
		if c.Sources.Catalog.Root == "" {
			errs = append(errs, "sources.catalog.root: required when catalog is configured")
		} else if _, err := os.Stat(c.Sources.Catalog.Root); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("sources.catalog.root: warning: directory %q does not exist", c.Sources.Catalog.Root))
		}
	}

	return errs
}
