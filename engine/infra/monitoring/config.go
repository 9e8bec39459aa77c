package monitoring

import (
	"fmt"
	"net/url"
	"strings"
)

// Config mirrors the monitoring section of the application config.
type Config struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path"    yaml:"path"    mapstructure:"path"`
}

func DefaultConfig() *Config {
	return &Config{Enabled: true, Path: "/metrics"}
}

// Validate accepts a bare absolute URL path such as "/metrics".
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("monitoring path must start with '/': got %q", c.Path)
	}
	u, err := url.Parse(c.Path)
	if err != nil {
		return fmt.Errorf("invalid monitoring path: %w", err)
	}
	if u.RawQuery != "" || u.Fragment != "" || strings.ContainsAny(c.Path, " \t?#") {
		return fmt.Errorf("monitoring path must be a bare path: got %q", c.Path)
	}
	return nil
}
