package config

import (
	"context"
	"time"

	"github.com/linode/cloudmanager/pkg/config/definition"
)

// Config is the complete configuration of the sync layer and its CLI.
type Config struct {
	API        APIConfig        `koanf:"api"        validate:"required"`
	Fetch      FetchConfig      `koanf:"fetch"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	Log        LogConfig        `koanf:"log"`
}

// APIConfig configures the HTTP transport.
type APIConfig struct {
	BaseURL      string          `koanf:"base_url"       validate:"required,http_url"   env:"CLOUDMANAGER_API_BASE_URL"`
	Token        SensitiveString `koanf:"token"                                          env:"CLOUDMANAGER_API_TOKEN"          sensitive:"true"`
	Timeout      time.Duration   `koanf:"timeout"                                        env:"CLOUDMANAGER_API_TIMEOUT"`
	PageSize     int             `koanf:"page_size"      validate:"min=25,max=500"      env:"CLOUDMANAGER_API_PAGE_SIZE"`
	RetryCount   int             `koanf:"retry_count"    validate:"min=0"               env:"CLOUDMANAGER_API_RETRY_COUNT"`
	RetryWait    time.Duration   `koanf:"retry_wait"                                     env:"CLOUDMANAGER_API_RETRY_WAIT"`
	RetryMaxWait time.Duration   `koanf:"retry_max_wait"                                 env:"CLOUDMANAGER_API_RETRY_MAX_WAIT"`
	RateLimit    int64           `koanf:"rate_limit"     validate:"min=0"               env:"CLOUDMANAGER_API_RATE_LIMIT"`
	RatePeriod   time.Duration   `koanf:"rate_period"                                    env:"CLOUDMANAGER_API_RATE_PERIOD"`
}

// FetchConfig tunes the thunks.
type FetchConfig struct {
	Concurrency  int           `koanf:"concurrency"   validate:"min=1,max=64" env:"CLOUDMANAGER_FETCH_CONCURRENCY"`
	MaxRestarts  int           `koanf:"max_restarts"  validate:"min=0"        env:"CLOUDMANAGER_FETCH_MAX_RESTARTS"`
	PollInterval time.Duration `koanf:"poll_interval"                         env:"CLOUDMANAGER_FETCH_POLL_INTERVAL"`
}

type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"CLOUDMANAGER_MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"CLOUDMANAGER_MONITORING_PATH"    validate:"required,startswith=/"`
}

type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error disabled" env:"CLOUDMANAGER_LOG_LEVEL"`
	JSON   bool   `koanf:"json"                                                    env:"CLOUDMANAGER_LOG_JSON"`
	Source bool   `koanf:"source"                                                  env:"CLOUDMANAGER_LOG_SOURCE"`
}

// Service loads and validates configuration.
type Service interface {
	// Load applies defaults, then sources, then the environment, then CLI sources.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	Validate(config *Config) error
	// GetSource reports which source provided key.
	GetSource(key string) SourceType
}

// Source provides configuration data.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
}

type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata records where each loaded key came from.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Load loads defaults and the environment with the default service.
func Load() (*Config, error) {
	return NewService().Load(context.Background())
}

// Default returns the registry defaults.
func Default() *Config {
	registry := definition.CreateRegistry()
	return &Config{
		API: APIConfig{
			BaseURL:      getString(registry, "api.base_url"),
			Token:        SensitiveString(getString(registry, "api.token")),
			Timeout:      getDuration(registry, "api.timeout"),
			PageSize:     getInt(registry, "api.page_size"),
			RetryCount:   getInt(registry, "api.retry_count"),
			RetryWait:    getDuration(registry, "api.retry_wait"),
			RetryMaxWait: getDuration(registry, "api.retry_max_wait"),
			RateLimit:    getInt64(registry, "api.rate_limit"),
			RatePeriod:   getDuration(registry, "api.rate_period"),
		},
		Fetch: FetchConfig{
			Concurrency:  getInt(registry, "fetch.concurrency"),
			MaxRestarts:  getInt(registry, "fetch.max_restarts"),
			PollInterval: getDuration(registry, "fetch.poll_interval"),
		},
		Monitoring: MonitoringConfig{
			Enabled: getBool(registry, "monitoring.enabled"),
			Path:    getString(registry, "monitoring.path"),
		},
		Log: LogConfig{
			Level:  getString(registry, "log.level"),
			JSON:   getBool(registry, "log.json"),
			Source: getBool(registry, "log.source"),
		},
	}
}

func getString(registry *definition.Registry, path string) string {
	if s, ok := registry.GetDefault(path).(string); ok {
		return s
	}
	return ""
}

func getInt(registry *definition.Registry, path string) int {
	if i, ok := registry.GetDefault(path).(int); ok {
		return i
	}
	return 0
}

func getInt64(registry *definition.Registry, path string) int64 {
	if i, ok := registry.GetDefault(path).(int64); ok {
		return i
	}
	return 0
}

func getBool(registry *definition.Registry, path string) bool {
	if b, ok := registry.GetDefault(path).(bool); ok {
		return b
	}
	return false
}

func getDuration(registry *definition.Registry, path string) time.Duration {
	if d, ok := registry.GetDefault(path).(time.Duration); ok {
		return d
	}
	return 0
}
