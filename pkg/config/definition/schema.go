package definition

import (
	"reflect"
	"time"
)

var (
	stringType   = reflect.TypeOf("")
	intType      = reflect.TypeOf(0)
	int64Type    = reflect.TypeOf(int64(0))
	boolType     = reflect.TypeOf(false)
	durationType = reflect.TypeOf(time.Duration(0))
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "CLOUDMANAGER_"

// CreateRegistry is the single source of configuration defaults.
func CreateRegistry() *Registry {
	registry := NewRegistry()
	registerAPIFields(registry)
	registerFetchFields(registry)
	registerMonitoringFields(registry)
	registerLogFields(registry)
	return registry
}

func registerAPIFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:      "api.base_url",
		Default:   "https://api.linode.com/v4",
		CLIFlag:   "base-url",
		Shorthand: "u",
		EnvVar:    EnvPrefix + "API_BASE_URL",
		Type:      stringType,
		Help:      "Base URL of the Linode API",
	})
	registry.Register(&FieldDef{
		Path:    "api.token",
		Default: "",
		CLIFlag: "token",
		EnvVar:  EnvPrefix + "API_TOKEN",
		Type:    stringType,
		Help:    "Personal access token sent as a bearer token",
	})
	registry.Register(&FieldDef{
		Path:    "api.timeout",
		Default: 30 * time.Second,
		CLIFlag: "timeout",
		EnvVar:  EnvPrefix + "API_TIMEOUT",
		Type:    durationType,
		Help:    "Timeout of a single API request",
	})
	registry.Register(&FieldDef{
		Path:    "api.page_size",
		Default: 100,
		CLIFlag: "page-size",
		EnvVar:  EnvPrefix + "API_PAGE_SIZE",
		Type:    intType,
		Help:    "Objects per page requested from paginated endpoints",
	})
	registry.Register(&FieldDef{
		Path:    "api.retry_count",
		Default: 3,
		EnvVar:  EnvPrefix + "API_RETRY_COUNT",
		Type:    intType,
		Help:    "Retries for network errors, 5xx, 408 and 429",
	})
	registry.Register(&FieldDef{
		Path:    "api.retry_wait",
		Default: 100 * time.Millisecond,
		EnvVar:  EnvPrefix + "API_RETRY_WAIT",
		Type:    durationType,
		Help:    "Initial wait between retries",
	})
	registry.Register(&FieldDef{
		Path:    "api.retry_max_wait",
		Default: 2 * time.Second,
		EnvVar:  EnvPrefix + "API_RETRY_MAX_WAIT",
		Type:    durationType,
		Help:    "Maximum wait between retries",
	})
	registry.Register(&FieldDef{
		Path:    "api.rate_limit",
		Default: int64(0),
		CLIFlag: "rate-limit",
		EnvVar:  EnvPrefix + "API_RATE_LIMIT",
		Type:    int64Type,
		Help:    "Requests allowed per rate period (0 disables the limit)",
	})
	registry.Register(&FieldDef{
		Path:    "api.rate_period",
		Default: time.Minute,
		EnvVar:  EnvPrefix + "API_RATE_PERIOD",
		Type:    durationType,
		Help:    "Window of the request rate limit",
	})
}

func registerFetchFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "fetch.concurrency",
		Default: 4,
		CLIFlag: "concurrency",
		EnvVar:  EnvPrefix + "FETCH_CONCURRENCY",
		Type:    intType,
		Help:    "Pages fetched in parallel when loading a whole collection",
	})
	registry.Register(&FieldDef{
		Path:    "fetch.max_restarts",
		Default: 0,
		CLIFlag: "max-restarts",
		EnvVar:  EnvPrefix + "FETCH_MAX_RESTARTS",
		Type:    intType,
		Help:    "Restarts allowed when a collection changes while paging (0 is unbounded)",
	})
	registry.Register(&FieldDef{
		Path:    "fetch.poll_interval",
		Default: 3 * time.Second,
		CLIFlag: "poll-interval",
		EnvVar:  EnvPrefix + "FETCH_POLL_INTERVAL",
		Type:    durationType,
		Help:    "Interval between polls while waiting on a resource",
	})
}

func registerMonitoringFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "monitoring.enabled",
		Default: true,
		EnvVar:  EnvPrefix + "MONITORING_ENABLED",
		Type:    boolType,
		Help:    "Collect request and store metrics",
	})
	registry.Register(&FieldDef{
		Path:    "monitoring.path",
		Default: "/metrics",
		EnvVar:  EnvPrefix + "MONITORING_PATH",
		Type:    stringType,
		Help:    "HTTP path the metrics endpoint is served on",
	})
}

func registerLogFields(registry *Registry) {
	registry.Register(&FieldDef{
		Path:    "log.level",
		Default: "info",
		CLIFlag: "log-level",
		EnvVar:  EnvPrefix + "LOG_LEVEL",
		Type:    stringType,
		Help:    "Log level (debug, info, warn, error, disabled)",
	})
	registry.Register(&FieldDef{
		Path:    "log.json",
		Default: false,
		CLIFlag: "log-json",
		EnvVar:  EnvPrefix + "LOG_JSON",
		Type:    boolType,
		Help:    "Emit logs as JSON",
	})
	registry.Register(&FieldDef{
		Path:    "log.source",
		Default: false,
		CLIFlag: "log-source",
		EnvVar:  EnvPrefix + "LOG_SOURCE",
		Type:    boolType,
		Help:    "Include source locations in logs",
	})
}
