package monitoring

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/linode/cloudmanager/engine/infra/monitoring/metrics"
)

// Version and CommitHash are set with -ldflags at build time.
var (
	Version    = "unknown"
	CommitHash = "unknown"
)

// buildAttributes resolves the version and commit, falling back to the
// module build info when ldflags were not set.
func buildAttributes() []attribute.KeyValue {
	version, commit := Version, CommitHash
	if info, ok := debug.ReadBuildInfo(); ok {
		if version == "unknown" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		for _, setting := range info.Settings {
			if commit == "unknown" && setting.Key == "vcs.revision" {
				commit = setting.Value
			}
		}
	}
	return []attribute.KeyValue{
		attribute.String("version", version),
		attribute.String("commit_hash", commit),
		attribute.String("go_version", runtime.Version()),
	}
}

// registerProcessMetrics observes build_info (always 1) and the seconds
// since started on every collection. The registration is released on Shutdown.
func registerProcessMetrics(meter metric.Meter, started time.Time) (metric.Registration, error) {
	info, err := meter.Int64ObservableGauge(
		metrics.MetricName("build_info"),
		metric.WithDescription("Build information (value=1)"),
	)
	if err != nil {
		return nil, err
	}
	uptime, err := meter.Float64ObservableGauge(
		metrics.MetricName("uptime_seconds"),
		metric.WithDescription("Seconds since the monitoring service started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	attrs := metric.WithAttributes(buildAttributes()...)
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(info, 1, attrs)
		o.ObserveFloat64(uptime, time.Since(started).Seconds())
		return nil
	}, info, uptime)
}
