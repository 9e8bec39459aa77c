package monitoring

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"

	"github.com/linode/cloudmanager/pkg/logger"
)

func init() {
	logger.Init(logger.TestConfig())
}

func newEnabled(t *testing.T) *Service {
	t.Helper()
	service, err := NewMonitoringService(t.Context(), &Config{Enabled: true, Path: "/metrics"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = service.Shutdown(t.Context()) })
	return service
}

func findSample(samples []Sample, prefix string) (Sample, bool) {
	for _, s := range samples {
		if strings.HasPrefix(s.Name, prefix) {
			return s, true
		}
	}
	return Sample{}, false
}

func TestNewMonitoringService(t *testing.T) {
	t.Run("Should create service with default config when nil provided", func(t *testing.T) {
		service, err := NewMonitoringService(t.Context(), nil)
		require.NoError(t, err)
		assert.NotNil(t, service.config)
		assert.True(t, service.config.Enabled)
		assert.Equal(t, "/metrics", service.config.Path)
		assert.True(t, service.IsInitialized())
		require.NoError(t, service.Shutdown(t.Context()))
	})
	t.Run("Should fail with invalid config", func(t *testing.T) {
		service, err := NewMonitoringService(t.Context(), &Config{Enabled: true, Path: ""})
		assert.Error(t, err)
		assert.Nil(t, service)
		assert.Contains(t, err.Error(), "must start with '/'")
	})
	t.Run("Should initialize with Prometheus exporter when enabled", func(t *testing.T) {
		service := newEnabled(t)
		assert.True(t, service.IsInitialized())
		assert.NotNil(t, service.exporter)
		assert.NotNil(t, service.provider)
		assert.Implements(t, (*metric.Meter)(nil), service.Meter())
		assert.NotNil(t, service.Sync())
		assert.Nil(t, service.InitializationError())
	})
	t.Run("Should use no-op meter when disabled", func(t *testing.T) {
		service, err := NewMonitoringService(t.Context(), &Config{Enabled: false, Path: "/metrics"})
		require.NoError(t, err)
		assert.Nil(t, service.exporter)
		assert.NotNil(t, service.Meter())
		service.Sync().RecordAction(t.Context(), "linodes", "ONE")
		samples, err := service.Snapshot()
		require.NoError(t, err)
		assert.Empty(t, samples)
	})
}

func TestNewMonitoringServiceWithFallback(t *testing.T) {
	t.Run("Should return degraded service when config is invalid", func(t *testing.T) {
		service := NewMonitoringServiceWithFallback(t.Context(), &Config{Enabled: true, Path: "invalid-path"})
		require.NotNil(t, service)
		assert.False(t, service.IsInitialized())
		assert.Error(t, service.InitializationError())
		assert.NotNil(t, service.Meter())
	})
}

func TestSyncMetrics(t *testing.T) {
	t.Run("Should expose recorded instruments", func(t *testing.T) {
		service := newEnabled(t)
		ctx := t.Context()
		m := service.Sync()
		m.RecordRequest(ctx, http.MethodGet, http.StatusOK, 20*time.Millisecond)
		m.RecordRequest(ctx, http.MethodGet, http.StatusOK, 30*time.Millisecond)
		m.RecordAction(ctx, "linodes", "MANY")
		m.RecordRestart(ctx, "linodes")
		m.RecordFetchAll(ctx, "linodes", time.Second, 1)
		samples, err := service.Snapshot()
		require.NoError(t, err)
		requests, ok := findSample(samples, "cloudmanager_api_requests")
		require.True(t, ok)
		assert.Equal(t, float64(2), requests.Value)
		assert.Equal(t, "GET", requests.Labels["method"])
		assert.Equal(t, "200", requests.Labels["status"])
		actions, ok := findSample(samples, "cloudmanager_store_actions")
		require.True(t, ok)
		assert.Equal(t, "MANY", actions.Labels["op"])
		_, ok = findSample(samples, "cloudmanager_fetch_all_restarts")
		assert.True(t, ok)
	})
	t.Run("Should ignore records on nil metrics", func(t *testing.T) {
		var m *SyncMetrics
		assert.NotPanics(t, func() {
			m.RecordRequest(t.Context(), http.MethodGet, 500, time.Millisecond)
			m.RecordAction(t.Context(), "x", "ONE")
			m.RecordRestart(t.Context(), "x")
			m.RecordFetchAll(t.Context(), "x", time.Millisecond, 0)
		})
	})
}

func TestMonitoringService_ExporterHandler(t *testing.T) {
	t.Run("Should return 503 when not initialized", func(t *testing.T) {
		service, err := NewMonitoringService(t.Context(), &Config{Enabled: false, Path: "/metrics"})
		require.NoError(t, err)
		w := httptest.NewRecorder()
		service.ExporterHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
	t.Run("Should serve the exposition format when initialized", func(t *testing.T) {
		service := newEnabled(t)
		service.Sync().RecordAction(t.Context(), "domains", "ONE")
		w := httptest.NewRecorder()
		service.ExporterHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
		assert.Contains(t, w.Body.String(), "cloudmanager_store_actions")
	})
}

func TestMonitoringService_WriteText(t *testing.T) {
	t.Run("Should encode the registry as text", func(t *testing.T) {
		service := newEnabled(t)
		service.Sync().RecordRequest(t.Context(), http.MethodPut, http.StatusOK, time.Millisecond)
		var buf strings.Builder
		require.NoError(t, service.WriteText(&buf))
		assert.Contains(t, buf.String(), "# TYPE cloudmanager_api_requests")
		assert.Contains(t, buf.String(), `method="PUT"`)
	})
	t.Run("Should fail when disabled", func(t *testing.T) {
		service, err := NewMonitoringService(t.Context(), &Config{Enabled: false, Path: "/metrics"})
		require.NoError(t, err)
		assert.Error(t, service.WriteText(&strings.Builder{}))
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("Should reject relative and query paths", func(t *testing.T) {
		assert.Error(t, (&Config{Path: "metrics"}).Validate())
		assert.Error(t, (&Config{Path: "/metrics?x=1"}).Validate())
		assert.Error(t, (&Config{Path: "/metrics#top"}).Validate())
		assert.Error(t, (&Config{Path: ""}).Validate())
		assert.NoError(t, DefaultConfig().Validate())
	})
}

func TestProcessMetrics(t *testing.T) {
	t.Run("Should report build info and uptime", func(t *testing.T) {
		service := newEnabled(t)
		samples, err := service.Snapshot()
		require.NoError(t, err)
		info, ok := findSample(samples, "cloudmanager_build_info")
		require.True(t, ok)
		assert.Equal(t, float64(1), info.Value)
		assert.Equal(t, runtime.Version(), info.Labels["go_version"])
		assert.NotEmpty(t, info.Labels["version"])
		_, ok = findSample(samples, "cloudmanager_uptime_seconds")
		assert.True(t, ok)
	})
	t.Run("Should stop observing after shutdown", func(t *testing.T) {
		service, err := NewMonitoringService(t.Context(), &Config{Enabled: true, Path: "/metrics"})
		require.NoError(t, err)
		require.NoError(t, service.Shutdown(t.Context()))
		assert.Nil(t, service.process)
	})
}
