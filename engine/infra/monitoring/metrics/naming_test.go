package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricName(t *testing.T) {
	t.Run("Should add the namespace once", func(t *testing.T) {
		assert.Equal(t, "cloudmanager_uptime_seconds", MetricName("uptime_seconds"))
		assert.Equal(t, "cloudmanager_uptime_seconds", MetricName("cloudmanager_uptime_seconds"))
		assert.Equal(t, Prefix, MetricName(""))
	})
}

func TestMetricNameWithSubsystem(t *testing.T) {
	cases := map[string]struct {
		subsystem, name, want string
	}{
		"joins subsystem and name": {"api", "requests_total", "cloudmanager_api_requests_total"},
		"trims stray underscores":  {"_fetch_all_", "restarts_total", "cloudmanager_fetch_all_restarts_total"},
		"falls back to the name":   {"", "build_info", "cloudmanager_build_info"},
		"names the subsystem only": {"store", "", "cloudmanager_store"},
		"keeps prefixed names":     {"store", "cloudmanager_store_actions_total", "cloudmanager_store_actions_total"},
	}
	for desc, tc := range cases {
		t.Run("Should handle: "+desc, func(t *testing.T) {
			assert.Equal(t, tc.want, MetricNameWithSubsystem(tc.subsystem, tc.name))
		})
	}
}

func TestBuckets(t *testing.T) {
	t.Run("Should be strictly increasing", func(t *testing.T) {
		for _, buckets := range [][]float64{APIDurationBuckets, FetchAllDurationBuckets} {
			for i := 1; i < len(buckets); i++ {
				assert.Less(t, buckets[i-1], buckets[i])
			}
		}
	})
}
