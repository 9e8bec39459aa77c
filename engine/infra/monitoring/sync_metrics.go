package monitoring

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/linode/cloudmanager/engine/infra/monitoring/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics groups the instruments of the resource sync layer. A nil
// *SyncMetrics records nothing.
type SyncMetrics struct {
	apiRequests     metric.Int64Counter
	apiDuration     metric.Float64Histogram
	storeActions    metric.Int64Counter
	fetchAllRestart metric.Int64Counter
	fetchAllTime    metric.Float64Histogram
}

func newSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	requests, err := meter.Int64Counter(
		metrics.MetricNameWithSubsystem("api", "requests_total"),
		metric.WithDescription("Upstream API requests grouped by method and status"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create api requests counter: %w", err)
	}
	duration, err := meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("api", "request_duration_seconds"),
		metric.WithDescription("Upstream API request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.APIDurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create api duration histogram: %w", err)
	}
	actions, err := meter.Int64Counter(
		metrics.MetricNameWithSubsystem("store", "actions_total"),
		metric.WithDescription("Actions dispatched into the store grouped by operation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create store actions counter: %w", err)
	}
	restarts, err := meter.Int64Counter(
		metrics.MetricNameWithSubsystem("fetch_all", "restarts_total"),
		metric.WithDescription("Fetch-all traversals restarted after the collection size drifted"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create fetch-all restarts counter: %w", err)
	}
	fetchAll, err := meter.Float64Histogram(
		metrics.MetricNameWithSubsystem("fetch_all", "duration_seconds"),
		metric.WithDescription("Duration of complete fetch-all traversals"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.FetchAllDurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create fetch-all duration histogram: %w", err)
	}
	return &SyncMetrics{
		apiRequests:     requests,
		apiDuration:     duration,
		storeActions:    actions,
		fetchAllRestart: restarts,
		fetchAllTime:    fetchAll,
	}, nil
}

// RecordRequest counts one upstream request and its latency.
func (m *SyncMetrics) RecordRequest(ctx context.Context, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.apiRequests.Add(ctx, 1, attrs)
	m.apiDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("method", method)))
}

// RecordAction counts one dispatched action.
func (m *SyncMetrics) RecordAction(ctx context.Context, resource, op string) {
	if m == nil {
		return
	}
	m.storeActions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("op", op),
	))
}

// RecordRestart counts one fetch-all restart caused by pagination drift.
func (m *SyncMetrics) RecordRestart(ctx context.Context, resource string) {
	if m == nil {
		return
	}
	m.fetchAllRestart.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", resource)))
}

// RecordFetchAll records the duration of a finished traversal.
func (m *SyncMetrics) RecordFetchAll(ctx context.Context, resource string, elapsed time.Duration, restarts int) {
	if m == nil {
		return
	}
	m.fetchAllTime.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.Bool("restarted", restarts > 0),
	))
}
