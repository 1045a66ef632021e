package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const testHost = "api.example.com"

func setupTestMeterProvider(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()
	ResetForTesting()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
		ResetForTesting()
	})

	return reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != clientMeterName {
			continue
		}
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterTotal(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum for %s", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func assertAttribute(t *testing.T, set attribute.Set, key, expected string) {
	t.Helper()
	v, ok := set.Value(attribute.Key(key))
	require.True(t, ok, "attribute %s missing", key)
	assert.Equal(t, expected, v.Emit(), "attribute %s value mismatch", key)
}

func TestRecordAttempt(t *testing.T) {
	reader := setupTestMeterProvider(t)

	RecordAttempt(context.Background(), "GET", testHost, 200, 40*time.Millisecond, "")
	RecordAttempt(context.Background(), "GET", testHost, 0, time.Millisecond, "network")

	metrics := collect(t, reader)

	duration, ok := metrics[metricRequestDuration]
	require.True(t, ok, "expected %s", metricRequestDuration)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 2)

	var sawStatus, sawError bool
	for _, dp := range hist.DataPoints {
		assertAttribute(t, dp.Attributes, attrHTTPMethod, "GET")
		assertAttribute(t, dp.Attributes, attrServerAddress, testHost)
		if _, ok := dp.Attributes.Value(attrHTTPStatusCode); ok {
			assertAttribute(t, dp.Attributes, attrHTTPStatusCode, "200")
			sawStatus = true
		}
		if _, ok := dp.Attributes.Value(attrErrorType); ok {
			assertAttribute(t, dp.Attributes, attrErrorType, "network")
			sawError = true
		}
	}
	assert.True(t, sawStatus)
	assert.True(t, sawError)

	assert.Equal(t, int64(2), counterTotal(t, metrics[metricAttempts]))
}

func TestRecordRetryAndFailure(t *testing.T) {
	reader := setupTestMeterProvider(t)

	RecordRetry(context.Background(), "PUT", testHost)
	RecordRetry(context.Background(), "PUT", testHost)
	RecordFailure(context.Background(), "PUT", testHost, 3, "http")

	metrics := collect(t, reader)

	assert.Equal(t, int64(2), counterTotal(t, metrics[metricRetries]))
	assert.Equal(t, int64(1), counterTotal(t, metrics[metricFailures]))

	sum := metrics[metricFailures].Data.(metricdata.Sum[int64])
	assertAttribute(t, sum.DataPoints[0].Attributes, attrAttemptCount, "3")
	assertAttribute(t, sum.DataPoints[0].Attributes, attrErrorType, "http")
}

func TestIsInitialized(t *testing.T) {
	setupTestMeterProvider(t)
	assert.False(t, IsInitialized())

	RecordRetry(context.Background(), "GET", testHost)
	assert.True(t, IsInitialized())

	ResetForTesting()
	assert.False(t, IsInitialized())
}
