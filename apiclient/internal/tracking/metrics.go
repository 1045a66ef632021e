// Package tracking records OpenTelemetry metrics for the applications API client.
package tracking

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Meter name for API client instrumentation
	clientMeterName = "licence-admin/apiclient"

	// Metric names following OpenTelemetry semantic conventions
	metricRequestDuration = "http.client.request.duration" // Histogram in seconds, one point per attempt

	// Client-specific metrics
	metricAttempts = "apiclient.attempts" // Counter of network attempts
	metricRetries  = "apiclient.retries"  // Counter of backoff waits
	metricFailures = "apiclient.failures" // Counter of calls that exhausted their attempts

	// Attribute keys per OTel semantic conventions
	attrHTTPMethod     = "http.request.method"
	attrHTTPStatusCode = "http.response.status_code"
	attrServerAddress  = "server.address"
	attrErrorType      = "error.type"
	attrAttemptCount   = "apiclient.attempt_count"
)

var (
	// Singleton meter initialization
	clientMeter   metric.Meter
	meterOnce     sync.Once
	meterInitMu   sync.Mutex
	metricsInited bool

	// Metric instruments
	requestDuration metric.Float64Histogram
	attemptCounter  metric.Int64Counter
	retryCounter    metric.Int64Counter
	failureCounter  metric.Int64Counter
)

// logMetricError logs a metric initialization error to stderr.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize apiclient metric %s: %v\n", metricName, err)
	}
}

// initClientMeter initializes the OpenTelemetry meter and client metric instruments.
func initClientMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if clientMeter != nil {
		return
	}

	clientMeter = otel.Meter(clientMeterName)

	var err error

	requestDuration, err = clientMeter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("Duration of a single HTTP attempt against the applications API"),
		metric.WithUnit("s"),
	)
	logMetricError(metricRequestDuration, err)

	attemptCounter, err = clientMeter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of HTTP attempts made"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	retryCounter, err = clientMeter.Int64Counter(
		metricRetries,
		metric.WithDescription("Number of backoff waits before a retry"),
		metric.WithUnit("{retry}"),
	)
	logMetricError(metricRetries, err)

	failureCounter, err = clientMeter.Int64Counter(
		metricFailures,
		metric.WithDescription("Number of calls that failed after all attempts"),
		metric.WithUnit("{call}"),
	)
	logMetricError(metricFailures, err)

	metricsInited = true
}

// ensureClientMeterInitialized ensures the client meter is initialized.
func ensureClientMeterInitialized() {
	meterOnce.Do(initClientMeter)
}

// RecordAttempt records one HTTP attempt.
// statusCode is 0 when no response was received; errorType is empty on success.
func RecordAttempt(ctx context.Context, method, host string, statusCode int, duration time.Duration, errorType string) {
	ensureClientMeterInitialized()

	attrs := []attribute.KeyValue{
		attribute.String(attrHTTPMethod, method),
		attribute.String(attrServerAddress, host),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int(attrHTTPStatusCode, statusCode))
	}
	if errorType != "" {
		attrs = append(attrs, attribute.String(attrErrorType, errorType))
	}

	if requestDuration != nil {
		requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if attemptCounter != nil {
		attemptCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordRetry records a backoff wait before the next attempt.
func RecordRetry(ctx context.Context, method, host string) {
	ensureClientMeterInitialized()

	if retryCounter != nil {
		retryCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrHTTPMethod, method),
			attribute.String(attrServerAddress, host),
		))
	}
}

// RecordFailure records a call that ended in a terminal failure.
func RecordFailure(ctx context.Context, method, host string, attempts int, errorType string) {
	ensureClientMeterInitialized()

	if failureCounter != nil {
		failureCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrHTTPMethod, method),
			attribute.String(attrServerAddress, host),
			attribute.String(attrAttemptCount, strconv.Itoa(attempts)),
			attribute.String(attrErrorType, errorType),
		))
	}
}

// IsInitialized returns true if client metrics have been initialized.
func IsInitialized() bool {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()
	return metricsInited
}

// ResetForTesting resets the metric state for testing purposes.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	clientMeter = nil
	requestDuration = nil
	attemptCounter = nil
	retryCounter = nil
	failureCounter = nil
	metricsInited = false
	meterOnce = sync.Once{}
}
