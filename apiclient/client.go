package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	nethttp "net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gaborage/licence-admin/apiclient/internal/tracking"
	"github.com/gaborage/licence-admin/config"
	"github.com/gaborage/licence-admin/logger"
	"github.com/gaborage/licence-admin/trace"
)

const (
	// DefaultTimeout is the default per-attempt timeout
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts is the default number of attempts per call, including the first
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the base of the backoff schedule
	DefaultRetryDelay = 1 * time.Second

	tracerName = "licence-admin/apiclient"
)

// client implements the Client interface
type client struct {
	httpClient           *nethttp.Client
	logger               logger.Logger
	config               *Config
	host                 string
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	tracer               oteltrace.Tracer
	callCount            int64
}

// Builder provides a fluent interface for configuring the API client
type Builder struct {
	config     *Config
	logger     logger.Logger
	httpClient *nethttp.Client
	transport  nethttp.RoundTripper
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			Timeout:              DefaultTimeout,
			MaxAttempts:          DefaultMaxAttempts,
			RetryDelay:           DefaultRetryDelay,
			RequestInterceptors:  []RequestInterceptor{},
			ResponseInterceptors: []ResponseInterceptor{},
			DefaultHeaders:       make(map[string]string),
			MaxPayloadLogBytes:   DefaultMaxPayloadLogBytes,
			TraceIDHeader:        trace.HeaderXRequestID,
			NewTraceID:           trace.NewID,
			Sleep:                sleepContext,
		},
		logger: log,
	}
}

// NewFromConfig builds a client from the api configuration section.
func NewFromConfig(cfg *config.APIConfig, log logger.Logger) (Client, error) {
	if err := config.ValidateAPI(cfg); err != nil {
		return nil, err
	}
	b := NewBuilder(log).
		WithBaseURL(cfg.BaseURL).
		WithTimeout(cfg.Timeout).
		WithAttempts(cfg.Retry.Max, cfg.Retry.Delay).
		WithMaxRetryDelay(cfg.Retry.MaxDelay).
		WithTraceIDHeader(cfg.TraceHeader).
		WithPayloadLogging(cfg.Log.Payloads, cfg.Log.MaxBytes)
	if cfg.Rate.Limit > 0 {
		b = b.WithRateLimit(cfg.Rate.Limit, cfg.Rate.Burst)
	}
	return b.Build(), nil
}

// WithBaseURL sets the URL every request path is appended to
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithTimeout sets the per-attempt timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithAttempts sets the total number of attempts and the backoff base.
// Values below one attempt are ignored.
func (b *Builder) WithAttempts(maxAttempts int, retryDelay time.Duration) *Builder {
	if maxAttempts >= 1 {
		b.config.MaxAttempts = maxAttempts
	}
	if retryDelay >= 0 {
		b.config.RetryDelay = retryDelay
	}
	return b
}

// WithMaxRetryDelay caps a single backoff wait. Zero leaves it uncapped.
func (b *Builder) WithMaxRetryDelay(maxDelay time.Duration) *Builder {
	if maxDelay >= 0 {
		b.config.MaxRetryDelay = maxDelay
	}
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithHTTPClient uses a caller-provided http.Client. Its timeout is kept
// unless it is zero, in which case the builder timeout applies.
func (b *Builder) WithHTTPClient(httpClient *nethttp.Client) *Builder {
	b.httpClient = httpClient
	return b
}

// WithTransport sets the round tripper of the built http.Client
func (b *Builder) WithTransport(transport nethttp.RoundTripper) *Builder {
	b.transport = transport
	return b
}

// WithRateLimit limits attempts to limit per second with the given burst
func (b *Builder) WithRateLimit(limit float64, burst int) *Builder {
	if burst < 1 {
		burst = 1
	}
	b.config.RateLimiter = rate.NewLimiter(rate.Limit(limit), burst)
	return b
}

// WithPayloadLogging enables debug logging of bodies, truncated to maxBytes
func (b *Builder) WithPayloadLogging(enabled bool, maxBytes int) *Builder {
	b.config.LogPayloads = enabled
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithTraceIDHeader sets the header carrying the request ID
func (b *Builder) WithTraceIDHeader(header string) *Builder {
	if header != "" {
		b.config.TraceIDHeader = header
	}
	return b
}

// WithTraceIDGenerator sets the function generating request IDs
func (b *Builder) WithTraceIDGenerator(generator func() string) *Builder {
	if generator != nil {
		b.config.NewTraceID = generator
	}
	return b
}

// WithSleep replaces the backoff wait
func (b *Builder) WithSleep(sleep SleepFunc) *Builder {
	if sleep != nil {
		b.config.Sleep = sleep
	}
	return b
}

// Build creates the API client with the configured options
func (b *Builder) Build() Client {
	// copy so a caller-supplied client is never mutated
	httpClient := &nethttp.Client{}
	if b.httpClient != nil {
		hc := *b.httpClient
		httpClient = &hc
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = b.config.Timeout
	}
	if b.transport != nil {
		httpClient.Transport = b.transport
	}

	log := b.logger
	if log == nil {
		log = logger.Nop()
	}

	var host string
	if u, err := url.Parse(b.config.BaseURL); err == nil {
		host = u.Host
	}

	return &client{
		httpClient:           httpClient,
		logger:               log,
		config:               b.config,
		host:                 host,
		requestInterceptors:  b.config.RequestInterceptors,
		responseInterceptors: b.config.ResponseInterceptors,
		tracer:               otel.Tracer(tracerName),
	}
}

// Get performs a GET request against base URL + path
func (c *client) Get(ctx context.Context, path string, params Params) (*Result, error) {
	return c.Do(ctx, nethttp.MethodGet, path, params, nil)
}

// Put performs a PUT request with a JSON body
func (c *client) Put(ctx context.Context, path string, body any) (*Result, error) {
	return c.Do(ctx, nethttp.MethodPut, path, nil, body)
}

// Do performs a request with the specified method, retrying failed attempts
// with exponential backoff.
func (c *client) Do(ctx context.Context, method, path string, params Params, body any) (*Result, error) {
	if ctx == nil {
		return nil, NewValidationError("context cannot be nil", "ctx")
	}
	if method == "" {
		return nil, NewValidationError("method cannot be empty", "method")
	}
	reqURL, err := buildURL(c.config.BaseURL, path, params)
	if err != nil {
		return nil, err
	}
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)
	requestID := c.requestID(ctx)

	ctx, span := c.tracer.Start(ctx, "apiclient "+method,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(method),
			semconv.URLFull(reqURL),
			semconv.ServerAddress(c.host),
		),
	)
	defer span.End()

	maxAttempts := max(c.config.MaxAttempts, 1)
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt - 1)
			c.logRetry(method, reqURL, requestID, attempt, delay, lastErr)
			tracking.RecordRetry(ctx, method, c.host)
			if err := c.config.Sleep(ctx, delay); err != nil {
				return nil, c.abort(ctx, span, method, reqURL, requestID, attempt, lastErr, err)
			}
		}
		if c.config.RateLimiter != nil {
			if err := c.config.RateLimiter.Wait(ctx); err != nil {
				return nil, c.abort(ctx, span, method, reqURL, requestID, attempt, lastErr, err)
			}
		}

		result, err := c.attempt(ctx, method, reqURL, payload, requestID, start, callCount, attempt+1)
		if err == nil {
			span.SetAttributes(
				semconv.HTTPResponseStatusCode(result.StatusCode),
				attribute.Int("apiclient.attempts", attempt+1),
			)
			span.SetStatus(codes.Ok, "")
			return result, nil
		}
		if IsErrorType(err, ValidationError) || IsErrorType(err, InterceptorError) {
			c.logFailure(method, reqURL, requestID, attempt+1, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		lastErr = err
	}

	reqErr := &RequestError{Attempts: maxAttempts, Err: lastErr}
	c.fail(ctx, span, method, reqURL, requestID, reqErr)
	return nil, reqErr
}

// abort ends a call whose context finished while it was waiting to attempt
func (c *client) abort(ctx context.Context, span oteltrace.Span, method, reqURL, requestID string, attempts int, lastErr, cause error) error {
	err := cause
	if lastErr != nil {
		err = fmt.Errorf("%w (retry aborted: %w)", lastErr, cause)
	}
	reqErr := &RequestError{Attempts: attempts, Err: err}
	c.fail(ctx, span, method, reqURL, requestID, reqErr)
	return reqErr
}

func (c *client) fail(ctx context.Context, span oteltrace.Span, method, reqURL, requestID string, reqErr *RequestError) {
	c.logFailure(method, reqURL, requestID, reqErr.Attempts, reqErr)
	tracking.RecordFailure(ctx, method, c.host, reqErr.Attempts, errorType(reqErr.Err))
	span.SetAttributes(attribute.Int("apiclient.attempts", reqErr.Attempts))
	if code, ok := StatusCode(reqErr.Err); ok {
		span.SetAttributes(semconv.HTTPResponseStatusCode(code))
	}
	span.RecordError(reqErr)
	span.SetStatus(codes.Error, reqErr.Error())
}

// attempt performs one network round trip
func (c *client) attempt(ctx context.Context, method, reqURL string, payload []byte, requestID string, start time.Time, callCount int64, attemptNo int) (*Result, error) {
	httpReq, err := c.buildRequest(ctx, method, reqURL, payload, requestID)
	if err != nil {
		return nil, err
	}
	c.logRequest(httpReq, payload, requestID, attemptNo)

	attemptStart := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		clientErr := c.transportError(err)
		tracking.RecordAttempt(ctx, method, c.host, 0, time.Since(attemptStart), string(clientErr.Type()))
		return nil, clientErr
	}

	respBody, err := c.readResponse(ctx, httpReq, httpResp)
	if err != nil {
		tracking.RecordAttempt(ctx, method, c.host, httpResp.StatusCode, time.Since(attemptStart), errorType(err))
		return nil, err
	}

	stats := Stats{
		ElapsedTime: time.Since(start),
		Attempts:    attemptNo,
		CallCount:   callCount,
	}
	c.logResponse(httpResp.StatusCode, httpResp.Header, respBody, stats, requestID)

	if !IsSuccessStatus(httpResp.StatusCode) {
		tracking.RecordAttempt(ctx, method, c.host, httpResp.StatusCode, time.Since(attemptStart), string(HTTPError))
		return nil, NewHTTPError(
			extractErrorMessage(httpResp.StatusCode, respBody),
			httpResp.StatusCode,
			respBody,
		)
	}

	tracking.RecordAttempt(ctx, method, c.host, httpResp.StatusCode, time.Since(attemptStart), "")
	result := newResult(httpResp.StatusCode, httpResp.Header, respBody)
	result.Stats = stats
	return result, nil
}

// buildRequest constructs an *http.Request, applies headers, and runs request interceptors.
func (c *client) buildRequest(ctx context.Context, method, reqURL string, payload []byte, requestID string) (*nethttp.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("failed to create HTTP request: %v", err), "method")
	}

	c.applyHeaders(ctx, httpReq, payload != nil || method == nethttp.MethodPut, requestID)

	if err := c.runRequestInterceptors(ctx, httpReq); err != nil {
		return nil, NewInterceptorError("request interceptor failed", "request", err)
	}
	return httpReq, nil
}

// applyHeaders sets default, JSON and tracing headers on the request
func (c *client) applyHeaders(ctx context.Context, httpReq *nethttp.Request, jsonBody bool, requestID string) {
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}

	if jsonBody {
		if httpReq.Header.Get("Content-Type") == "" {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		if httpReq.Header.Get("Accept") == "" {
			httpReq.Header.Set("Accept", "application/json")
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))
	trace.Inject(ctx, httpReq.Header, c.config.TraceIDHeader, requestID)
}

// readResponse runs response interceptors and reads the body.
func (c *client) readResponse(ctx context.Context, httpReq *nethttp.Request, httpResp *nethttp.Response) ([]byte, error) {
	defer httpResp.Body.Close()

	if err := c.runResponseInterceptors(ctx, httpReq, httpResp); err != nil {
		return nil, NewInterceptorError("response interceptor failed", "response", err)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}
	return respBody, nil
}

// requestID returns the ID sent on every attempt of one call
func (c *client) requestID(ctx context.Context) string {
	if id, ok := trace.IDFromContext(ctx); ok {
		return id
	}
	if c.config.NewTraceID != nil {
		return c.config.NewTraceID()
	}
	return trace.NewID()
}

// backoffDelay returns RetryDelay * 2^retry, capped at MaxRetryDelay when set.
func (c *client) backoffDelay(retry int) time.Duration {
	d := c.config.RetryDelay
	if d <= 0 {
		return 0
	}
	maxDelay := c.config.MaxRetryDelay
	for range retry {
		if maxDelay > 0 && d >= maxDelay {
			break
		}
		if d > math.MaxInt64/2 {
			return time.Duration(math.MaxInt64)
		}
		d *= 2
	}
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}

func (c *client) transportError(err error) ClientError {
	if isTimeout(err) {
		return NewTimeoutError("request timeout", c.httpClient.Timeout, err)
	}
	return NewNetworkError("request execution failed", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// runRequestInterceptors executes all request interceptors
func (c *client) runRequestInterceptors(ctx context.Context, req *nethttp.Request) error {
	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// runResponseInterceptors executes all response interceptors
func (c *client) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range c.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

// sleepContext waits for d unless ctx ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}

// encodeBody serializes a request body. Byte slices are sent as they are.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("request body is not JSON serializable: %v", err), "body")
	}
	return data, nil
}

func errorType(err error) string {
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return string(clientErr.Type())
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "error"
}
