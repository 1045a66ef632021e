package apiclient

import (
	"context"
	nethttp "net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client defines the API client interface used by the applications service
type Client interface {
	Get(ctx context.Context, path string, params Params) (*Result, error)
	Put(ctx context.Context, path string, body any) (*Result, error)
	Do(ctx context.Context, method, path string, params Params, body any) (*Result, error)
}

// Params holds query parameters. Values are formatted with their natural
// string form; nil values and empty strings are left out of the URL.
type Params map[string]any

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	Attempts    int
	CallCount   int64
}

// RequestInterceptor is called before sending each attempt
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving each response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds the API client configuration
type Config struct {
	// BaseURL is prefixed to every request path
	BaseURL string
	// Timeout bounds a single attempt
	Timeout time.Duration
	// MaxAttempts is the total number of attempts per call, including the first
	MaxAttempts int
	// RetryDelay is the base of the exponential backoff
	RetryDelay time.Duration
	// MaxRetryDelay caps a single wait; zero leaves the schedule uncapped
	MaxRetryDelay time.Duration

	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor
	DefaultHeaders       map[string]string

	// RateLimiter, when set, is waited on before every attempt
	RateLimiter *rate.Limiter
	// LogPayloads enables debug-level logging of headers and body payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
	// TraceIDHeader configures the header name used for request ID propagation (default: X-Request-ID)
	TraceIDHeader string
	// NewTraceID generates a request ID when the context carries none (default: uuid)
	NewTraceID func() string
	// Sleep performs backoff waits; tests replace it to observe the schedule
	Sleep SleepFunc
}
