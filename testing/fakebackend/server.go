// Package fakebackend serves the applications backend contract from memory.
// Tests point an apiclient at it; the fakebackend command runs it standalone
// for local development.
package fakebackend

import (
	"context"
	"fmt"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/licence-admin/applications"
	"github.com/gaborage/licence-admin/config"
	"github.com/gaborage/licence-admin/logger"
	"github.com/gaborage/licence-admin/trace"
)

// DefaultSeedCount is the number of applications a new server starts with
const DefaultSeedCount = 25

// ServiceName names the server in traces
const ServiceName = "licence-admin-fakebackend"

const (
	msgNotFound       = "application not found"
	msgInvalidRequest = "invalid request body"
)

// RecordedRequest is what the server saw of a request
type RecordedRequest struct {
	Method    string
	Path      string
	RawQuery  string
	RequestID string
	Header    nethttp.Header
}

type injectedFailure struct {
	remaining int
	status    int
	body      string
}

// Server is the fake applications backend
type Server struct {
	echo  *echo.Echo
	store *Store
	log   logger.Logger
	// nil means the global tracer provider
	tracerProvider oteltrace.TracerProvider

	mu       sync.Mutex
	failure  injectedFailure
	requests []RecordedRequest
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(log logger.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithStore replaces the seeded store
func WithStore(store *Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithTracerProvider traces requests with tp instead of the global provider
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

// New creates a server seeded with DefaultSeedCount applications
func New(opts ...Option) *Server {
	s := &Server{log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = NewStore(SeedApplications(DefaultSeedCount))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Validator = applications.NewValidator()
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	var otelOpts []otelecho.Option
	if s.tracerProvider != nil {
		otelOpts = append(otelOpts, otelecho.WithTracerProvider(s.tracerProvider))
	}
	e.Use(otelecho.Middleware(ServiceName, otelOpts...))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:    trace.NewID,
		TargetHeader: trace.HeaderXRequestID,
	}))
	e.Use(s.requestLogger)
	e.Use(s.record)
	e.Use(s.injectFailures)

	e.GET("/applications", s.listApplications)
	e.GET("/applications/stats", s.stats)
	e.PUT("/applications/:id", s.updateApplication)

	s.echo = e
	return s
}

// ServeHTTP makes the server usable with httptest
func (s *Server) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.echo.ServeHTTP(w, r)
}

// Store returns the backing store
func (s *Server) Store() *Store {
	return s.store
}

// FailNext makes the next n requests answer with status and body instead of
// reaching the handlers.
func (s *Server) FailNext(n, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = injectedFailure{remaining: n, status: status, body: body}
}

// Requests returns the number of requests received, failed ones included
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Recorded returns every request received so far
func (s *Server) Recorded() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// Start listens on the configured address and blocks until shutdown.
func (s *Server) Start(cfg config.ServerConfig) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.log.Info().
		Str("address", addr).
		Int("applications", len(s.store.All())).
		Msg("Starting fake backend...")

	server := &nethttp.Server{
		Addr:         addr,
		ReadTimeout:  cfg.Timeout.Read,
		WriteTimeout: cfg.Timeout.Write,
	}
	return s.echo.StartServer(server)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) listApplications(c echo.Context) error {
	q := applications.DefaultListQuery()
	var status string
	err := echo.QueryParamsBinder(c).
		Int("page", &q.Page).
		Int("limit", &q.Limit).
		String("status", &status).
		String("search", &q.Search).
		String("sortBy", &q.SortBy).
		String("sortOrder", &q.SortOrder).
		BindError()
	if err != nil {
		return c.JSON(nethttp.StatusBadRequest, map[string]string{"error": "invalid query parameters"})
	}
	q.Status = applications.Status(status)

	if err := c.Validate(q); err != nil {
		return c.JSON(nethttp.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(nethttp.StatusOK, s.store.List(q))
}

func (s *Server) stats(c echo.Context) error {
	return c.JSON(nethttp.StatusOK, map[string]applications.Stats{"stats": s.store.Stats()})
}

func (s *Server) updateApplication(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.store.Get(id); !ok {
		return c.JSON(nethttp.StatusNotFound, map[string]string{"message": msgNotFound})
	}

	var req applications.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(nethttp.StatusBadRequest, map[string]string{"error": msgInvalidRequest})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(nethttp.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	app, ok := s.store.Update(id, req)
	if !ok {
		return c.JSON(nethttp.StatusNotFound, map[string]string{"message": msgNotFound})
	}
	return c.JSON(nethttp.StatusOK, app)
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:    req.Method,
			Path:      req.URL.Path,
			RawQuery:  req.URL.RawQuery,
			RequestID: req.Header.Get(trace.HeaderXRequestID),
			Header:    req.Header.Clone(),
		})
		s.mu.Unlock()
		return next(c)
	}
}

func (s *Server) injectFailures(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		fail := s.failure.remaining > 0
		status, body := s.failure.status, s.failure.body
		if fail {
			s.failure.remaining--
		}
		s.mu.Unlock()

		if !fail {
			return next(c)
		}
		contentType := echo.MIMETextPlainCharsetUTF8
		if json.Valid([]byte(body)) {
			contentType = echo.MIMEApplicationJSON
		}
		return c.Blob(status, contentType, []byte(body))
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.log.Info().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", c.Response().Status).
			Dur("latency", time.Since(start)).
			Str("request_id", c.Response().Header().Get(trace.HeaderXRequestID)).
			Msg("Fake backend request")
		return nil
	}
}

// errorHandler answers with the {"message": ...} body the real backend uses
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := nethttp.StatusInternalServerError
	msg := nethttp.StatusText(status)
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	}
	_ = c.JSON(status, map[string]string{"message": msg})
}

// jsonSerializer encodes echo responses with goccy/go-json
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i any) error {
	if err := json.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(nethttp.StatusBadRequest, msgInvalidRequest).SetInternal(err)
	}
	return nil
}
