package config

import "time"

// Config represents the overall configuration of the licence-admin tools.
// It includes sections for application metadata, the backend API client,
// logging, the local fake backend server and observability.
type Config struct {
	App           AppConfig           `koanf:"app" json:"app" yaml:"app"`
	API           APIConfig           `koanf:"api" json:"api" yaml:"api"`
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log"`
	Server        ServerConfig        `koanf:"server" json:"server" yaml:"server"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name"`
	Version string `koanf:"version" json:"version" yaml:"version"`
	Env     string `koanf:"env" json:"env" yaml:"env"`
}

// APIConfig configures the client for the applications backend.
type APIConfig struct {
	// BaseURL is prefixed to every request path. Required; there is no default.
	BaseURL string `koanf:"baseurl" json:"baseurl" yaml:"baseurl"`

	// Timeout bounds a single attempt, not the whole retried call.
	// Default: 30s.
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`

	Retry       RetryConfig      `koanf:"retry" json:"retry" yaml:"retry"`
	Rate        RateConfig       `koanf:"rate" json:"rate" yaml:"rate"`
	TraceHeader string           `koanf:"traceheader" json:"traceheader" yaml:"traceheader"`
	Log         PayloadLogConfig `koanf:"log" json:"log" yaml:"log"`
}

// RetryConfig holds the retry schedule. The wait before retry i (zero-based)
// is Delay * 2^i, capped at MaxDelay when MaxDelay is positive.
type RetryConfig struct {
	// Max is the total number of attempts, including the first one. Default: 3.
	Max int `koanf:"max" json:"max" yaml:"max"`
	// Delay is the base wait. Default: 1s.
	Delay time.Duration `koanf:"delay" json:"delay" yaml:"delay"`
	// MaxDelay caps a single wait. Default: 0 (uncapped).
	MaxDelay time.Duration `koanf:"maxdelay" json:"maxdelay" yaml:"maxdelay"`
}

// RateConfig holds client-side rate limiting settings.
type RateConfig struct {
	Limit float64 `koanf:"limit" json:"limit" yaml:"limit"` // requests per second, 0 disables limiting
	Burst int     `koanf:"burst" json:"burst" yaml:"burst"`
}

// PayloadLogConfig controls debug logging of request and response bodies.
type PayloadLogConfig struct {
	Payloads bool `koanf:"payloads" json:"payloads" yaml:"payloads"`
	MaxBytes int  `koanf:"maxbytes" json:"maxbytes" yaml:"maxbytes"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// ServerConfig holds settings for the fake backend HTTP server.
type ServerConfig struct {
	Host    string        `koanf:"host" json:"host" yaml:"host"`
	Port    int           `koanf:"port" json:"port" yaml:"port"`
	Timeout TimeoutConfig `koanf:"timeout" json:"timeout" yaml:"timeout"`
}

// TimeoutConfig holds various timeout durations for the server.
type TimeoutConfig struct {
	Read     time.Duration `koanf:"read" json:"read" yaml:"read"`
	Write    time.Duration `koanf:"write" json:"write" yaml:"write"`
	Shutdown time.Duration `koanf:"shutdown" json:"shutdown" yaml:"shutdown"`
}

// ObservabilityConfig selects the OpenTelemetry exporters.
type ObservabilityConfig struct {
	Enabled  bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	Exporter string `koanf:"exporter" json:"exporter" yaml:"exporter"`
	// Endpoint is the OTLP collector address (host:port). Only used with the otlp exporter.
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	// Protocol is the OTLP transport, "http" or "grpc". Default: http.
	Protocol string `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure bool   `koanf:"insecure" json:"insecure" yaml:"insecure"`
}
