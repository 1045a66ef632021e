package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{Name: "licence-admin", Version: "v1.0.0", Env: EnvDevelopment},
		API: APIConfig{
			BaseURL:     testBaseURL,
			Timeout:     30 * time.Second,
			Retry:       RetryConfig{Max: 3, Delay: time.Second},
			Rate:        RateConfig{Burst: 1},
			TraceHeader: "X-Request-ID",
			Log:         PayloadLogConfig{MaxBytes: 1024},
		},
		Log: LogConfig{Level: "info"},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8081,
			Timeout: TimeoutConfig{Read: time.Second, Write: time.Second, Shutdown: time.Second},
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		field    string
		category string
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }, "app.name", CategoryMissing},
		{"unknown env", func(c *Config) { c.App.Env = "qa" }, "app.env", CategoryInvalid},
		{"missing base url", func(c *Config) { c.API.BaseURL = "" }, "api.baseurl", CategoryMissing},
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "api.baseurl", CategoryInvalid},
		{"non-http base url", func(c *Config) { c.API.BaseURL = "ftp://host" }, "api.baseurl", CategoryInvalid},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout", CategoryInvalid},
		{"zero attempts", func(c *Config) { c.API.Retry.Max = 0 }, "api.retry.max", CategoryInvalid},
		{"negative delay", func(c *Config) { c.API.Retry.Delay = -time.Second }, "api.retry.delay", CategoryInvalid},
		{"negative max delay", func(c *Config) { c.API.Retry.MaxDelay = -time.Second }, "api.retry.maxdelay", CategoryInvalid},
		{"negative rate", func(c *Config) { c.API.Rate.Limit = -1 }, "api.rate.limit", CategoryInvalid},
		{"rate without burst", func(c *Config) { c.API.Rate.Limit = 5; c.API.Rate.Burst = 0 }, "api.rate.burst", CategoryInvalid},
		{"negative payload bytes", func(c *Config) { c.API.Log.MaxBytes = -1 }, "api.log.maxbytes", CategoryInvalid},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level", CategoryInvalid},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port", CategoryInvalid},
		{"zero read timeout", func(c *Config) { c.Server.Timeout.Read = 0 }, "server.timeout.read", CategoryInvalid},
		{"zero write timeout", func(c *Config) { c.Server.Timeout.Write = 0 }, "server.timeout.write", CategoryInvalid},
		{
			"unknown exporter",
			func(c *Config) { c.Observability = ObservabilityConfig{Enabled: true, Exporter: "jaeger"} },
			"observability.exporter", CategoryInvalid,
		},
		{
			"otlp without endpoint",
			func(c *Config) { c.Observability = ObservabilityConfig{Enabled: true, Exporter: ExporterOTLP} },
			"observability.endpoint", CategoryMissing,
		},
		{
			"unknown otlp protocol",
			func(c *Config) {
				c.Observability = ObservabilityConfig{Enabled: true, Exporter: ExporterOTLP, Endpoint: "collector:4317", Protocol: "udp"}
			},
			"observability.protocol", CategoryInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Equal(t, tt.category, cfgErr.Category)
		})
	}
}

func TestValidate_DisabledObservabilityIgnoresExporter(t *testing.T) {
	cfg := validConfig()
	cfg.Observability.Exporter = "whatever"
	assert.NoError(t, Validate(cfg))
}
