package config

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/rs/zerolog"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Exporter constants
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// OTLP protocol constants
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// Validate checks every section and returns the first *ConfigError found.
func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return err
	}
	if err := ValidateAPI(&cfg.API); err != nil {
		return err
	}
	return validateRest(cfg)
}

func validateWithoutAPI(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return err
	}
	return validateRest(cfg)
}

func validateRest(cfg *Config) error {
	if err := validateLog(&cfg.Log); err != nil {
		return err
	}
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	return validateObservability(&cfg.Observability)
}

func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name")
	}
	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction}
	if !slices.Contains(validEnvs, cfg.Env) {
		return NewInvalidFieldError("app.env", fmt.Sprintf("unknown environment %q", cfg.Env), validEnvs)
	}
	return nil
}

// ValidateAPI checks the client section. The base URL must be an absolute
// http(s) URL; the retry schedule must allow at least one attempt.
func ValidateAPI(cfg *APIConfig) error {
	if cfg.BaseURL == "" {
		return NewMissingFieldError("api.baseurl")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return NewInvalidFieldError("api.baseurl", fmt.Sprintf("%q is not an absolute http(s) url", cfg.BaseURL), nil)
	}
	if cfg.Timeout <= 0 {
		return NewInvalidFieldError("api.timeout", "must be positive", nil)
	}
	if cfg.Retry.Max < 1 {
		return NewInvalidFieldError("api.retry.max", fmt.Sprintf("must be at least 1, got %d", cfg.Retry.Max), nil)
	}
	if cfg.Retry.Delay < 0 {
		return NewInvalidFieldError("api.retry.delay", "must not be negative", nil)
	}
	if cfg.Retry.MaxDelay < 0 {
		return NewInvalidFieldError("api.retry.maxdelay", "must not be negative", nil)
	}
	if cfg.Rate.Limit < 0 {
		return NewInvalidFieldError("api.rate.limit", "must not be negative", nil)
	}
	if cfg.Rate.Limit > 0 && cfg.Rate.Burst < 1 {
		return NewInvalidFieldError("api.rate.burst", "must be at least 1 when rate limiting is enabled", nil)
	}
	if cfg.Log.MaxBytes < 0 {
		return NewInvalidFieldError("api.log.maxbytes", "must not be negative", nil)
	}
	return nil
}

func validateLog(cfg *LogConfig) error {
	if _, err := zerolog.ParseLevel(cfg.Level); err != nil {
		return NewInvalidFieldError("log.level", fmt.Sprintf("unknown level %q", cfg.Level),
			[]string{"debug", "info", "warn", "error"})
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return NewInvalidFieldError("server.port", fmt.Sprintf("invalid port %d (must be 1-65535)", cfg.Port), nil)
	}
	if cfg.Timeout.Read <= 0 {
		return NewInvalidFieldError("server.timeout.read", "must be positive", nil)
	}
	if cfg.Timeout.Write <= 0 {
		return NewInvalidFieldError("server.timeout.write", "must be positive", nil)
	}
	return nil
}

func validateObservability(cfg *ObservabilityConfig) error {
	if !cfg.Enabled {
		return nil
	}
	exporters := []string{ExporterStdout, ExporterOTLP}
	if !slices.Contains(exporters, cfg.Exporter) {
		return NewInvalidFieldError("observability.exporter", fmt.Sprintf("unknown exporter %q", cfg.Exporter), exporters)
	}
	if cfg.Exporter != ExporterOTLP {
		return nil
	}
	if cfg.Endpoint == "" {
		return NewMissingFieldError("observability.endpoint")
	}
	protocols := []string{ProtocolHTTP, ProtocolGRPC}
	if !slices.Contains(protocols, cfg.Protocol) {
		return NewInvalidFieldError("observability.protocol", fmt.Sprintf("unknown protocol %q", cfg.Protocol), protocols)
	}
	return nil
}
