package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is read when no explicit configuration file is given.
const DefaultFile = "config.yaml"

// topLevelKeys limits which environment variables are considered configuration.
var topLevelKeys = []string{"app", "api", "log", "server", "observability"}

type loadOptions struct {
	file         string
	fileRequired bool
	yaml         []byte
	environ      func() []string
	skipAPI      bool
}

// Option customizes Load.
type Option func(*loadOptions)

// WithFile reads YAML configuration from path. Unlike the default file,
// an explicitly named file must exist.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		if path == "" {
			return
		}
		o.file = path
		o.fileRequired = true
	}
}

// WithYAML loads configuration from an in-memory YAML document instead of a file.
func WithYAML(data []byte) Option {
	return func(o *loadOptions) {
		o.yaml = data
	}
}

// WithEnviron replaces os.Environ as the source of environment variables.
func WithEnviron(environ func() []string) Option {
	return func(o *loadOptions) {
		o.environ = environ
	}
}

// WithoutAPI skips validation of the api section. Used by processes that
// serve the backend rather than call it.
func WithoutAPI() Option {
	return func(o *loadOptions) {
		o.skipAPI = true
	}
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. YAML configuration (file or in-memory document)
// 3. Default values (lowest priority)
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{file: DefaultFile, environ: os.Environ}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadYAML(k, &o); err != nil {
		return nil, err
	}

	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		TransformFunc: envKey,
		EnvironFunc:   o.environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := Validate
	if o.skipAPI {
		validate = validateWithoutAPI
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadYAML(k *koanf.Koanf, o *loadOptions) error {
	if o.yaml != nil {
		if err := k.Load(rawbytes.Provider(o.yaml), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to parse yaml config: %w", err)
		}
		return nil
	}

	err := k.Load(file.Provider(o.file), yaml.Parser())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist) && !o.fileRequired:
		return nil
	default:
		return fmt.Errorf("failed to load %s: %w", o.file, err)
	}
}

// envKey converts API_RETRY_MAX to api.retry.max. Variables outside the
// known sections are dropped.
func envKey(key, value string) (string, any) {
	key = strings.ReplaceAll(strings.ToLower(key), "_", ".")
	top, _, _ := strings.Cut(key, ".")
	if !slices.Contains(topLevelKeys, top) {
		return "", nil
	}
	return key, value
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "licence-admin",
		"app.version": "v1.0.0",
		"app.env":     EnvDevelopment,

		"api.timeout":        "30s",
		"api.retry.max":      3,
		"api.retry.delay":    "1s",
		"api.retry.maxdelay": "0s",
		"api.rate.limit":     0,
		"api.rate.burst":     1,
		"api.traceheader":    "X-Request-ID",
		"api.log.payloads":   false,
		"api.log.maxbytes":   1024,

		"log.level":  "info",
		"log.pretty": false,

		"server.host":             "0.0.0.0",
		"server.port":             8081,
		"server.timeout.read":     "15s",
		"server.timeout.write":    "30s",
		"server.timeout.shutdown": "10s",

		"observability.enabled":  false,
		"observability.exporter": ExporterStdout,
		"observability.endpoint": "",
		"observability.protocol": ProtocolHTTP,
		"observability.insecure": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
