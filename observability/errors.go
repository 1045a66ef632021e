package observability

import "errors"

// ErrUnknownExporter is returned when the configured exporter is neither "stdout" nor "otlp".
var ErrUnknownExporter = errors.New("observability: exporter must be either 'stdout' or 'otlp'")

// ErrMissingEndpoint is returned when the otlp exporter is selected without a collector endpoint.
var ErrMissingEndpoint = errors.New("observability: endpoint is required for the otlp exporter")

// ErrInvalidProtocol is returned when the otlp protocol is not "http" or "grpc".
var ErrInvalidProtocol = errors.New("observability: protocol must be either 'http' or 'grpc'")
