package apiclient

import (
	nethttp "net/http"
	"time"
)

const (
	// DefaultMaxPayloadLogBytes caps logged body previews
	DefaultMaxPayloadLogBytes = 1024

	msgRequest  = "API client request"
	msgResponse = "API client response"
	msgRetry    = "API client retrying request"
	msgFailed   = "API client request failed"
)

// logRequest logs the outgoing attempt, and its payload when enabled
func (c *client) logRequest(req *nethttp.Request, body []byte, requestID string, attempt int) {
	event := c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", requestID).
		Int("attempt", attempt)
	if n := len(req.Header); n > 0 {
		event = event.Int("header_count", n)
	}
	if len(body) > 0 {
		event = event.Int("body_size", len(body))
	}
	event.Msg(msgRequest)

	if !c.config.LogPayloads {
		return
	}
	preview, truncated := previewBody(body, c.maxPayloadLogBytes())
	c.logger.Debug().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("request_id", requestID).
		Interface("headers", req.Header).
		Int("body_size", len(body)).
		Bool("body_truncated", truncated).
		Bytes("body_preview", preview).
		Msg(msgRequest)
}

// logResponse logs a received response, and its payload when enabled
func (c *client) logResponse(statusCode int, headers nethttp.Header, body []byte, stats Stats, requestID string) {
	event := c.logger.Info().
		Str("direction", "inbound").
		Int("status", statusCode).
		Dur("elapsed", stats.ElapsedTime).
		Int64("call_count", stats.CallCount).
		Int("attempt", stats.Attempts).
		Str("request_id", requestID)
	if len(body) > 0 {
		event = event.Int("body_size", len(body))
	}
	event.Msg(msgResponse)

	if !c.config.LogPayloads {
		return
	}
	preview, truncated := previewBody(body, c.maxPayloadLogBytes())
	c.logger.Debug().
		Str("direction", "inbound").
		Int("status", statusCode).
		Str("request_id", requestID).
		Interface("headers", headers).
		Int("body_size", len(body)).
		Bool("body_truncated", truncated).
		Bytes("body_preview", preview).
		Msg(msgResponse)
}

// logRetry logs a failed attempt that will be retried after delay
func (c *client) logRetry(method, url, requestID string, attempt int, delay time.Duration, err error) {
	c.logger.Warn().
		Err(err).
		Str("method", method).
		Str("url", url).
		Str("request_id", requestID).
		Int("attempt", attempt).
		Dur("delay", delay).
		Msg(msgRetry)
}

// logFailure logs a call that ends without a successful response
func (c *client) logFailure(method, url, requestID string, attempts int, err error) {
	c.logger.Error().
		Err(err).
		Str("method", method).
		Str("url", url).
		Str("request_id", requestID).
		Int("attempts", attempts).
		Msg(msgFailed)
}

func (c *client) maxPayloadLogBytes() int {
	if c.config.MaxPayloadLogBytes <= 0 {
		return DefaultMaxPayloadLogBytes
	}
	return c.config.MaxPayloadLogBytes
}

// previewBody returns at most limit bytes of body and whether it was cut.
func previewBody(body []byte, limit int) ([]byte, bool) {
	if len(body) <= limit {
		return body, false
	}
	return body[:limit], true
}
