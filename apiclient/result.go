package apiclient

import (
	"bytes"
	nethttp "net/http"

	"github.com/goccy/go-json"
)

// Kind tells how a successful response body was interpreted
type Kind int

const (
	// KindJSON is a body that parsed as JSON
	KindJSON Kind = iota
	// KindEmpty is an empty or whitespace-only body
	KindEmpty
	// KindUnparsable is a non-empty body that is not JSON
	KindUnparsable
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindEmpty:
		return "empty"
	case KindUnparsable:
		return "unparsable"
	default:
		return "unknown"
	}
}

// Result is the outcome of a successful (2xx) call.
type Result struct {
	StatusCode int
	Headers    nethttp.Header
	Stats      Stats

	kind  Kind
	raw   []byte
	value any
}

// newResult classifies a 2xx body.
func newResult(statusCode int, headers nethttp.Header, body []byte) *Result {
	r := &Result{StatusCode: statusCode, Headers: headers, raw: body}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		r.kind = KindEmpty
		return r
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		r.kind = KindUnparsable
		return r
	}
	r.kind = KindJSON
	r.value = v
	return r
}

// Kind reports how the body was interpreted
func (r *Result) Kind() Kind {
	return r.kind
}

// Raw returns the body exactly as received
func (r *Result) Raw() []byte {
	return r.raw
}

// Value returns the decoded JSON body. Empty and non-JSON bodies yield an
// empty object, so callers that do not care about the kind can treat every
// success the same way.
func (r *Result) Value() any {
	if r.kind != KindJSON {
		return map[string]any{}
	}
	return r.value
}

// Decode unmarshals a JSON body into v. It leaves v untouched for empty and
// non-JSON bodies.
func (r *Result) Decode(v any) error {
	if r.kind != KindJSON {
		return nil
	}
	return json.Unmarshal(bytes.TrimSpace(r.raw), v)
}
