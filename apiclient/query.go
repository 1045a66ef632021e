package apiclient

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// buildURL joins base and path and appends the non-empty params.
func buildURL(base, path string, params Params) (string, error) {
	if strings.HasPrefix(path, "/") {
		base = strings.TrimRight(base, "/")
	}
	raw := base + path

	u, err := url.Parse(raw)
	if err != nil {
		return "", NewValidationError(fmt.Sprintf("invalid request URL %q", raw), "path")
	}
	if u.Scheme == "" || u.Host == "" {
		return "", NewValidationError(fmt.Sprintf("request URL %q is not absolute", raw), "path")
	}

	values := u.Query()
	for key, value := range params {
		s, ok := formatParam(value)
		if !ok {
			continue
		}
		values.Add(key, s)
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// formatParam renders a query value. It reports false for values that must
// not be sent: nil, nil pointers and empty strings.
func formatParam(value any) (string, bool) {
	if value == nil {
		return "", false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		return formatParam(rv.Elem().Interface())
	}

	switch v := value.(type) {
	case string:
		return v, v != ""
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case fmt.Stringer:
		return formatParam(v.String())
	}

	if rv.Kind() == reflect.String {
		return formatParam(rv.String())
	}
	return fmt.Sprint(value), true
}
