// Package apiclient provides the HTTP client used to talk to the
// driving-licence applications backend.
//
// Requests
//   - The base URL is fixed when the client is built; Get, Put and Do take a
//     path that is appended to it.
//   - Query parameters whose value is nil or the empty string are omitted.
//   - Request bodies are JSON encoded and sent with Content-Type and Accept
//     set to application/json.
//
// Retries
//   - Every network error, timeout and non-2xx response is retried until the
//     configured number of attempts (default 3) is used up.
//   - The wait before retry i (zero-based) is delay * 2^i with a 1s default
//     delay, so the default schedule is 1s then 2s. No jitter is applied.
//     An optional cap bounds a single wait.
//   - Waits are interrupted by context cancellation.
//   - Validation and interceptor errors are returned immediately.
//   - When attempts run out the caller receives a *RequestError reading
//     "API Request Failed after N attempts: <last error>".
//
// Responses
//   - A 2xx response never fails. Its body is exposed through Result, which
//     tells apart a JSON body, an empty body and a body that is not JSON.
//   - Error messages of non-2xx responses are taken from the "message" or
//     "error" field of a JSON body, falling back to the status code.
package apiclient
