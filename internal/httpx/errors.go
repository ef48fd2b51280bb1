package httpx

import "fmt"

// ConnectionError wraps any transport-level failure (timeout, refused
// connection, cancelled context) observed while sending a Request. Raw
// net/http errors never cross this package's boundary.
type ConnectionError struct {
	Request *Request
	Cause   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to gateway %s: %v", e.Request.URL, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// GatewayError marks this as part of the gateway error family.
func (e *ConnectionError) GatewayError() {}

// InvalidJSONError reports a response whose body could not be interpreted as
// a JSON object. It keeps the response for diagnostics.
type InvalidJSONError struct {
	Response *Response
	Reason   string
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("invalid JSON in gateway response (status %d): %s", e.Response.StatusCode, e.Reason)
}

// GatewayError marks this as part of the gateway error family.
func (e *InvalidJSONError) GatewayError() {}
