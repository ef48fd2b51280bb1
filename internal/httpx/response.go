package httpx

import (
	"encoding/json"
	"fmt"
)

// Response is the immutable result of one gateway call.
type Response struct {
	StatusCode int
	Headers    Headers
	Body       []byte
}

func NewResponse(statusCode int, headers Headers, body []byte) *Response {
	return &Response{StatusCode: statusCode, Headers: headers, Body: body}
}

// OK reports whether the status code is in [200, 400).
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// IsJSON reports whether the response declares a JSON body.
func (r *Response) IsJSON() bool { return r.Headers.IsJSON() }

// JSON decodes the body as a JSON object. It fails with *InvalidJSONError
// when the response is not declared as JSON, the body does not parse, or the
// top-level value is not an object.
func (r *Response) JSON() (map[string]any, error) {
	if !r.IsJSON() {
		return nil, &InvalidJSONError{Response: r, Reason: "response content-type is not JSON"}
	}
	var decoded any
	if err := json.Unmarshal(r.Body, &decoded); err != nil {
		return nil, &InvalidJSONError{Response: r, Reason: fmt.Sprintf("failed to decode body: %v", err)}
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, &InvalidJSONError{Response: r, Reason: fmt.Sprintf("expected JSON object, got %T", decoded)}
	}
	return obj, nil
}
