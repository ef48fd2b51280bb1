package httpx

import "time"

// Method is the HTTP verb carried by a Request.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

// Request describes one HTTP interaction with a bank gateway, independent of
// the transport that will eventually execute it. Providers both send Requests
// through a Client and return them to callers as redirect instructions for
// the payer's browser. Construct once, never mutate.
type Request struct {
	Method  Method
	URL     URL
	Timeout time.Duration
	Headers Headers
	// Body carries the request payload; encoded as JSON when IsJSON reports
	// true, as form data otherwise. Nil means no body.
	Body map[string]any
}

func NewRequest(method Method, url URL, timeout time.Duration, headers Headers, body map[string]any) *Request {
	return &Request{
		Method:  method,
		URL:     url,
		Timeout: timeout,
		Headers: headers,
		Body:    body,
	}
}

// IsJSON mirrors the header detection of Headers.IsJSON.
func (r *Request) IsJSON() bool { return r.Headers.IsJSON() }
