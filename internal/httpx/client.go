package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client sends a Request and returns the gateway's Response. Send blocks
// until the response arrives, the request times out, or ctx is cancelled;
// it never retries. Implementations must wrap every transport failure as
// *ConnectionError.
type Client interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// NetClient is the production Client on top of net/http.
type NetClient struct {
	hc *http.Client
	// observe, when set, is called once per completed send attempt. Used by
	// the metrics layer; the client itself stays transport-only.
	observe func(host string, outcome string, elapsed time.Duration)
}

// NetClientOption configures a NetClient.
type NetClientOption func(*NetClient)

// WithObserver wires a per-request observation hook.
func WithObserver(fn func(host string, outcome string, elapsed time.Duration)) NetClientOption {
	return func(c *NetClient) { c.observe = fn }
}

// WithTransport replaces the underlying http.Client (tests, proxies).
func WithTransport(hc *http.Client) NetClientOption {
	return func(c *NetClient) { c.hc = hc }
}

func NewNetClient(opts ...NetClientOption) *NetClient {
	c := &NetClient{hc: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send executes req. The body is serialized as JSON when req.IsJSON() and as
// form data otherwise. req.Timeout bounds the whole exchange in addition to
// any deadline already on ctx.
func (c *NetClient) Send(ctx context.Context, req *Request) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), req.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", req.URL, err)
	}
	for name, value := range req.Headers.ToMap() {
		httpReq.Header.Set(name, value)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	httpResp, err := c.hc.Do(httpReq)
	if err != nil {
		c.observed(httpReq.URL.Host, "transport_error", start)
		return nil, &ConnectionError{Request: req, Cause: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.observed(httpReq.URL.Host, "transport_error", start)
		return nil, &ConnectionError{Request: req, Cause: err}
	}
	c.observed(httpReq.URL.Host, fmt.Sprintf("%d", httpResp.StatusCode), start)

	headers := make(map[string]string, len(httpResp.Header))
	for name := range httpResp.Header {
		headers[name] = httpResp.Header.Get(name)
	}
	// Strip content-type parameters so IsJSON matches "application/json"
	// even when the gateway appends a charset.
	if ct, ok := headers["Content-Type"]; ok {
		headers["Content-Type"] = strings.TrimSpace(strings.Split(ct, ";")[0])
	}
	return NewResponse(httpResp.StatusCode, NewHeaders(headers), raw), nil
}

func (c *NetClient) observed(host, outcome string, start time.Time) {
	if c.observe != nil {
		c.observe(host, outcome, time.Since(start))
	}
}

func encodeBody(req *Request) (io.Reader, string, error) {
	if len(req.Body) == 0 {
		return nil, "", nil
	}
	if req.IsJSON() {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encode JSON body: %w", err)
		}
		return bytes.NewReader(raw), contentTypeJSON, nil
	}
	form := url.Values{}
	for key, value := range req.Body {
		form.Set(key, fmt.Sprintf("%v", value))
	}
	return strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil
}
