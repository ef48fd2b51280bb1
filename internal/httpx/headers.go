package httpx

import "net/textproto"

const contentTypeJSON = "application/json"

// Headers is a case-insensitive header collection. Construct with NewHeaders
// and treat as read-only afterwards; every accessor copies.
type Headers struct {
	store map[string]string
}

func NewHeaders(values map[string]string) Headers {
	store := make(map[string]string, len(values))
	for name, value := range values {
		store[textproto.CanonicalMIMEHeaderKey(name)] = value
	}
	return Headers{store: store}
}

// Get returns the value for name regardless of casing, or def when absent.
func (h Headers) Get(name, def string) string {
	if v, ok := h.store[textproto.CanonicalMIMEHeaderKey(name)]; ok {
		return v
	}
	return def
}

// ToMap returns a copy of the underlying values with canonical names.
func (h Headers) ToMap() map[string]string {
	out := make(map[string]string, len(h.store))
	for name, value := range h.store {
		out[name] = value
	}
	return out
}

// IsJSON reports whether the Content-Type header is exactly
// "application/json". Parameterized content types (charset suffixes) are
// deliberately not recognized; gateways in this domain send the bare type.
func (h Headers) IsJSON() bool {
	return h.Get("Content-Type", "") == contentTypeJSON
}
