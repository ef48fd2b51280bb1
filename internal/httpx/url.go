package httpx

import (
	"fmt"
	"net/url"
	"strings"
)

// URL is an immutable, validated gateway endpoint address. The zero value is
// not usable; construct through Parse or MustParse.
//
// The stored form always ends with a single "/" so that joining and string
// comparison behave the same no matter how the operator wrote the endpoint
// in config.
type URL struct {
	value string
}

// Parse validates that raw carries both a scheme and a host and returns the
// normalized URL.
func Parse(raw string) (URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return URL{}, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return URL{}, fmt.Errorf("invalid url %q: scheme and host are required", raw)
	}
	return URL{value: strings.TrimRight(raw, "/") + "/"}, nil
}

// MustParse is Parse for compile-time constant endpoints.
func MustParse(raw string) URL {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// Join appends a path segment and returns a new normalized URL.
// Joining an empty path is a no-op, so normalization is idempotent.
func (u URL) Join(path string) URL {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return URL{value: u.value}
	}
	return URL{value: u.value + trimmed + "/"}
}

// IsZero reports whether the URL was never constructed.
func (u URL) IsZero() bool { return u.value == "" }

func (u URL) String() string { return u.value }
