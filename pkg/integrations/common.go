package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	httpTimeout       = 10 * time.Second
	defaultAttempts   = 3
	defaultRetryDelay = time.Second
)

var (
	// ErrNotFound is returned when a package doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client for registry requests.
// A non-positive timeout falls back to the 10s default.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = httpTimeout
	}
	return &http.Client{Timeout: timeout}
}

// PackagePath escapes a package name for use as a registry URL path segment.
// Scoped names keep their leading "@" and have the "/" encoded, which is the
// form registries expect ("@types/node" -> "@types%2Fnode").
func PackagePath(name string) string {
	if strings.HasPrefix(name, "@") {
		return "@" + url.PathEscape(strings.TrimPrefix(name, "@"))
	}
	return url.PathEscape(name)
}
