// Package httputil provides HTTP utilities for package registry clients.
//
// # Retry
//
// [Retry] wraps registry requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses (honouring Retry-After)
//
// Only errors wrapped in [RetryableError] are retried; everything else,
// including 404 responses, fails fast:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetch(ctx)
//	})
//
// Default settings ([RetryWithBackoff]): 3 attempts, 1 second initial delay,
// doubling after each failure.
//
// Responses are never cached; each run queries the registry afresh.
package httputil
