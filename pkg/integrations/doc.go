// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// The [Client] type provides shared HTTP functionality used by registry
// clients: default headers, JSON decoding, status-code mapping and retry with
// exponential backoff for transient failures. Registry-specific clients live
// in subpackages:
//
//   - [npm]: the npm registry (registry.npmjs.org or a compatible mirror)
//
// # Errors
//
// A 404 maps to [ErrNotFound]. Network failures and 5xx responses map to
// [ErrNetwork] and are retried; 429 responses are retried after the
// registry's Retry-After delay.
//
// # Caching
//
// Nothing is cached. Each run queries the registry afresh, so version lists
// always reflect the registry at validation time.
//
// [npm]: github.com/matzehuels/vulnpack/pkg/integrations/npm
package integrations
