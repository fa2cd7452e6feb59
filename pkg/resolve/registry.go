package resolve

import "context"

// Registry is the narrow view of a package registry the resolver needs.
//
// Both methods are best-effort: implementations must not return errors.
// A failed lookup is reported as "does not exist" or as an empty version
// list, and the candidate is dropped rather than failing the run.
type Registry interface {
	// Exists reports whether the registry has any published version of name.
	Exists(ctx context.Context, name string) bool
	// ListVersions returns the published versions of name, or an empty slice.
	ListVersions(ctx context.Context, name string) []string
}
