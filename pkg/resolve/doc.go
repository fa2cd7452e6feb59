// Package resolve turns detected technologies into validated npm dependencies.
//
// # Pipeline
//
// For each configured [Rule] (in order) and each technology (in declared
// order) the resolver:
//
//  1. Selects technologies tagged with one of the rule's category slugs
//  2. Drops entries with confidence at or below [Filter.MinConfidence] or
//     without a version
//  3. Sanitizes the name with [Sanitize]
//  4. Asks the [Registry] whether the package exists
//  5. Requires the declared version to be an exact member of the registry's
//     published versions (no range matching, no coercion)
//
// Survivors are inserted into a name→version mapping; a later entry with the
// same sanitized name overwrites an earlier one and, when the original names
// differ, a [Collision] is recorded. Every dropped entry is reported as a
// [Skip] with its [Reason]; nothing here returns an error.
//
// Technologies matched by a rule with Metadata set are also described in
// [Result.Metadata], whether or not they validated.
//
// # Concurrency
//
// Validation is sequential by default. With [Resolver.Concurrency] above one,
// registry lookups run in parallel and are merged afterwards by candidate
// index, so the last-write-wins outcome is the same as a sequential run.
package resolve
