package resolve

import "strings"

// Sanitize turns a free-form technology name into a registry-safe package
// identifier: every rune outside [A-Za-z0-9_-] becomes "-" and the result is
// lower-cased. Sanitize is total and idempotent.
//
//	Sanitize("Vue.js")  // "vue-js"
//	Sanitize("@@@")     // "---"
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, name)
}
