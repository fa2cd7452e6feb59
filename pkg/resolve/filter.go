package resolve

import "github.com/matzehuels/vulnpack/pkg/techreport"

// Default category slugs.
const (
	SlugJavaScriptLibraries = "javascript-libraries"
	SlugUIFrameworks        = "ui-frameworks"
)

// Reason explains why a technology did not become a dependency.
// The empty Reason means the technology passed.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonZeroConfidence  Reason = "confidence too low"
	ReasonCategory        Reason = "category not selected"
	ReasonNoVersion       Reason = "no version specified"
	ReasonEmptyName       Reason = "empty package name"
	ReasonUnavailable     Reason = "package unavailable"
	ReasonVersionMismatch Reason = "version not published"
)

// Rule selects technologies by category. Every rule's matches go through the
// same registry validation and land in the same dependency mapping; a rule
// with Metadata set additionally records a [Metadata] entry for each
// technology it matches.
type Rule struct {
	Name       string   `json:"name" toml:"name"`
	Categories []string `json:"categories" toml:"categories"`
	Metadata   bool     `json:"metadata" toml:"metadata"`
}

// DefaultRules returns the JavaScript-library rule followed by the
// UI-framework rule.
func DefaultRules() []Rule {
	return []Rule{
		{Name: SlugJavaScriptLibraries, Categories: []string{SlugJavaScriptLibraries}},
		{Name: SlugUIFrameworks, Categories: []string{SlugUIFrameworks}, Metadata: true},
	}
}

// Filter holds the eligibility thresholds.
type Filter struct {
	// MinConfidence is exclusive: confidence must be strictly greater.
	// The zero value drops only confidence-0 detector noise.
	MinConfidence int
}

// Check returns the first eligibility clause t fails for the given category
// slugs, or ReasonNone.
func (f Filter) Check(t techreport.Technology, slugs ...string) Reason {
	switch {
	case t.Confidence <= f.MinConfidence:
		return ReasonZeroConfidence
	case !t.HasCategory(slugs...):
		return ReasonCategory
	case t.Version == "":
		return ReasonNoVersion
	}
	return ReasonNone
}

// IsEligible reports whether t has non-zero confidence, carries the category
// slug and declares a version.
func IsEligible(t techreport.Technology, slug string) bool {
	return Filter{}.Check(t, slug) == ReasonNone
}
