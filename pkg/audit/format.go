package audit

import (
	"strings"
)

// Format renders the summary as the filtered text report: each finding's
// package line tagged [VULNERABLE] followed by its captured lines, then the
// summary line. Feeding the output back through Normalize yields the same
// findings.
func (s *Summary) Format() string {
	var b strings.Builder
	for _, f := range s.Findings {
		b.WriteString(vulnerablePrefix)
		b.WriteString(f.PackageLine)
		b.WriteByte('\n')
		for _, l := range f.Lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	if s.SeverityCounts != "" {
		b.WriteString(s.SeverityCounts)
		b.WriteByte('\n')
	}
	return b.String()
}

// Empty reports whether the report had neither findings nor a summary line.
func (s *Summary) Empty() bool {
	return len(s.Findings) == 0 && s.SeverityCounts == ""
}

// HighestSeverity returns the most severe finding severity, or "".
func (s *Summary) HighestSeverity() string {
	best := ""
	for _, f := range s.Findings {
		if Rank(f.Severity) > Rank(best) {
			best = f.Severity
		}
	}
	return best
}

// Rank orders npm severities for comparison: info=1 through critical=5,
// unknown values 0.
func Rank(severity string) int {
	switch strings.ToLower(severity) {
	case "info":
		return 1
	case "low":
		return 2
	case "moderate", "medium":
		return 3
	case "high":
		return 4
	case "critical":
		return 5
	default:
		return 0
	}
}
