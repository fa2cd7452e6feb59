package audit

import (
	"regexp"
	"strings"
)

// Markers are the substrings that identify each kind of line in an audit
// report. The zero value recognises nothing; use [DefaultMarkers] for npm.
type Markers struct {
	Header         string   // report header, dropped
	SummaryPhrases []string // severity-count summary, ends the report
	Noise          []string // fix and install notices, dropped
	Advisory       string   // advisory link prefix
	Severity       string   // severity line prefix
}

// DefaultMarkers returns the markers for npm's text report.
func DefaultMarkers() Markers {
	return Markers{
		Header:         "# npm audit report",
		SummaryPhrases: []string{"severity vulnerability", "severity vulnerabilities"},
		Noise:          []string{"fix available", "Will install", "node_modules/"},
		Advisory:       "https://github.com/advisories/",
		Severity:       "Severity:",
	}
}

// vulnerablePrefix tags package lines in formatted output.
const vulnerablePrefix = "[VULNERABLE] "

// npm 7+ prints "3 vulnerabilities (1 low, 2 high)" or
// "found 0 vulnerabilities" instead of the "severity vulnerabilities" phrase.
var countSummary = regexp.MustCompile(`^\s*(?:found\s+)?\d+\s+vulnerabilit(?:y|ies)\b`)

type lineKind int

const (
	lineDetail lineKind = iota
	lineHeader
	lineSummary
	lineBlank
	lineNoise
	linePackage
	lineAdvisory
	lineSeverity
)

var lineKindNames = [...]string{"detail", "header", "summary", "blank", "noise", "package", "advisory", "severity"}

func (k lineKind) String() string { return lineKindNames[k] }

// classify tags a single line. Checks run in rule order, first match wins.
func (m Markers) classify(line string) lineKind {
	switch {
	case m.Header != "" && strings.HasPrefix(line, m.Header):
		return lineHeader
	case m.isSummary(line):
		return lineSummary
	case strings.TrimSpace(line) == "":
		return lineBlank
	case containsAny(line, m.Noise):
		return lineNoise
	case isPackageLine(line):
		return linePackage
	case m.Advisory != "" && strings.Contains(line, m.Advisory):
		return lineAdvisory
	case m.Severity != "" && strings.HasPrefix(strings.TrimLeft(line, " \t"), m.Severity):
		return lineSeverity
	}
	return lineDetail
}

func (m Markers) isSummary(line string) bool {
	return containsAny(line, m.SummaryPhrases) || countSummary.MatchString(line)
}

// isPackageLine reports a line that starts at column zero and has an
// internal run of two or more spaces separating name and range.
func isPackageLine(line string) bool {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	return strings.Contains(strings.TrimSpace(line), "  ")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
