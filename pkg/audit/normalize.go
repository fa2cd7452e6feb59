package audit

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Finding is one vulnerable package block from the report.
type Finding struct {
	PackageLine string   `json:"package_line"`
	Package     string   `json:"package"`
	Range       string   `json:"range,omitempty"`
	Severity    string   `json:"severity,omitempty"`
	Advisories  []string `json:"advisories"`
	Details     []string `json:"details"`
	// Lines holds every captured line after the package line in encounter
	// order, blank separators included.
	Lines []string `json:"lines"`
}

// Summary is the normalized report.
type Summary struct {
	Findings []Finding `json:"findings"`
	// Total is the leading count of the summary line, nil when the report
	// had no summary.
	Total *int `json:"total,omitempty"`
	// SeverityCounts is the summary line as printed.
	SeverityCounts string         `json:"severity_counts,omitempty"`
	Counts         map[string]int `json:"counts,omitempty"`
}

type state int

const (
	scanning state = iota
	capturing
)

// Normalizer extracts findings from a raw audit report.
type Normalizer struct {
	Markers Markers
}

// NewNormalizer returns a Normalizer using the npm markers.
func NewNormalizer() *Normalizer {
	return &Normalizer{Markers: DefaultMarkers()}
}

// Normalize runs the npm normalizer over text.
func Normalize(text string) *Summary {
	return NewNormalizer().Normalize(text)
}

// Normalize processes text line by line and stops at the summary line.
// It never fails: lines it cannot place are dropped.
func (n *Normalizer) Normalize(text string) *Summary {
	p := n.newParser()
	for line := range strings.SplitSeq(strings.TrimSuffix(text, "\n"), "\n") {
		if p.feed(line) {
			break
		}
	}
	return p.summary
}

// NormalizeReader is Normalize over a stream. Lines may be of any length.
// The error is only ever a read error from r; the summary holds whatever was
// parsed before it.
func (n *Normalizer) NormalizeReader(r io.Reader) (*Summary, error) {
	p := n.newParser()
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" && p.feed(strings.TrimSuffix(line, "\n")) {
			return p.summary, nil
		}
		if err == io.EOF {
			return p.summary, nil
		}
		if err != nil {
			return p.summary, err
		}
	}
}

func (n *Normalizer) newParser() *parser {
	return &parser{markers: n.Markers, summary: &Summary{Findings: []Finding{}}}
}

type parser struct {
	markers Markers
	state   state
	summary *Summary
}

// feed applies one line and reports whether parsing is finished.
func (p *parser) feed(raw string) bool {
	line := strings.TrimRight(raw, " \t\r")
	line = strings.TrimPrefix(line, vulnerablePrefix)

	cur := p.current()
	switch p.markers.classify(line) {
	case lineHeader, lineNoise:
	case lineSummary:
		p.setSummary(strings.TrimSpace(line))
		return true
	case lineBlank:
		if p.state == capturing && cur != nil {
			cur.Lines = append(cur.Lines, "")
		}
	case linePackage:
		p.summary.Findings = append(p.summary.Findings, newFinding(line))
		p.state = capturing
	case lineAdvisory:
		if cur != nil {
			cur.Advisories = append(cur.Advisories, strings.TrimSpace(line))
			cur.Lines = append(cur.Lines, line)
		}
	case lineSeverity:
		if cur != nil {
			cur.Severity = severityValue(line, p.markers.Severity)
			cur.Lines = append(cur.Lines, line)
		}
	case lineDetail:
		if p.state == capturing && cur != nil {
			cur.Details = append(cur.Details, line)
			cur.Lines = append(cur.Lines, line)
		}
	}
	return false
}

func (p *parser) current() *Finding {
	if n := len(p.summary.Findings); n > 0 {
		return &p.summary.Findings[n-1]
	}
	return nil
}

var (
	firstNumber   = regexp.MustCompile(`\d+`)
	severityCount = regexp.MustCompile(`(\d+)\s+(info|low|moderate|high|critical)\b`)
)

func (p *parser) setSummary(line string) {
	p.summary.SeverityCounts = line
	if m := firstNumber.FindString(line); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			p.summary.Total = &n
		}
	}
	for _, m := range severityCount.FindAllStringSubmatch(line, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if p.summary.Counts == nil {
			p.summary.Counts = make(map[string]int)
		}
		p.summary.Counts[m[2]] += n
	}
}

func newFinding(line string) Finding {
	f := Finding{PackageLine: line, Advisories: []string{}, Details: []string{}, Lines: []string{}}
	name, rest, _ := strings.Cut(line, "  ")
	f.Package = strings.TrimSpace(name)
	f.Range = strings.TrimSpace(rest)
	return f
}

// severityValue returns the first word after the marker, lower-cased.
func severityValue(line, marker string) string {
	_, after, _ := strings.Cut(line, marker)
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
