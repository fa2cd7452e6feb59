package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/vulnpack/pkg/audit"
	"github.com/matzehuels/vulnpack/pkg/resolve"
	"github.com/matzehuels/vulnpack/pkg/techreport"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings, moderate
	colorOrange = lipgloss.Color("208") // Orange - high
	colorRed    = lipgloss.Color("167") // Soft red - errors, critical
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// severityStyle colors a severity label.
func severityStyle(severity string) lipgloss.Style {
	switch audit.Rank(severity) {
	case 5:
		return lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	case 4:
		return lipgloss.NewStyle().Foreground(colorOrange)
	case 3:
		return lipgloss.NewStyle().Foreground(colorYellow)
	case 0:
		return StyleDim
	default:
		return lipgloss.NewStyle().Foreground(colorGray)
	}
}

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// renderTechnologies renders the name/version table of detected technologies.
func renderTechnologies(techs []techreport.Technology) string {
	t := newTable("Name", "Version")
	for _, tech := range techs {
		version := tech.Version
		if version == "" {
			version = "N/A"
		}
		t.Row(tech.Name, version)
	}
	return t.Render()
}

// renderSkips renders the technologies dropped during resolution.
func renderSkips(skips []resolve.Skip) string {
	t := newTable("Technology", "Package", "Reason", "Detail")
	for _, s := range skips {
		t.Row(s.Technology, s.Package, string(s.Reason), s.Detail)
	}
	return t.Render()
}

// renderFindings renders one row per finding.
func renderFindings(findings []audit.Finding) string {
	t := newTable("#", "Package", "Range", "Severity", "Advisories").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 3 && row < len(findings):
				return severityStyle(findings[row].Severity).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for i, f := range findings {
		severity := f.Severity
		if severity == "" {
			severity = "unknown"
		}
		t.Row(strconv.Itoa(i+1), f.Package, f.Range, severity, strconv.Itoa(len(f.Advisories)))
	}
	return t.Render()
}

// printReport writes the filtered report with styled package and severity
// lines.
func printReport(w io.Writer, s *audit.Summary) {
	for _, f := range s.Findings {
		fmt.Fprintln(w, styleIconError.Render("[VULNERABLE]")+" "+StyleValue.Render(f.PackageLine))
		for _, l := range f.Lines {
			switch {
			case strings.HasPrefix(strings.TrimSpace(l), "Severity:"):
				fmt.Fprintln(w, severityStyle(f.Severity).Render(l))
			case strings.Contains(l, "https://"):
				fmt.Fprintln(w, StyleLink.Render(l))
			default:
				fmt.Fprintln(w, l)
			}
		}
	}
	if s.SeverityCounts != "" {
		fmt.Fprintln(w, StyleTitle.Render(s.SeverityCounts))
	}
}
