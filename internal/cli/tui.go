package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/vulnpack/pkg/audit"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	detailLabel     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	detailBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
	listCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

// =============================================================================
// FindingListModel - Interactive finding browser
// =============================================================================

// FindingListModel is the bubbletea model for browsing audit findings.
type FindingListModel struct {
	Summary *audit.Summary
	Cursor  int
	Height  int
	Offset  int
	// Expanded shows the full captured text of the selected finding.
	Expanded bool
}

// NewFindingListModel creates a new finding list model.
func NewFindingListModel(s *audit.Summary) FindingListModel {
	return FindingListModel{Summary: s, Height: 10}
}

func (m FindingListModel) Init() tea.Cmd {
	return nil
}

func (m FindingListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n := len(m.Summary.Findings)
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < n-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			if n > 0 {
				m.Cursor = n - 1
				m.Offset = max(0, n-m.Height)
			}
		case "enter", " ":
			m.Expanded = !m.Expanded
		}
	case tea.WindowSizeMsg:
		// Leave room for the title, help line and detail box.
		m.Height = max(3, msg.Height/2-4)
	}
	return m, nil
}

func (m FindingListModel) View() string {
	var b strings.Builder
	findings := m.Summary.Findings

	b.WriteString(StyleTitle.Render("Vulnerable Packages"))
	if m.Summary.SeverityCounts != "" {
		b.WriteString("  " + listDimStyle.Render(m.Summary.SeverityCounts))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	if len(findings) == 0 {
		b.WriteString(StyleSuccess.Render("No vulnerable packages found"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(findings))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		f := findings[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		severity := f.Severity
		if severity == "" {
			severity = "—"
		}
		rows = append(rows, []string{cursor, f.Package, f.Range, severity, fmt.Sprint(len(f.Advisories))})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Range", "Severity", "Advisories").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(findings) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 3 {
				base = severityStyle(findings[idx].Severity)
			}
			if idx == m.Cursor {
				if col == 3 {
					return base.Bold(true)
				}
				return listCursorStyle
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(m.detail(findings[m.Cursor]))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(findings))))

	return b.String()
}

func (m FindingListModel) detail(f audit.Finding) string {
	var b strings.Builder
	b.WriteString(detailLabel.Render("Package") + " " + StyleValue.Render(f.PackageLine) + "\n")
	if f.Severity != "" {
		b.WriteString(detailLabel.Render("Severity") + " " + severityStyle(f.Severity).Render(f.Severity) + "\n")
	}
	for i, a := range f.Advisories {
		label := ""
		if i == 0 {
			label = "Advisories"
		}
		b.WriteString(detailLabel.Render(label) + " " + StyleLink.Render(a) + "\n")
	}
	if m.Expanded {
		for _, l := range f.Lines {
			b.WriteString(listDimStyle.Render(l) + "\n")
		}
	} else if len(f.Details) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("%d more lines, ⏎ to expand", len(f.Details))) + "\n")
	}
	return detailBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
