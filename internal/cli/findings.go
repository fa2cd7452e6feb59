package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/vulnpack/pkg/audit"
	vperrors "github.com/matzehuels/vulnpack/pkg/errors"
)

// findingsCommand normalizes a captured "npm audit" text report, either from
// a file or from stdin ("-").
func (c *CLI) findingsCommand() *cobra.Command {
	var asJSON, raw, interactive bool

	cmd := &cobra.Command{
		Use:   "findings <audit.txt|->",
		Short: "Normalize a captured npm audit report",
		Long: `Findings parses the text output of npm audit (or a previously saved
audit-report.txt) and lists one entry per vulnerable package.

  npm audit | vulnpack findings -
  vulnpack findings site/audit-report.txt --interactive`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles("txt", "log"),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := readFindings(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			c.Logger.Debug("normalized report", "findings", len(summary.Findings), "summary", summary.SeverityCounts)

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			case raw:
				_, err := io.WriteString(out, summary.Format())
				return err
			case interactive:
				if len(summary.Findings) == 0 {
					printSuccess("No vulnerable packages found")
					return nil
				}
				_, err := tea.NewProgram(NewFindingListModel(summary), tea.WithContext(cmd.Context())).Run()
				return err
			}

			if len(summary.Findings) == 0 {
				printSuccess("No vulnerable packages found")
			} else {
				fmt.Fprintln(out, renderFindings(summary.Findings))
			}
			if summary.SeverityCounts != "" {
				fmt.Fprintln(out, StyleTitle.Render(summary.SeverityCounts))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print findings as JSON")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the filtered text report")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse findings interactively")
	cmd.MarkFlagsMutuallyExclusive("json", "raw", "interactive")
	return cmd
}

func readFindings(stdin io.Reader, path string) (*audit.Summary, error) {
	if path == "-" {
		s, err := audit.NewNormalizer().NormalizeReader(stdin)
		if err != nil {
			return nil, vperrors.Wrap(vperrors.ErrCodeInvalidInput, err, "read stdin")
		}
		return s, nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, vperrors.Wrap(vperrors.ErrCodeFileNotFound, err, "audit report %s", path)
	}
	if err != nil {
		return nil, vperrors.Wrap(vperrors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	s, err := audit.NewNormalizer().NormalizeReader(f)
	if err != nil {
		return nil, vperrors.Wrap(vperrors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return s, nil
}
