package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vulnpack/pkg/techreport"
)

// technologiesCommand prints the technologies of a report without touching
// the registry or npm.
func (c *CLI) technologiesCommand() *cobra.Command {
	var all, asJSON bool

	cmd := &cobra.Command{
		Use:               "technologies <input.json>",
		Aliases:           []string{"tech"},
		Short:             "List the technologies detected with confidence 100",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles("json"),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := techreport.ReadFile(args[0])
			if err != nil {
				return err
			}
			techs := report.Certain()
			if all {
				techs = report.Technologies
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(techs)
			}
			if len(techs) == 0 {
				printWarning("No technologies found with confidence 100")
				return nil
			}
			fmt.Fprintln(out, renderTechnologies(techs))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include technologies below confidence 100")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
