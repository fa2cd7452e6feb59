package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/vulnpack/pkg/config"
	"github.com/matzehuels/vulnpack/pkg/observability"
	"github.com/matzehuels/vulnpack/pkg/pipeline"
)

// scanOpts holds the command-line flags for the scan command.
// Zero values leave the config file (or its defaults) in charge.
type scanOpts struct {
	outputDir     string // folder for package.json, lock file and report
	manifestPath  string // package.json override
	reportPath    string // audit report override
	name          string // manifest name
	version       string // manifest version
	backend       string // registry backend: http or npm
	minConfidence int    // exclusive confidence threshold
	concurrency   int    // parallel registry lookups
	skipInstall   bool   // generate the lock file only
	showSkipped   bool   // print the skipped technologies table
}

// scanCommand creates the scan command, the full report → manifest → audit run.
func (c *CLI) scanCommand() *cobra.Command {
	var opts scanOpts

	cmd := &cobra.Command{
		Use:   "scan <input.json>",
		Short: "Build an npm manifest from a technology report and audit it",
		Long: `Scan reads a technology-detection report, keeps the JavaScript libraries and
UI frameworks whose declared version is published on npm, writes them to
package.json and runs npm install and npm audit against it.

Output goes to a folder named after the input file unless overridden:

  <stem>/package.json
  <stem>/package-lock.json
  <stem>/audit-report.txt`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFiles("json"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyScanFlags(cmd, cfg, &opts)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runScan(cmd.Context(), args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "output folder (default: ./<input stem>)")
	cmd.Flags().StringVar(&opts.manifestPath, "manifest", "", "package.json path (default: <output-dir>/package.json)")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "audit report path (default: <output-dir>/audit-report.txt)")
	cmd.Flags().StringVar(&opts.name, "manifest-name", "", "manifest name (default: vulnerability-check)")
	cmd.Flags().StringVar(&opts.version, "manifest-version", "", "manifest version (default: 1.0.0)")
	cmd.Flags().StringVar(&opts.backend, "registry", "", "registry backend: http (default), npm")
	cmd.Flags().IntVar(&opts.minConfidence, "min-confidence", 0, "drop technologies at or below this confidence")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "parallel registry lookups (default: 1)")
	cmd.Flags().BoolVar(&opts.skipInstall, "skip-install", false, "generate the lock file without installing")
	cmd.Flags().BoolVar(&opts.showSkipped, "show-skipped", false, "list technologies that were not included")

	return cmd
}

// applyScanFlags copies explicitly set flags over cfg.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config, opts *scanOpts) {
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Manifest.OutputDir = opts.outputDir
	}
	if flags.Changed("manifest-name") {
		cfg.Manifest.Name = opts.name
	}
	if flags.Changed("manifest-version") {
		cfg.Manifest.Version = opts.version
	}
	if flags.Changed("registry") {
		cfg.Registry.Backend = opts.backend
	}
	if flags.Changed("min-confidence") {
		cfg.Filter.MinConfidence = opts.minConfidence
	}
	if flags.Changed("concurrency") {
		cfg.Registry.Concurrency = opts.concurrency
	}
	if flags.Changed("skip-install") {
		cfg.NPM.SkipInstall = opts.skipInstall
	}
}

func (c *CLI) runScan(ctx context.Context, input string, cfg *config.Config, opts scanOpts) error {
	observability.SetPipelineHooks(logHooks{logger: c.Logger})
	observability.SetHTTPHooks(httpLogHooks{logger: c.Logger})
	defer observability.Reset()

	prog := newProgress(c.Logger)
	runner := c.newRunner(cfg)
	popts := pipeline.Options{
		InputPath:       input,
		OutputDir:       cfg.Manifest.OutputDir,
		ManifestPath:    opts.manifestPath,
		ReportPath:      opts.reportPath,
		ManifestName:    cfg.Manifest.Name,
		ManifestVersion: cfg.Manifest.Version,
		Rules:           cfg.Rules,
		MinConfidence:   cfg.Filter.MinConfidence,
		Concurrency:     cfg.Registry.Concurrency,
		SkipInstall:     cfg.NPM.SkipInstall,
	}

	printInfo("Validating technologies from %s", input)
	result, err := runner.Resolve(ctx, popts)
	if err != nil {
		return err
	}
	c.printResolution(result, opts.showSkipped)

	spinner := newSpinner(ctx, "Running npm (lock file, install, audit)...")
	spinner.Start()
	err = runner.Audit(ctx, popts, result)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			spinner.Stop()
			return err
		}
		spinner.StopWithError("npm failed")
		return err
	}
	spinner.Stop()

	if result.InstallWarning != "" {
		printWarning("npm install completed with warnings/errors")
		for _, line := range strings.Split(result.InstallWarning, "\n") {
			printDetail("%s", line)
		}
	}
	if result.AuditError != nil {
		printWarning("npm audit did not complete: %v", result.AuditError)
	}

	printNewline()
	if len(result.Audit.Findings) == 0 {
		printSuccess("No vulnerable packages found")
	} else {
		printReport(os.Stdout, result.Audit)
	}
	printNewline()
	printSuccess("Saved filtered audit report")
	printFile(result.ReportPath)
	prog.done(fmt.Sprintf("Scan complete, %d findings", len(result.Audit.Findings)))
	return nil
}

func (c *CLI) printResolution(result *pipeline.Result, showSkipped bool) {
	res := result.Resolution
	if len(res.Dependencies) == 0 {
		printWarning("No valid dependencies found, created an empty package.json for scanning")
	} else {
		printSuccess("Resolved %d of %d technologies", len(res.Dependencies), result.Stats.Technologies)
	}
	printFile(result.ManifestPath)

	for _, col := range res.Collisions {
		printWarning("%q and %q both map to package %q; kept %q", col.Previous, col.Current, col.Package, col.Current)
	}

	printNewline()
	if len(result.Certain) == 0 {
		printWarning("No technologies found with confidence 100")
	} else {
		fmt.Println(StyleTitle.Render("Technologies"))
		fmt.Println(renderTechnologies(result.Certain))
	}

	if showSkipped && len(res.Skipped) > 0 {
		printNewline()
		fmt.Println(StyleTitle.Render("Skipped"))
		fmt.Println(renderSkips(res.Skipped))
	}
	printNewline()
}
