// Package pipeline runs a complete vulnpack scan.
//
// This package implements the technology report → manifest → audit pipeline
// used by the CLI. Keeping it out of internal/cli keeps the control flow and
// error policy testable without a terminal or a real npm.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Resolve: read the technology report, validate candidates against the
//     registry and write package.json
//  2. Audit: generate a lock file, install, run the auditor and write the
//     normalized report
//
// Each stage can be run on its own; [Runner.Execute] runs both.
//
// # Errors
//
// A missing or malformed input file, a failed manifest or report write and a
// failed lock-file generation abort the run. Per-candidate registry failures
// never do: they are reported in [resolve.Result.Skipped]. A failed install
// is recorded as a warning and a failed audit invocation still has whatever
// output it produced normalized.
//
// # Usage
//
//	tools := func(dir string) pipeline.Toolchain { return npmcli.New(dir, 0, logger) }
//	runner := pipeline.NewRunner(npm.NewClient("", 0), tools, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{InputPath: "site.json"})
//	if err != nil {
//	    return err
//	}
//	fmt.Print(result.Audit.Format())
package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/vulnpack/pkg/audit"
	vperrors "github.com/matzehuels/vulnpack/pkg/errors"
	"github.com/matzehuels/vulnpack/pkg/manifest"
	"github.com/matzehuels/vulnpack/pkg/resolve"
	"github.com/matzehuels/vulnpack/pkg/techreport"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// ManifestFile is the file npm reads; the manifest path must use it
	// unless installation is skipped entirely.
	ManifestFile = "package.json"

	// ReportFile is the default audit report file name.
	ReportFile = "audit-report.txt"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a scan.
type Options struct {
	InputPath string `json:"input_path"`

	// OutputDir defaults to a folder named after the input file stem in the
	// current directory.
	OutputDir    string `json:"output_dir,omitempty"`
	ManifestPath string `json:"manifest_path,omitempty"`
	ReportPath   string `json:"report_path,omitempty"`

	ManifestName    string `json:"manifest_name,omitempty"`
	ManifestVersion string `json:"manifest_version,omitempty"`

	Rules         []resolve.Rule `json:"rules,omitempty"`
	MinConfidence int            `json:"min_confidence,omitempty"`
	Concurrency   int            `json:"concurrency,omitempty"`

	// SkipInstall skips "npm install". The lock file is still generated
	// because the auditor needs it.
	SkipInstall bool `json:"skip_install,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a scan.
type Result struct {
	// RunID identifies this run in logs.
	RunID string

	// Certain lists the confidence-100 technologies of the input.
	Certain []techreport.Technology

	Resolution   *resolve.Result
	Manifest     *manifest.Manifest
	ManifestPath string

	// Audit is nil until the audit stage has run.
	Audit      *audit.Summary
	ReportPath string

	// InstallWarning holds npm's stderr when "npm install" failed.
	InstallWarning string
	// AuditError is set when the auditor itself could not run to completion.
	AuditError error

	Stats Stats
}

// Stats contains stage timings.
type Stats struct {
	Technologies int
	ResolveTime  time.Duration
	LockfileTime time.Duration
	InstallTime  time.Duration
	AuditTime    time.Duration
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if strings.TrimSpace(o.InputPath) == "" {
		return vperrors.New(vperrors.ErrCodeInvalidInput, "input file is required")
	}
	if o.MinConfidence < 0 || o.MinConfidence > 100 {
		return vperrors.New(vperrors.ErrCodeInvalidInput,
			"min confidence must be within 0..100, got %d", o.MinConfidence)
	}

	if o.OutputDir == "" {
		o.OutputDir = InputStem(o.InputPath)
	}
	if o.ManifestPath == "" {
		o.ManifestPath = filepath.Join(o.OutputDir, ManifestFile)
	}
	if o.ReportPath == "" {
		o.ReportPath = filepath.Join(o.OutputDir, ReportFile)
	}
	if filepath.Base(o.ManifestPath) != ManifestFile {
		return vperrors.New(vperrors.ErrCodeInvalidInput,
			"manifest path must end in %s, got %s", ManifestFile, o.ManifestPath)
	}
	if len(o.Rules) == 0 {
		o.Rules = resolve.DefaultRules()
	}
	o.validated = true
	return nil
}

// WorkDir is the directory npm runs in: the directory holding the manifest.
func (o *Options) WorkDir() string {
	return filepath.Dir(o.ManifestPath)
}

// InputStem returns the input file name without directory or extension.
func InputStem(path string) string {
	base := filepath.Base(path)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		return stem
	}
	return base
}

func newRunID() string {
	return uuid.NewString()
}
