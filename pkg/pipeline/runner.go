package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vulnpack/pkg/audit"
	vperrors "github.com/matzehuels/vulnpack/pkg/errors"
	"github.com/matzehuels/vulnpack/pkg/fsutil"
	"github.com/matzehuels/vulnpack/pkg/manifest"
	"github.com/matzehuels/vulnpack/pkg/npmcli"
	"github.com/matzehuels/vulnpack/pkg/observability"
	"github.com/matzehuels/vulnpack/pkg/resolve"
	"github.com/matzehuels/vulnpack/pkg/techreport"
)

// Stage names reported to observability hooks.
const (
	StepLockfile = "lockfile"
	StepInstall  = "install"
	StepAudit    = "audit"
)

// Toolchain is the external package manager. [npmcli.NPM] implements it.
type Toolchain interface {
	GenerateLockfile(ctx context.Context) (npmcli.Result, error)
	Install(ctx context.Context) (npmcli.Result, error)
	Audit(ctx context.Context) (npmcli.Result, error)
}

// ToolchainFunc returns a Toolchain operating in dir.
type ToolchainFunc func(dir string) Toolchain

// Runner executes scans.
//
// The Runner is stateless apart from its collaborators; multiple goroutines
// can use the same Runner with different options as long as their output
// directories differ.
type Runner struct {
	Registry   resolve.Registry
	Toolchain  ToolchainFunc
	Normalizer *audit.Normalizer
	Logger     *log.Logger
}

// NewRunner creates a runner. If logger is nil, log.Default is used.
func NewRunner(reg resolve.Registry, tools ToolchainFunc, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Registry:   reg,
		Toolchain:  tools,
		Normalizer: audit.NewNormalizer(),
		Logger:     logger,
	}
}

// Execute runs the resolve and audit stages.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	result, err := r.Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := r.Audit(ctx, opts, result); err != nil {
		return result, err
	}
	return result, nil
}

// Resolve reads the input, resolves dependencies and writes the manifest.
// An empty dependency set still produces a manifest so the audit stage can
// report a clean result.
func (r *Runner) Resolve(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{
		RunID:        newRunID(),
		ManifestPath: opts.ManifestPath,
		ReportPath:   opts.ReportPath,
	}
	logger := r.Logger.With("run", shortID(result.RunID))

	report, err := techreport.ReadFile(opts.InputPath)
	if err != nil {
		return nil, err
	}
	result.Certain = report.Certain()
	result.Stats.Technologies = len(report.Technologies)

	hooks := observability.Pipeline()
	hooks.OnResolveStart(ctx, len(report.Technologies))
	start := time.Now()

	resolver := &resolve.Resolver{
		Registry:    r.Registry,
		Rules:       opts.Rules,
		Filter:      resolve.Filter{MinConfidence: opts.MinConfidence},
		Concurrency: opts.Concurrency,
		Logger:      logger,
	}
	res := resolver.Resolve(ctx, report.Technologies)
	result.Resolution = res
	result.Stats.ResolveTime = time.Since(start)
	hooks.OnResolveComplete(ctx, len(res.Resolved), len(res.Skipped), result.Stats.ResolveTime)

	logger.Info("resolved dependencies",
		"technologies", len(report.Technologies),
		"dependencies", len(res.Dependencies),
		"skipped", len(res.Skipped),
		"duration", result.Stats.ResolveTime)
	if len(res.Dependencies) == 0 {
		logger.Warn("no valid dependencies found, writing an empty manifest for scanning")
	}

	result.Manifest = manifest.New(opts.ManifestName, opts.ManifestVersion, res.Dependencies, res.Metadata)
	if err := result.Manifest.WriteFile(opts.ManifestPath); err != nil {
		return nil, err
	}
	logger.Info("generated manifest", "path", opts.ManifestPath)
	return result, nil
}

// Audit generates the lock file, installs, audits and writes the normalized
// report. result must come from Resolve with the same options.
func (r *Runner) Audit(ctx context.Context, opts Options, result *Result) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if r.Toolchain == nil {
		return vperrors.New(vperrors.ErrCodeInternal, "no toolchain configured")
	}
	logger := r.Logger.With("run", shortID(result.RunID))
	tools := r.Toolchain(opts.WorkDir())

	logger.Info("creating lock file")
	res, err := r.step(ctx, StepLockfile, tools.GenerateLockfile)
	result.Stats.LockfileTime = res.Duration
	if err != nil {
		return err
	}

	if opts.SkipInstall {
		logger.Info("skipping install")
	} else {
		logger.Info("installing dependencies")
		res, err = r.step(ctx, StepInstall, tools.Install)
		result.Stats.InstallTime = res.Duration
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			result.InstallWarning = strings.TrimSpace(res.Stderr)
			logger.Warn("npm install completed with warnings/errors", "stderr", result.InstallWarning)
		}
	}

	logger.Info("checking for vulnerable packages")
	res, err = r.step(ctx, StepAudit, tools.Audit)
	result.Stats.AuditTime = res.Duration
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result.AuditError = err
		logger.Error("npm audit failed, normalizing partial output", "err", err)
	}

	start := time.Now()
	result.Audit = r.normalizer().Normalize(res.Stdout)
	observability.Pipeline().OnNormalizeComplete(ctx, len(result.Audit.Findings), time.Since(start))

	if err := fsutil.WriteFileAtomic(opts.ReportPath, []byte(result.Audit.Format()), 0644); err != nil {
		return vperrors.Wrap(vperrors.ErrCodeWrite, err, "write audit report")
	}
	logger.Info("saved filtered audit report",
		"path", opts.ReportPath,
		"findings", len(result.Audit.Findings))
	return nil
}

// step runs one toolchain invocation unless ctx is already done.
func (r *Runner) step(ctx context.Context, name string, fn func(context.Context) (npmcli.Result, error)) (npmcli.Result, error) {
	if err := ctx.Err(); err != nil {
		return npmcli.Result{}, err
	}
	hooks := observability.Pipeline()
	hooks.OnToolStart(ctx, name)
	res, err := fn(ctx)
	hooks.OnToolComplete(ctx, name, res.Duration, err)
	return res, err
}

func (r *Runner) normalizer() *audit.Normalizer {
	if r.Normalizer == nil {
		return audit.NewNormalizer()
	}
	return r.Normalizer
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
