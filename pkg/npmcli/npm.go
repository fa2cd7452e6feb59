package npmcli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	vperrors "github.com/matzehuels/vulnpack/pkg/errors"
	"github.com/matzehuels/vulnpack/pkg/resolve"
)

// DefaultBin is the package-manager executable looked up on PATH.
const DefaultBin = "npm"

var _ resolve.Registry = (*NPM)(nil)

// NPM drives the npm command line inside a project directory.
type NPM struct {
	Bin string // executable, DefaultBin when empty
	Dir string // working directory holding package.json
	// Timeout bounds a single invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
	Exec    ExecFunc // Run when nil
	Logger  *log.Logger
}

// New returns an NPM operating in dir.
func New(dir string, timeout time.Duration, logger *log.Logger) *NPM {
	return &NPM{Bin: DefaultBin, Dir: dir, Timeout: timeout, Logger: logger}
}

// GenerateLockfile runs "npm install --package-lock-only". Any failure is
// reported as ErrCodeLockfile; the run cannot continue without a lock file.
func (n *NPM) GenerateLockfile(ctx context.Context) (Result, error) {
	res, err := n.run(ctx, "install", "--package-lock-only")
	if err != nil || !res.OK() {
		return res, vperrors.Wrap(vperrors.ErrCodeLockfile, failure(res, err),
			"npm install --package-lock-only")
	}
	return res, nil
}

// Install runs "npm install". A non-zero exit is returned as ErrCodeInstall
// together with the captured output; callers treat it as a warning.
func (n *NPM) Install(ctx context.Context) (Result, error) {
	res, err := n.run(ctx, "install")
	if err != nil || !res.OK() {
		return res, vperrors.Wrap(vperrors.ErrCodeInstall, failure(res, err), "npm install")
	}
	return res, nil
}

// Audit runs "npm audit". npm exits non-zero whenever it finds
// vulnerabilities, so only a timeout or a missing binary is an error. The
// captured stdout is returned in every case.
func (n *NPM) Audit(ctx context.Context) (Result, error) {
	res, err := n.run(ctx, "audit")
	if res.ExitCode == ExitTimeout || res.ExitCode == ExitNotFound {
		return res, vperrors.Wrap(vperrors.ErrCodeAudit, failure(res, err), "npm audit")
	}
	return res, nil
}

// Exists reports whether "npm info <name>" succeeds.
func (n *NPM) Exists(ctx context.Context, name string) bool {
	if !queryable(name) {
		return false
	}
	res, err := n.run(ctx, "info", name)
	return err == nil && res.OK()
}

// ListVersions returns the output of "npm view <name> versions --json".
// npm prints a bare string when only one version exists; that becomes a
// one-element list. Failures yield an empty list.
func (n *NPM) ListVersions(ctx context.Context, name string) []string {
	if !queryable(name) {
		return nil
	}
	res, err := n.run(ctx, "view", name, "versions", "--json")
	if err != nil || !res.OK() {
		n.logger().Debug("unable to fetch versions", "package", name, "exit", res.ExitCode)
		return nil
	}
	return parseVersions(res.Stdout)
}

func parseVersions(out string) []string {
	raw := []byte(strings.TrimSpace(out))
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}

// queryable rejects names npm would parse as flags.
func queryable(name string) bool {
	return name != "" && !strings.HasPrefix(name, "-")
}

func (n *NPM) run(ctx context.Context, args ...string) (Result, error) {
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	bin := n.Bin
	if bin == "" {
		bin = DefaultBin
	}
	exec := n.Exec
	if exec == nil {
		exec = Run
	}

	n.logger().Debug("running", "cmd", bin+" "+strings.Join(args, " "), "dir", n.Dir)
	res, err := exec(ctx, n.Dir, bin, args...)
	n.logger().Debug("finished", "cmd", bin+" "+args[0], "exit", res.ExitCode, "duration", res.Duration)
	return res, err
}

func (n *NPM) logger() *log.Logger {
	if n.Logger == nil {
		return log.Default()
	}
	return n.Logger
}

// failure describes a failed invocation using stderr when available.
func failure(res Result, err error) error {
	switch res.ExitCode {
	case ExitTimeout:
		return vperrors.New(vperrors.ErrCodeTimeout, "timed out after %s", res.Duration.Round(time.Millisecond))
	case ExitNotFound:
		return fmt.Errorf("executable not found in PATH: %w", err)
	}
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		return fmt.Errorf("exit status %d: %s", res.ExitCode, msg)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("exit status %d", res.ExitCode)
}
