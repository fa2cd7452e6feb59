package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	vperrors "github.com/matzehuels/vulnpack/pkg/errors"
	"github.com/matzehuels/vulnpack/pkg/manifest"
	"github.com/matzehuels/vulnpack/pkg/npmcli"
	"github.com/matzehuels/vulnpack/pkg/observability"
)

const reactInput = `{"technologies":[{"name":"React","version":"18.2.0","confidence":100,"categories":[{"slug":"javascript-libraries"}]}]}`

const auditOutput = `# npm audit report

react  <16.4.2
Severity: high
Cross-Site Scripting in react - https://github.com/advisories/GHSA-mvjj-gqq2-p4hw
fix available via ` + "`npm audit fix`" + `
node_modules/react

1 high severity vulnerability
`

type stubRegistry map[string][]string

func (s stubRegistry) Exists(_ context.Context, name string) bool {
	_, ok := s[name]
	return ok
}

func (s stubRegistry) ListVersions(_ context.Context, name string) []string { return s[name] }

type fakeTools struct {
	dir   string
	steps []string

	lockfileErr error
	install     npmcli.Result
	installErr  error
	audit       npmcli.Result
	auditErr    error
}

func (f *fakeTools) GenerateLockfile(context.Context) (npmcli.Result, error) {
	f.steps = append(f.steps, StepLockfile)
	return npmcli.Result{Duration: time.Millisecond}, f.lockfileErr
}

func (f *fakeTools) Install(context.Context) (npmcli.Result, error) {
	f.steps = append(f.steps, StepInstall)
	return f.install, f.installErr
}

func (f *fakeTools) Audit(context.Context) (npmcli.Result, error) {
	f.steps = append(f.steps, StepAudit)
	return f.audit, f.auditErr
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(&strings.Builder{}, log.Options{Level: log.ErrorLevel})
}

func newTestRunner(reg stubRegistry, tools *fakeTools) *Runner {
	return NewRunner(reg, func(dir string) Toolchain {
		tools.dir = dir
		return tools
	}, quietLogger())
}

func writeInput(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions(t *testing.T, input string) Options {
	return Options{InputPath: input, OutputDir: filepath.Join(t.TempDir(), "site")}
}

func readManifest(t *testing.T, path string) manifest.Manifest {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m manifest.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

// =============================================================================
// Options
// =============================================================================

func TestOptionsDefaults(t *testing.T) {
	opts := Options{InputPath: "scans/shop.example.json"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.OutputDir != "shop.example" {
		t.Errorf("OutputDir = %q", opts.OutputDir)
	}
	if opts.ManifestPath != filepath.Join("shop.example", "package.json") {
		t.Errorf("ManifestPath = %q", opts.ManifestPath)
	}
	if opts.ReportPath != filepath.Join("shop.example", "audit-report.txt") {
		t.Errorf("ReportPath = %q", opts.ReportPath)
	}
	if len(opts.Rules) != 2 {
		t.Errorf("Rules = %+v", opts.Rules)
	}
	if opts.WorkDir() != "shop.example" {
		t.Errorf("WorkDir() = %q", opts.WorkDir())
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing input", Options{}},
		{"bad confidence", Options{InputPath: "a.json", MinConfidence: 200}},
		{"manifest not package.json", Options{InputPath: "a.json", ManifestPath: "out/deps.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); !vperrors.Is(err, vperrors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestInputStem(t *testing.T) {
	tests := map[string]string{
		"site.json":           "site",
		"/tmp/a/b/report.txt": "report",
		"noext":               "noext",
		"archive.tar.gz":      "archive.tar",
		".hidden":             ".hidden",
	}
	for in, want := range tests {
		if got := InputStem(in); got != want {
			t.Errorf("InputStem(%q) = %q, want %q", in, got, want)
		}
	}
}

// =============================================================================
// Runner
// =============================================================================

func TestExecutePublishedVersion(t *testing.T) {
	tools := &fakeTools{audit: npmcli.Result{Stdout: auditOutput, ExitCode: 1}}
	r := newTestRunner(stubRegistry{"react": {"18.2.0"}}, tools)
	opts := testOptions(t, writeInput(t, "site.json", reactInput))

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	m := readManifest(t, res.ManifestPath)
	if len(m.Dependencies) != 1 || m.Dependencies["react"] != "18.2.0" {
		t.Errorf("Dependencies = %v", m.Dependencies)
	}
	if !slices.Equal(tools.steps, []string{StepLockfile, StepInstall, StepAudit}) {
		t.Errorf("steps = %v", tools.steps)
	}
	if tools.dir != opts.OutputDir {
		t.Errorf("toolchain dir = %q, want %q", tools.dir, opts.OutputDir)
	}
	if len(res.Audit.Findings) != 1 || res.Audit.Findings[0].Severity != "high" {
		t.Errorf("Findings = %+v", res.Audit.Findings)
	}
	if len(res.Certain) != 1 || res.RunID == "" {
		t.Errorf("Certain = %v, RunID = %q", res.Certain, res.RunID)
	}

	report, err := os.ReadFile(res.ReportPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(report), "[VULNERABLE] react  <16.4.2\n") {
		t.Errorf("report =\n%s", report)
	}
	if !strings.HasSuffix(string(report), "1 high severity vulnerability\n") {
		t.Errorf("report should end with the summary line:\n%s", report)
	}
}

func TestExecuteUnpublishedVersionStillAudits(t *testing.T) {
	tools := &fakeTools{audit: npmcli.Result{Stdout: "found 0 vulnerabilities\n"}}
	r := newTestRunner(stubRegistry{"react": {"17.0.0"}}, tools)

	res, err := r.Execute(context.Background(), testOptions(t, writeInput(t, "site.json", reactInput)))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if m := readManifest(t, res.ManifestPath); len(m.Dependencies) != 0 {
		t.Errorf("Dependencies = %v, want empty", m.Dependencies)
	}
	if len(tools.steps) != 3 {
		t.Errorf("audit should still run for an empty manifest, steps = %v", tools.steps)
	}
	if len(res.Audit.Findings) != 0 {
		t.Errorf("Findings = %+v", res.Audit.Findings)
	}
}

func TestExecuteMissingInput(t *testing.T) {
	tools := &fakeTools{}
	r := newTestRunner(stubRegistry{}, tools)
	opts := testOptions(t, filepath.Join(t.TempDir(), "missing.json"))

	_, err := r.Execute(context.Background(), opts)
	if !vperrors.Is(err, vperrors.ErrCodeFileNotFound) {
		t.Fatalf("error = %v, want FILE_NOT_FOUND", err)
	}
	if _, statErr := os.Stat(opts.OutputDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("no output should be written when the input is missing")
	}
	if len(tools.steps) != 0 {
		t.Errorf("steps = %v, want none", tools.steps)
	}
}

func TestExecuteMalformedInput(t *testing.T) {
	r := newTestRunner(stubRegistry{}, &fakeTools{})
	_, err := r.Execute(context.Background(), testOptions(t, writeInput(t, "bad.json", "{not json")))
	if !vperrors.Is(err, vperrors.ErrCodeInvalidJSON) {
		t.Errorf("error = %v, want INVALID_JSON", err)
	}
}

func TestExecuteLockfileFailureIsFatal(t *testing.T) {
	tools := &fakeTools{lockfileErr: vperrors.New(vperrors.ErrCodeLockfile, "npm install --package-lock-only")}
	r := newTestRunner(stubRegistry{"react": {"18.2.0"}}, tools)

	res, err := r.Execute(context.Background(), testOptions(t, writeInput(t, "site.json", reactInput)))
	if !vperrors.Is(err, vperrors.ErrCodeLockfile) {
		t.Fatalf("error = %v, want LOCKFILE_FAILED", err)
	}
	if !slices.Equal(tools.steps, []string{StepLockfile}) {
		t.Errorf("steps = %v", tools.steps)
	}
	if res == nil || res.Audit != nil {
		t.Error("result should carry the resolution but no audit")
	}
	if _, statErr := os.Stat(res.ReportPath); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("report should not be written after a lock-file failure")
	}
}

func TestExecuteInstallFailureIsWarning(t *testing.T) {
	tools := &fakeTools{
		install:    npmcli.Result{ExitCode: 1, Stderr: "npm WARN deprecated\n"},
		installErr: vperrors.New(vperrors.ErrCodeInstall, "npm install"),
		audit:      npmcli.Result{Stdout: auditOutput},
	}
	r := newTestRunner(stubRegistry{"react": {"18.2.0"}}, tools)

	res, err := r.Execute(context.Background(), testOptions(t, writeInput(t, "site.json", reactInput)))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.InstallWarning != "npm WARN deprecated" {
		t.Errorf("InstallWarning = %q", res.InstallWarning)
	}
	if len(res.Audit.Findings) != 1 {
		t.Errorf("audit should still run, findings = %d", len(res.Audit.Findings))
	}
}

func TestExecuteAuditFailureNormalizesPartialOutput(t *testing.T) {
	tools := &fakeTools{
		audit:    npmcli.Result{Stdout: "lodash  <4.17.21\nSeverity: critical\n", ExitCode: npmcli.ExitTimeout},
		auditErr: vperrors.New(vperrors.ErrCodeAudit, "npm audit"),
	}
	r := newTestRunner(stubRegistry{}, tools)

	res, err := r.Execute(context.Background(), testOptions(t, writeInput(t, "site.json", reactInput)))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !vperrors.Is(res.AuditError, vperrors.ErrCodeAudit) {
		t.Errorf("AuditError = %v", res.AuditError)
	}
	if len(res.Audit.Findings) != 1 || res.Audit.Findings[0].Severity != "critical" {
		t.Errorf("Findings = %+v", res.Audit.Findings)
	}
}

func TestExecuteSkipInstall(t *testing.T) {
	tools := &fakeTools{}
	r := newTestRunner(stubRegistry{}, tools)
	opts := testOptions(t, writeInput(t, "site.json", reactInput))
	opts.SkipInstall = true

	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(tools.steps, []string{StepLockfile, StepAudit}) {
		t.Errorf("steps = %v", tools.steps)
	}
}

func TestExecuteManifestOverrides(t *testing.T) {
	dir := t.TempDir()
	tools := &fakeTools{}
	r := newTestRunner(stubRegistry{"react": {"18.2.0"}}, tools)
	opts := Options{
		InputPath:       writeInput(t, "site.json", reactInput),
		ManifestPath:    filepath.Join(dir, "project", "package.json"),
		ReportPath:      filepath.Join(dir, "reports", "site.txt"),
		ManifestName:    "site-scan",
		ManifestVersion: "0.1.0",
	}

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	m := readManifest(t, filepath.Join(dir, "project", "package.json"))
	if m.Name != "site-scan" || m.Version != "0.1.0" {
		t.Errorf("manifest identity = %s@%s", m.Name, m.Version)
	}
	if tools.dir != filepath.Join(dir, "project") {
		t.Errorf("toolchain dir = %q", tools.dir)
	}
	if _, err := os.Stat(res.ReportPath); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestExecuteCanceled(t *testing.T) {
	tools := &fakeTools{}
	r := newTestRunner(stubRegistry{}, tools)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Execute(ctx, testOptions(t, writeInput(t, "site.json", reactInput)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(tools.steps) != 0 {
		t.Errorf("steps = %v, want none", tools.steps)
	}
}

// =============================================================================
// Hooks
// =============================================================================

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnResolveStart(context.Context, int) { h.record("resolve") }
func (h *recordingHooks) OnToolStart(_ context.Context, step string) {
	h.record(step)
}
func (h *recordingHooks) OnNormalizeComplete(context.Context, int, time.Duration) {
	h.record("normalize")
}

func TestExecuteReportsHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	r := newTestRunner(stubRegistry{}, &fakeTools{})
	if _, err := r.Execute(context.Background(), testOptions(t, writeInput(t, "site.json", reactInput))); err != nil {
		t.Fatal(err)
	}

	want := []string{"resolve", StepLockfile, StepInstall, StepAudit, "normalize"}
	if !slices.Equal(hooks.events, want) {
		t.Errorf("events = %v, want %v", hooks.events, want)
	}
}
