package npmcli

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Exit codes reported for failures that never produced a process exit status.
const (
	ExitTimeout  = 124
	ExitNotFound = 127
)

// Result holds the execution result.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
	ExitCode int
}

// OK reports whether the process exited with status zero.
func (r Result) OK() bool { return r.ExitCode == 0 }

// ExecFunc runs a command in dir. [Run] is the production implementation;
// tests substitute fakes.
type ExecFunc func(ctx context.Context, dir, name string, args ...string) (Result, error)

// Run executes a command with context/timeout, capturing output and duration.
// It reports ExitTimeout when ctx expired and ExitNotFound when the binary
// does not exist. The returned error is the raw exec error; callers decide
// from ExitCode whether it matters.
func Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.ExitCode = ExitTimeout
	case errors.Is(err, exec.ErrNotFound):
		res.ExitCode = ExitNotFound
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = 1
	}
	return res, err
}
