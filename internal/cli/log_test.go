package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	if prog == nil {
		t.Fatal("newProgress() returned nil")
	}

	time.Sleep(10 * time.Millisecond)

	prog.done("test completed")

	if !bytes.Contains(buf.Bytes(), []byte("test completed")) {
		t.Error("progress.done() output should contain message")
	}
}

func TestLogHooks(t *testing.T) {
	ctx := context.Background()

	t.Run("silent at info level", func(t *testing.T) {
		var buf bytes.Buffer
		h := logHooks{logger: newLogger(&buf, log.InfoLevel)}
		h.OnResolveStart(ctx, 3)
		h.OnToolComplete(ctx, "install", time.Second, nil)
		if buf.Len() != 0 {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("debug level", func(t *testing.T) {
		var buf bytes.Buffer
		h := logHooks{logger: newLogger(&buf, log.DebugLevel)}
		h.OnResolveStart(ctx, 3)
		h.OnResolveComplete(ctx, 2, 1, time.Millisecond)
		h.OnToolStart(ctx, "audit")
		h.OnToolComplete(ctx, "audit", time.Millisecond, errors.New("boom"))
		h.OnNormalizeComplete(ctx, 4, time.Millisecond)

		out := buf.String()
		for _, want := range []string{"resolve started", "resolve finished", "npm step started", "npm step failed", "boom", "normalized audit report"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})
}

func TestHTTPLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := httpLogHooks{logger: newLogger(&buf, log.DebugLevel)}
	ctx := context.Background()

	h.OnRequest(ctx, "GET", "registry.npmjs.org", "/react")
	h.OnResponse(ctx, "GET", "registry.npmjs.org", "/react", 200, time.Millisecond)
	h.OnError(ctx, "GET", "registry.npmjs.org", "/vue", errors.New("refused"))

	out := buf.String()
	for _, want := range []string{"registry request", "registry response", "/react", "registry error", "refused"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
