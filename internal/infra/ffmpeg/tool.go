// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ffmpeg locates and runs the ffmpeg binary. Failures never escape as
// Go errors from Run; they are reported as (false, message) so callers can
// turn them into user visible warnings.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ManuGH/oldtube/internal/log"
	"github.com/ManuGH/oldtube/internal/metrics"
	"github.com/ManuGH/oldtube/internal/procgroup"
)

const (
	// ToolName is the binary name looked up on PATH and the expected prefix of
	// a configured binary's base name.
	ToolName = "ffmpeg"

	// MaxMessageLen caps tool output carried into warnings.
	MaxMessageLen = 2000
)

// Result is the outcome of one tool invocation.
type Result struct {
	ExitCode int
	Output   []byte
	Err      error
	TimedOut bool
}

// Runner executes a resolved binary. ExecRunner is the production implementation.
type Runner interface {
	Run(ctx context.Context, bin string, args []string) Result
}

// ExecRunner runs the binary as a subprocess in its own process group and
// captures stdout and stderr together.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, bin string, args []string) Result {
	// #nosec G204 -- bin is resolved from operator config or PATH; args are built internally
	cmd := exec.CommandContext(ctx, bin, args...)
	procgroup.Set(cmd)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	res := Result{Output: out.Bytes(), Err: err}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
	}
	if ctx.Err() != nil && err != nil {
		res.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
	}
	return res
}

// Options configures a Tool.
type Options struct {
	// Bin is an explicit binary path. Empty means PATH lookup.
	Bin string
	// Timeout bounds a single invocation. Zero disables the bound.
	Timeout time.Duration
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
	// Runner defaults to ExecRunner.
	Runner Runner
}

// Tool is a resolved-on-demand ffmpeg binary.
type Tool struct {
	bin      string
	timeout  time.Duration
	lookPath func(string) (string, error)
	runner   Runner
}

// New creates a Tool.
func New(opts Options) *Tool {
	t := &Tool{
		bin:      strings.TrimSpace(opts.Bin),
		timeout:  opts.Timeout,
		lookPath: opts.LookPath,
		runner:   opts.Runner,
	}
	if t.lookPath == nil {
		t.lookPath = exec.LookPath
	}
	if t.runner == nil {
		t.runner = ExecRunner{}
	}
	return t
}

// Resolve returns the binary path that Run would use. A configured binary
// wins over PATH. The result is rejected unless its base name starts with
// "ffmpeg", so a misconfigured path to some other program is never executed.
func (t *Tool) Resolve() (string, bool) {
	path := t.bin
	if path == "" {
		found, err := t.lookPath(ToolName)
		if err != nil {
			return "", false
		}
		path = found
	}
	if path == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(filepath.Base(path)), ToolName) {
		return "", false
	}
	return path, true
}

// Available reports whether a usable binary resolves.
func (t *Tool) Available() bool {
	_, ok := t.Resolve()
	return ok
}

// Run executes the tool for op (a metrics label) and reports success plus a
// trimmed message of at most MaxMessageLen characters taken from its output.
func (t *Tool) Run(ctx context.Context, op string, args []string) (bool, string) {
	bin, ok := t.Resolve()
	if !ok {
		return false, ToolName + " not found"
	}

	runCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	logger := log.WithComponentFromContext(ctx, "ffmpeg")
	start := time.Now()
	res := t.runner.Run(runCtx, bin, args)
	elapsed := time.Since(start)
	success := res.Err == nil && res.ExitCode == 0
	metrics.ObserveTool(op, success, elapsed)

	msg := Truncate(strings.TrimSpace(string(res.Output)), MaxMessageLen)
	if success {
		logger.Debug().
			Str(log.FieldEvent, "ffmpeg.done").
			Str("op", op).
			Int64(log.FieldDuration, elapsed.Milliseconds()).
			Msg("ffmpeg finished")
		return true, msg
	}

	if res.TimedOut {
		msg = fmt.Sprintf("timed out after %s", t.timeout)
	} else if msg == "" && res.Err != nil {
		msg = Truncate(res.Err.Error(), MaxMessageLen)
	}
	logger.Warn().
		Str(log.FieldEvent, "ffmpeg.failed").
		Str("op", op).
		Int(log.FieldExitCode, res.ExitCode).
		Bool("timed_out", res.TimedOut).
		Int64(log.FieldDuration, elapsed.Milliseconds()).
		Str("output", msg).
		Msg("ffmpeg failed")
	return false, msg
}

// Truncate returns at most n characters of s, never splitting a rune.
func Truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
