// Package proc runs external tools and captures their output.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// TimeoutExitCode is reported when a command is killed by its timeout.
const TimeoutExitCode = 124

// Cmd describes one invocation.
type Cmd struct {
	Path string
	Args []string
	Dir  string
	// Env replaces the process environment when non-nil.
	Env   []string
	Stdin io.Reader
	// Stderr, if set, receives a live copy of the command's stderr.
	Stderr io.Writer
	// Timeout bounds the run; zero means only ctx bounds it.
	Timeout time.Duration
}

// String returns the command line, for logs and errors.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Result is the outcome of a finished command.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	TimedOut bool
}

// ExitError is returned when a command exits with a non-zero status.
type ExitError struct {
	Cmd    string
	Code   int
	Stderr string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Cmd, e.Code)
	if e.Code == TimeoutExitCode {
		msg = e.Cmd + " timed out"
	}
	if e.Stderr != "" {
		msg += ":\n" + e.Stderr
	}
	return msg
}

// Run executes c and waits for it. A command that starts but exits non-zero
// returns its Result together with an *ExitError.
func Run(ctx context.Context, c Cmd) (Result, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = c.Stdin
	cmd.WaitDelay = time.Second

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&errBuf, c.Stderr)
	}

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("failed to start %s: %w", c.Path, err)
	}
	waitErr := cmd.Wait()

	res := Result{
		Stdout:   outBuf.Bytes(),
		Stderr:   errBuf.Bytes(),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}

	switch {
	case res.TimedOut:
		res.ExitCode = TimeoutExitCode
	case ctx.Err() != nil:
		return res, ctx.Err()
	case waitErr != nil:
		var ee *exec.ExitError
		if !errors.As(waitErr, &ee) {
			return res, fmt.Errorf("running %s: %w", c.Path, waitErr)
		}
		res.ExitCode = ee.ExitCode()
	}

	if res.ExitCode != 0 {
		return res, &ExitError{Cmd: c.String(), Code: res.ExitCode, Stderr: Tail(res.Stderr, 20)}
	}
	return res, nil
}

// Tail returns the last n lines of out, trimmed.
func Tail(out []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Which resolves name through PATH.
func Which(name string) (string, bool) {
	p, err := exec.LookPath(name)
	if err != nil || strings.TrimSpace(p) == "" {
		return "", false
	}
	return p, true
}
