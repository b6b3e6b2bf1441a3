package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gogpu/shaderd/internal/proc"
)

// DefaultCompiler is the compiler executable looked up on PATH.
const DefaultCompiler = "spirv-builder-cli"

// Compiler compiles a shader project.
type Compiler interface {
	Compile(ctx context.Context, cfg Config) (*Outcome, error)
}

// CompileError reports a compiler run that did not produce an outcome.
type CompileError struct {
	// ExitCode is the compiler's exit status, or 0 if it exited cleanly but
	// its result could not be decoded.
	ExitCode int
	// Output is the tail of the compiler's stderr.
	Output string
	Err    error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	msg := "shader compilation failed"
	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s (exit status %d)", msg, e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// CommandCompiler runs an external compiler executable. The compiler prints
// its JSON result as the last line of stdout and diagnostics on stderr.
type CommandCompiler struct {
	Bin string
	// Env is the compiler's complete environment; nil inherits ours.
	Env []string
	Dir string
	// Stderr receives the compiler's diagnostics as they are printed.
	Stderr  io.Writer
	Timeout time.Duration
}

// Compile runs the compiler once.
func (c *CommandCompiler) Compile(ctx context.Context, cfg Config) (*Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build configuration: %w", err)
	}

	bin := c.Bin
	if bin == "" {
		bin = DefaultCompiler
	}

	res, err := proc.Run(ctx, proc.Cmd{
		Path:    bin,
		Args:    cfg.Args(),
		Dir:     c.Dir,
		Env:     c.Env,
		Stderr:  c.Stderr,
		Timeout: c.Timeout,
	})
	if err != nil {
		var exitErr *proc.ExitError
		if errors.As(err, &exitErr) {
			return nil, &CompileError{ExitCode: exitErr.Code, Output: exitErr.Stderr}
		}
		return nil, &CompileError{Err: err}
	}

	line := lastLine(res.Stdout)
	if len(line) == 0 {
		return nil, &CompileError{Err: errors.New("compiler printed no result"), Output: proc.Tail(res.Stderr, 20)}
	}
	var out Outcome
	if err := json.Unmarshal(line, &out); err != nil {
		return nil, &CompileError{Err: fmt.Errorf("decoding compile result: %w", err)}
	}
	return &out, nil
}

// lastLine returns the last non-blank line of out.
func lastLine(out []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	return bytes.TrimSpace(lines[len(lines)-1])
}
