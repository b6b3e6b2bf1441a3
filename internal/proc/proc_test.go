package proc

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(t *testing.T, script string) Cmd {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	return Cmd{Path: "/bin/sh", Args: []string{"-c", script}}
}

func TestRun_CapturesOutput(t *testing.T) {
	c := shell(t, "echo out; echo err >&2")
	var live bytes.Buffer
	c.Stderr = &live

	res, err := Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.Equal(t, "err\n", live.String())
}

func TestRun_Stdin(t *testing.T) {
	c := shell(t, "cat")
	c.Stdin = strings.NewReader("piped")

	res, err := Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "piped", string(res.Stdout))
}

func TestRun_ExitError(t *testing.T) {
	res, err := Run(context.Background(), shell(t, "echo first >&2; echo broken >&2; exit 3"))
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "first\nbroken", exitErr.Stderr)
	assert.Contains(t, err.Error(), "exited with status 3")
}

func TestRun_Timeout(t *testing.T) {
	c := shell(t, "exec sleep 5")
	c.Timeout = 50 * time.Millisecond

	res, err := Run(context.Background(), c)
	require.Error(t, err)
	assert.True(t, res.TimedOut)
	assert.Equal(t, TimeoutExitCode, res.ExitCode)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, shell(t, "exit 0"))
	require.Error(t, err)
}

func TestRun_MissingBinary(t *testing.T) {
	res, err := Run(context.Background(), Cmd{Path: "/nonexistent/tool"})
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, err.Error(), "failed to start")
}

func TestTail(t *testing.T) {
	out := []byte("a\nb\nc\nd\n")
	assert.Equal(t, "c\nd", Tail(out, 2))
	assert.Equal(t, "a\nb\nc\nd", Tail(out, 10))
	assert.Equal(t, "", Tail(nil, 3))
}
