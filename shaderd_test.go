package shaderd_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderd"
	"github.com/gogpu/shaderd/builder"
	"github.com/gogpu/shaderd/config"
	"github.com/gogpu/shaderd/cross"
	"github.com/gogpu/shaderd/daemon"
	"github.com/gogpu/shaderd/internal/logging"
	"github.com/gogpu/shaderd/notify"
	"github.com/gogpu/shaderd/spirv"
	"github.com/gogpu/shaderd/spirv/spirvtest"
	"github.com/gogpu/shaderd/verify"
)

func writeModule(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func script(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func quiet() *bytes.Buffer { return &bytes.Buffer{} }

func TestValidateFile(t *testing.T) {
	path := writeModule(t, "simple-compute.spv", spirvtest.Compute(spirvtest.Options{}))

	report, err := shaderd.ValidateFile(context.Background(), path, shaderd.ValidateOptions{
		Logger: logging.New(quiet(), logging.Options{Plain: true}),
	})
	require.NoError(t, err)
	assert.True(t, report.Passed())
	assert.Equal(t, verify.ModeBinary, report.Mode)
	assert.False(t, report.FallbackUsed)
}

func TestValidateFileExtraCapabilities(t *testing.T) {
	module := spirvtest.Compute(spirvtest.Options{Capabilities: []spirv.Capability{spirv.CapabilityAddresses}})
	path := writeModule(t, "addresses.spv", module)
	log := logging.New(quiet(), logging.Options{Plain: true})

	report, err := shaderd.ValidateFile(context.Background(), path, shaderd.ValidateOptions{Logger: log})
	require.ErrorIs(t, err, verify.ErrBinaryInvalid)
	assert.True(t, report.FallbackUsed)

	report, err = shaderd.ValidateFile(context.Background(), path, shaderd.ValidateOptions{
		Capabilities: []string{"Addresses"},
		Logger:       log,
	})
	require.NoError(t, err)
	assert.True(t, report.BinaryValid)
}

func TestValidateFileBadOptions(t *testing.T) {
	_, err := shaderd.ValidateFile(context.Background(), "x.spv", shaderd.ValidateOptions{Mode: "hlsl"})
	assert.Error(t, err)

	_, err = shaderd.ValidateFile(context.Background(), "x.spv", shaderd.ValidateOptions{Capabilities: []string{"Warp"}})
	assert.Error(t, err)
}

func TestValidateFileCrossCompiled(t *testing.T) {
	naga := script(t, "naga", `
if [ $# -ge 2 ]; then
	echo "@compute @workgroup_size(64) fn main_cs() {}" > "$2"
fi
exit 0
`)
	tools := cross.DefaultTools()
	tools.Naga = naga
	tmp := t.TempDir()
	path := writeModule(t, "simple-compute.spv", spirvtest.Compute(spirvtest.Options{}))

	report, err := shaderd.ValidateFile(context.Background(), path, shaderd.ValidateOptions{
		Mode:    "wgsl",
		Tools:   &tools,
		TempDir: tmp,
		Logger:  logging.New(quiet(), logging.Options{Plain: true}),
	})
	require.NoError(t, err)
	assert.True(t, report.TextValid)
	assert.Equal(t, filepath.Join(tmp, "simple_compute.wgsl"), report.TextPath)
}

type events struct {
	ch chan notify.Event
}

func (e *events) Publish(ev notify.Event) {
	select {
	case e.ch <- ev:
	default:
	}
}

func projectConfig(t *testing.T, compiler string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Project = t.TempDir()
	cfg.Compiler.Bin = compiler
	cfg.Watch.Debounce = 20 * time.Millisecond
	return cfg
}

func TestNewDriverPublishesAndValidates(t *testing.T) {
	built := writeModule(t, "shader.spv", spirvtest.Compute(spirvtest.Options{}))
	compiler := script(t, "spirv-builder-cli", fmt.Sprintf(
		"echo 'compiling' >&2\necho '{\"entry_points\":[\"main_cs\"],\"module\":{\"SingleModule\":%q}}'\n", built))

	cfg := projectConfig(t, compiler)
	cfg.Validation.Mode = "spirv"
	ev := &events{ch: make(chan notify.Event, 16)}

	driver, err := shaderd.NewDriver(cfg, shaderd.DriverOptions{
		Logger:         logging.New(quiet(), logging.Options{Plain: true}),
		Events:         ev,
		CompilerOutput: quiet(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, driver.Start(ctx))
	assert.Equal(t, daemon.StateWatching, driver.State())

	published := filepath.Join(cfg.Project, "compiled", "shader.spv")
	got, err := os.ReadFile(published)
	require.NoError(t, err)
	assert.Equal(t, spirvtest.Compute(spirvtest.Options{}), got)

	first := <-ev.ch
	assert.Equal(t, notify.EventPublished, first.Type)
	assert.Equal(t, published, first.Path)
	second := <-ev.ch
	assert.Equal(t, notify.EventValidated, second.Type)
}

func TestNewDriverExplicitOutputInsideProject(t *testing.T) {
	built := writeModule(t, "shader.spv", spirvtest.Compute(spirvtest.Options{}))
	compiler := script(t, "spirv-builder-cli", fmt.Sprintf(
		"echo '{\"entry_points\":[\"main_cs\"],\"module\":{\"SingleModule\":%q}}'\n", built))

	cfg := projectConfig(t, compiler)
	cfg.Output = filepath.Join(cfg.Project, "shader.spv")

	driver, err := shaderd.NewDriver(cfg, shaderd.DriverOptions{
		Logger:         logging.New(quiet(), logging.Options{Plain: true}),
		CompilerOutput: quiet(),
	})
	require.NoError(t, err)
	watcher, ok := driver.Source.(*builder.Watcher)
	require.True(t, ok)
	assert.Contains(t, watcher.Ignore, cfg.Output)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, driver.Start(ctx))
	require.FileExists(t, cfg.Output)

	// Publishing into the project is not a source change.
	assert.Never(t, func() bool { return driver.Cycles() > 1 }, 500*time.Millisecond, 20*time.Millisecond)
}

func TestNewDriverTrustsBuildCapabilities(t *testing.T) {
	built := writeModule(t, "shader.spv", spirvtest.Compute(spirvtest.Options{
		Capabilities: []spirv.Capability{spirv.CapabilityAddresses},
	}))
	compiler := script(t, "spirv-builder-cli", fmt.Sprintf(
		"echo '{\"entry_points\":[\"main_cs\"],\"module\":{\"SingleModule\":%q}}'\n", built))

	cfg := projectConfig(t, compiler)
	cfg.Build.Capabilities = []string{"Addresses"}
	cfg.Validation.Mode = "spirv"
	ev := &events{ch: make(chan notify.Event, 16)}

	driver, err := shaderd.NewDriver(cfg, shaderd.DriverOptions{
		Logger:         logging.New(quiet(), logging.Options{Plain: true}),
		Events:         ev,
		CompilerOutput: quiet(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, driver.Start(ctx))

	assert.Equal(t, notify.EventPublished, (<-ev.ch).Type)
	validated := <-ev.ch
	assert.Equal(t, notify.EventValidated, validated.Type, validated.Message)
}

func TestNewDriverFirstCompileFails(t *testing.T) {
	compiler := script(t, "spirv-builder-cli", "echo 'error: cannot find value `x`' >&2\nexit 101\n")
	cfg := projectConfig(t, compiler)

	driver, err := shaderd.NewDriver(cfg, shaderd.DriverOptions{
		Logger:         logging.New(quiet(), logging.Options{Plain: true}),
		CompilerOutput: quiet(),
	})
	require.NoError(t, err)

	err = driver.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial compilation failed")
	assert.Equal(t, daemon.StateStopped, driver.State())
}

func TestNewDriverRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	_, err := shaderd.NewDriver(cfg, shaderd.DriverOptions{})
	assert.ErrorContains(t, err, "project path is required")

	cfg.Project = t.TempDir()
	cfg.Mirror.Endpoint = "localhost:9000"
	_, err = shaderd.NewDriver(cfg, shaderd.DriverOptions{})
	assert.ErrorContains(t, err, "access key")

	cfg.Mirror.Endpoint = ""
	cfg.Compiler.ToolchainFile = filepath.Join(t.TempDir(), "rust-toolchain.toml")
	_, err = shaderd.NewDriver(cfg, shaderd.DriverOptions{})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
