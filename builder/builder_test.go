package builder

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Args(t *testing.T) {
	cfg := DefaultConfig("/src/shaders")
	assert.Equal(t, []string{"--target", DefaultTarget, "/src/shaders"}, cfg.Args())

	cfg.Release = false
	cfg.DenyWarnings = true
	cfg.MultiModule = true
	cfg.Metadata = MetadataFull
	cfg.ScalarBlockLayout = true
	cfg.PreserveBindings = true
	cfg.Capabilities = []string{"Int8", "Int64"}
	cfg.Extensions = []string{"SPV_KHR_non_semantic_info"}

	assert.Equal(t, []string{
		"--target", DefaultTarget,
		"--deny-warnings",
		"--debug",
		"--multimodule",
		"--scalar-block-layout",
		"--preserve-bindings",
		"--spirv-metadata", "full",
		"--capability", "Int8",
		"--capability", "Int64",
		"--extension", "SPV_KHR_non_semantic_info",
		"/src/shaders",
	}, cfg.Args())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig("shaders").Validate())

	err := Config{Metadata: "verbose"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project path is required")
	assert.Contains(t, err.Error(), "compile target is required")
	assert.Contains(t, err.Error(), `unknown SPIR-V metadata level "verbose"`)
}

func TestParseMetadataLevel(t *testing.T) {
	for in, want := range map[string]MetadataLevel{
		"":               MetadataNone,
		"none":           MetadataNone,
		"name-variables": MetadataNameVariables,
		"full":           MetadataFull,
	} {
		got, err := ParseMetadataLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMetadataLevel("all")
	assert.Error(t, err)
}

func TestOutcome_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Outcome
		wantErr string
	}{
		{
			name: "single",
			in:   `{"entry_points":["main_cs"],"module":{"SingleModule":"/tmp/out/shader.spv"}}`,
			want: Outcome{EntryPoints: []string{"main_cs"}, Module: SingleModule{Path: "/tmp/out/shader.spv"}},
		},
		{
			name: "multi",
			in:   `{"module":{"MultiModule":{"main_vs":"/tmp/vs.spv","main_fs":"/tmp/fs.spv"}}}`,
			want: Outcome{Module: MultiModule{Paths: map[string]string{"main_vs": "/tmp/vs.spv", "main_fs": "/tmp/fs.spv"}}},
		},
		{
			name:    "both",
			in:      `{"module":{"SingleModule":"a.spv","MultiModule":{"x":"b.spv"}}}`,
			wantErr: "both",
		},
		{
			name:    "neither",
			in:      `{"entry_points":[]}`,
			wantErr: "no module",
		},
		{
			name:    "empty path",
			in:      `{"module":{"MultiModule":{"main":""}}}`,
			wantErr: `entry point "main"`,
		},
		{
			name:    "empty multi",
			in:      `{"module":{"MultiModule":{}}}`,
			wantErr: "empty MultiModule",
		},
		{
			name:    "malformed",
			in:      `{"module":`,
			wantErr: "unexpected end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Outcome
			err := json.Unmarshal([]byte(tt.in), &got)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutcome_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Outcome{Module: SingleModule{Path: "a.spv"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"entry_points":null,"module":{"SingleModule":"a.spv"}}`, string(data))

	_, err = json.Marshal(Outcome{})
	assert.Error(t, err)
}

func TestMultiModule_Entries(t *testing.T) {
	m := MultiModule{Paths: map[string]string{"b": "1", "a": "2", "c": "3"}}
	assert.Equal(t, []string{"a", "b", "c"}, m.Entries())
}

func fakeCompiler(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler is a shell script")
	}
	path := filepath.Join(t.TempDir(), "spirv-builder-cli")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestCommandCompiler_Compile(t *testing.T) {
	// The project path is the last argument; progress output precedes the result.
	bin := fakeCompiler(t, `
for last; do :; done
echo "Compiling shaders" >&2
echo "progress: 100%"
echo "{\"entry_points\":[\"main_cs\"],\"module\":{\"SingleModule\":\"$last/target/shader.spv\"}}"
`)
	c := &CommandCompiler{Bin: bin}

	out, err := c.Compile(context.Background(), DefaultConfig("/work/shaders"))
	require.NoError(t, err)
	assert.Equal(t, []string{"main_cs"}, out.EntryPoints)
	assert.Equal(t, SingleModule{Path: "/work/shaders/target/shader.spv"}, out.Module)
}

func TestCommandCompiler_Env(t *testing.T) {
	bin := fakeCompiler(t, `echo "{\"module\":{\"SingleModule\":\"$RUSTUP_TOOLCHAIN.spv\"}}"`)
	c := &CommandCompiler{Bin: bin, Env: []string{"RUSTUP_TOOLCHAIN=nightly-2024-11-22"}}

	out, err := c.Compile(context.Background(), DefaultConfig("shaders"))
	require.NoError(t, err)
	assert.Equal(t, SingleModule{Path: "nightly-2024-11-22.spv"}, out.Module)
}

func TestCommandCompiler_Failures(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		exitCode int
		want     string
	}{
		{"non-zero exit", "echo 'error[E0425]: cannot find value' >&2; exit 101", 101, "cannot find value"},
		{"no result", "echo 'warning: unused' >&2", 0, "printed no result"},
		{"bad result", "echo '{\"module\":{}}'", 0, "no module"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &CommandCompiler{Bin: fakeCompiler(t, tt.script)}
			_, err := c.Compile(context.Background(), DefaultConfig("shaders"))
			require.Error(t, err)

			var compileErr *CompileError
			require.True(t, errors.As(err, &compileErr))
			assert.Equal(t, tt.exitCode, compileErr.ExitCode)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCommandCompiler_InvalidConfig(t *testing.T) {
	c := &CommandCompiler{Bin: "unused"}
	_, err := c.Compile(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid build configuration")
}
