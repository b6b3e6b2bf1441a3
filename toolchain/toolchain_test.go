package toolchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_Embedded(t *testing.T) {
	channel, err := Channel("")
	require.NoError(t, err)
	assert.Equal(t, "nightly-2024-11-22", channel)
}

func TestChannel_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rust-toolchain.toml")
	require.NoError(t, os.WriteFile(path, []byte("[toolchain]\nchannel = \"nightly-2025-06-30\"\n"), 0o644))

	channel, err := Channel(path)
	require.NoError(t, err)
	assert.Equal(t, "nightly-2025-06-30", channel)

	_, err = Channel(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseChannel_Errors(t *testing.T) {
	_, err := ParseChannel([]byte("[toolchain]\ncomponents = []\n"))
	assert.ErrorContains(t, err, "channel is not set")

	_, err = ParseChannel([]byte("[toolchain\n"))
	assert.ErrorContains(t, err, "parsing rust-toolchain.toml")
}

func TestDylibVar(t *testing.T) {
	assert.Equal(t, "PATH", DylibVar("windows"))
	assert.Equal(t, "DYLD_FALLBACK_LIBRARY_PATH", DylibVar("darwin"))
	assert.Equal(t, "LD_LIBRARY_PATH", DylibVar("linux"))
	assert.Equal(t, "LD_LIBRARY_PATH", DylibVar("freebsd"))
}

func TestEnv(t *testing.T) {
	tests := []struct {
		name string
		base []string
		opts Options
		want []string
	}{
		{
			name: "appends to existing search path",
			base: []string{"HOME=/home/dev", "LD_LIBRARY_PATH=/opt/lib"},
			opts: Options{Channel: "nightly-2024-11-22", GOOS: "linux"},
			want: []string{"HOME=/home/dev", "LD_LIBRARY_PATH=/opt/lib:/usr/lib", "RUSTUP_TOOLCHAIN=nightly-2024-11-22"},
		},
		{
			name: "adds missing search path",
			base: []string{"HOME=/Users/dev"},
			opts: Options{GOOS: "darwin"},
			want: []string{"HOME=/Users/dev", "DYLD_FALLBACK_LIBRARY_PATH=/Applications/rust-gpu-compiler"},
		},
		{
			name: "replaces toolchain",
			base: []string{"RUSTUP_TOOLCHAIN=stable", "LD_LIBRARY_PATH=/usr/lib"},
			opts: Options{Channel: "nightly", GOOS: "linux"},
			want: []string{"LD_LIBRARY_PATH=/usr/lib", "RUSTUP_TOOLCHAIN=nightly"},
		},
		{
			name: "windows path list",
			base: []string{`PATH=C:\bin`},
			opts: Options{GOOS: "windows", BackendDir: `D:\rust-gpu`},
			want: []string{`PATH=C:\bin;D:\rust-gpu`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := append([]string(nil), tt.base...)
			assert.Equal(t, tt.want, Env(tt.base, tt.opts))
			assert.Equal(t, base, tt.base, "base must not be modified")
		})
	}
}
