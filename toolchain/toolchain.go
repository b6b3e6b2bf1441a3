// Package toolchain computes the environment the external shader compiler
// runs in: the pinned Rust toolchain and the dynamic library search path
// that lets it find its SPIR-V codegen backend.
//
// Nothing here touches the process environment. Env returns a new
// environment that is handed to the compiler process.
package toolchain

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// ToolchainVar selects the toolchain rustup runs.
const ToolchainVar = "RUSTUP_TOOLCHAIN"

//go:embed rust-toolchain.toml
var defaultToolchainFile []byte

type toolchainFile struct {
	Toolchain struct {
		Channel    string   `toml:"channel"`
		Components []string `toml:"components"`
	} `toml:"toolchain"`
}

// ParseChannel returns the [toolchain] channel of a rust-toolchain.toml.
func ParseChannel(data []byte) (string, error) {
	var f toolchainFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parsing rust-toolchain.toml: %w", err)
	}
	channel := strings.TrimSpace(f.Toolchain.Channel)
	if channel == "" {
		return "", errors.New("rust-toolchain.toml: toolchain.channel is not set")
	}
	return channel, nil
}

// Channel reads the channel from the rust-toolchain.toml at path. An empty
// path selects the toolchain this build was tested with.
func Channel(path string) (string, error) {
	if path == "" {
		return ParseChannel(defaultToolchainFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ParseChannel(data)
}

// DylibVar is the variable holding the dynamic library search path on goos.
func DylibVar(goos string) string {
	switch goos {
	case "windows":
		return "PATH"
	case "darwin":
		return "DYLD_FALLBACK_LIBRARY_PATH"
	}
	return "LD_LIBRARY_PATH"
}

// DefaultBackendDir is where the codegen backend library is installed on
// goos.
func DefaultBackendDir(goos string) string {
	switch goos {
	case "windows":
		return `C:\Windows\System32`
	case "darwin":
		return "/Applications/rust-gpu-compiler"
	}
	return "/usr/lib"
}

func listSeparator(goos string) string {
	if goos == "windows" {
		return ";"
	}
	return ":"
}

// Options configure Env.
type Options struct {
	// Channel sets RUSTUP_TOOLCHAIN when not empty.
	Channel string
	// BackendDir defaults to DefaultBackendDir(GOOS).
	BackendDir string
	GOOS       string
}

// Env returns a copy of base with the toolchain selected and the backend
// directory appended to the dynamic library search path.
func Env(base []string, opts Options) []string {
	backend := opts.BackendDir
	if backend == "" {
		backend = DefaultBackendDir(opts.GOOS)
	}
	dylib := DylibVar(opts.GOOS)
	sep := listSeparator(opts.GOOS)

	env := make([]string, 0, len(base)+2)
	sawDylib := false
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case key == ToolchainVar && opts.Channel != "":
			continue
		case key == dylib:
			sawDylib = true
			kv = key + "=" + appendPath(value, backend, sep)
		}
		env = append(env, kv)
	}
	if !sawDylib {
		env = append(env, dylib+"="+backend)
	}
	if opts.Channel != "" {
		env = append(env, ToolchainVar+"="+opts.Channel)
	}
	return env
}

// appendPath adds dir to the list unless it is already there.
func appendPath(list, dir, sep string) string {
	if list == "" {
		return dir
	}
	for _, p := range strings.Split(list, sep) {
		if p == dir {
			return list
		}
	}
	return list + sep + dir
}
