// Package cross turns SPIR-V modules into shading-language source and checks
// that source with a front end for the language.
//
// Generation always runs an external tool: naga for WGSL, SPIRV-Cross for
// GLSL. WGSL is checked in process by package wgsl; GLSL by
// glslangValidator.
package cross

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/shaderd/spirv"
	"github.com/gogpu/shaderd/valid"
)

// Language is a textual shading language.
type Language int

const (
	WGSL Language = iota + 1
	GLSL
)

// String returns the language name.
func (l Language) String() string {
	switch l {
	case WGSL:
		return "wgsl"
	case GLSL:
		return "glsl"
	}
	return fmt.Sprintf("Language(%d)", int(l))
}

// Extension returns the file extension, without the dot.
func (l Language) Extension() string {
	return l.String()
}

// ParseLanguage parses "wgsl" or "glsl".
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wgsl":
		return WGSL, nil
	case "glsl":
		return GLSL, nil
	}
	return 0, fmt.Errorf("unknown shading language %q", s)
}

// Generator produces source text equivalent to a SPIR-V module.
type Generator interface {
	Generate(ctx context.Context, m *spirv.Module, info *valid.ModuleInfo) (string, error)
}

// Checker parses and validates source text stored at path.
type Checker interface {
	Check(ctx context.Context, path, src string, info *valid.ModuleInfo) error
}

// Tools locates the external executables.
type Tools struct {
	Naga       string
	SPIRVCross string
	GLSLang    string

	// WorkDir holds scratch files; empty means os.TempDir().
	WorkDir string
	Timeout time.Duration
}

// DefaultTools returns the executables as named on PATH.
func DefaultTools() Tools {
	return Tools{
		Naga:       "naga",
		SPIRVCross: "spirv-cross",
		GLSLang:    "glslangValidator",
		Timeout:    time.Minute,
	}
}

// For returns the generator and checker for lang.
func (t Tools) For(lang Language) (Generator, Checker, error) {
	switch lang {
	case WGSL:
		return &NagaCLI{Bin: t.Naga, WorkDir: t.WorkDir, Timeout: t.Timeout}, WGSLChecker{}, nil
	case GLSL:
		return &SPIRVCross{Bin: t.SPIRVCross, WorkDir: t.WorkDir, Timeout: t.Timeout},
			&GLSLang{Bin: t.GLSLang, Timeout: t.Timeout}, nil
	}
	return nil, nil, fmt.Errorf("no cross compiler for %s", lang)
}

// scratch writes the module binary into a fresh directory under workDir.
// The returned cleanup removes the directory.
func scratch(workDir string, m *spirv.Module) (dir, input string, cleanup func(), err error) {
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", "", nil, err
	}
	dir, err = os.MkdirTemp(workDir, "shaderd-cross-")
	if err != nil {
		return "", "", nil, err
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	input = filepath.Join(dir, "module.spv")
	if err := os.WriteFile(input, m.Bytes(), 0o644); err != nil {
		cleanup()
		return "", "", nil, err
	}
	return dir, input, cleanup, nil
}
