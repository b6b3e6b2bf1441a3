// Package publish copies compiled SPIR-V modules to their destination.
package publish

import (
	"path/filepath"
)

// CompiledDir is the directory, relative to the shader project, that the
// Default policy publishes into.
const CompiledDir = "compiled"

// Policy decides where published modules go. It is computed once from the
// configuration and reused for every outcome.
type Policy struct {
	explicit string
	dir      string
}

// Explicit publishes a single module to exactly path. When the outcome has
// one module per entry point, path is used as the directory instead.
func Explicit(path string) Policy {
	return Policy{explicit: path}
}

// Default publishes into the compiled/ directory of the shader project,
// keeping each module's file name.
func Default(projectDir string) Policy {
	return Policy{dir: filepath.Join(projectDir, CompiledDir)}
}

// IsExplicit reports whether p was created by Explicit.
func (p Policy) IsExplicit() bool {
	return p.explicit != ""
}

// String describes the policy for logs.
func (p Policy) String() string {
	if p.IsExplicit() {
		return "explicit " + p.explicit
	}
	return "default " + p.dir
}

// Output is the absolute path the policy writes to: the explicit file (or
// directory, for multi-module outcomes) or the compiled/ directory.
func (p Policy) Output() string {
	out := p.dir
	if p.IsExplicit() {
		out = p.explicit
	}
	if abs, err := filepath.Abs(out); err == nil {
		return abs
	}
	return out
}

// singleDest is the destination of a SingleModule at src.
func (p Policy) singleDest(src string) string {
	if p.IsExplicit() {
		return p.explicit
	}
	return filepath.Join(p.dir, filepath.Base(src))
}

// multiDest is the destination of one module of a MultiModule.
func (p Policy) multiDest(src string) string {
	dir := p.dir
	if p.IsExplicit() {
		dir = p.explicit
	}
	return filepath.Join(dir, filepath.Base(src))
}
