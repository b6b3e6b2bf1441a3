// Package builder drives the external source-to-SPIR-V compiler.
//
// A Config describes one compilation request, CommandCompiler runs the
// compiler once and decodes its Outcome, and Watcher recompiles whenever the
// shader project changes.
package builder

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultTarget is the compile target used when none is configured.
const DefaultTarget = "spirv-unknown-spv1.3"

// MetadataLevel selects how much debug metadata the compiler emits.
type MetadataLevel string

const (
	MetadataNone          MetadataLevel = "none"
	MetadataNameVariables MetadataLevel = "name-variables"
	MetadataFull          MetadataLevel = "full"
)

// ParseMetadataLevel parses "none", "name-variables" or "full".
func ParseMetadataLevel(s string) (MetadataLevel, error) {
	switch l := MetadataLevel(strings.TrimSpace(s)); l {
	case MetadataNone, MetadataNameVariables, MetadataFull:
		return l, nil
	case "":
		return MetadataNone, nil
	}
	return "", fmt.Errorf("unknown SPIR-V metadata level %q (want none, name-variables or full)", s)
}

// Config is one compilation request. It is not modified once a watch
// session has started.
type Config struct {
	// Path is the shader project directory.
	Path   string
	Target string

	DenyWarnings bool
	// Release builds optimized shaders; debug builds otherwise.
	Release     bool
	MultiModule bool
	Metadata    MetadataLevel

	RelaxStructStore            bool
	RelaxLogicalPointer         bool
	RelaxBlockLayout            bool
	UniformBufferStandardLayout bool
	ScalarBlockLayout           bool
	SkipBlockLayout             bool
	PreserveBindings            bool

	Capabilities []string
	Extensions   []string
}

// DefaultConfig returns a release build of the project at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:     path,
		Target:   DefaultTarget,
		Release:  true,
		Metadata: MetadataNone,
	}
}

// Validate reports configuration mistakes.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Path) == "" {
		errs = append(errs, errors.New("project path is required"))
	}
	if strings.TrimSpace(c.Target) == "" {
		errs = append(errs, errors.New("compile target is required"))
	}
	if c.Metadata != "" {
		if _, err := ParseMetadataLevel(string(c.Metadata)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Args renders the compiler command line. The project path comes last.
func (c Config) Args() []string {
	args := []string{"--target", c.Target}

	flags := []struct {
		set  bool
		name string
	}{
		{c.DenyWarnings, "--deny-warnings"},
		{!c.Release, "--debug"},
		{c.MultiModule, "--multimodule"},
		{c.RelaxStructStore, "--relax-struct-store"},
		{c.RelaxLogicalPointer, "--relax-logical-pointer"},
		{c.RelaxBlockLayout, "--relax-block-layout"},
		{c.UniformBufferStandardLayout, "--uniform-buffer-standard-layout"},
		{c.ScalarBlockLayout, "--scalar-block-layout"},
		{c.SkipBlockLayout, "--skip-block-layout"},
		{c.PreserveBindings, "--preserve-bindings"},
	}
	for _, f := range flags {
		if f.set {
			args = append(args, f.name)
		}
	}

	if c.Metadata != "" && c.Metadata != MetadataNone {
		args = append(args, "--spirv-metadata", string(c.Metadata))
	}
	for _, capability := range c.Capabilities {
		args = append(args, "--capability", capability)
	}
	for _, ext := range c.Extensions {
		args = append(args, "--extension", ext)
	}
	return append(args, c.Path)
}
