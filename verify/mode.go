package verify

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderd/cross"
)

// Mode selects how much validation runs on each published module.
type Mode int

const (
	// ModeNone skips validation.
	ModeNone Mode = iota
	// ModeBinary validates the SPIR-V binary.
	ModeBinary
	// ModeCrossCompiled validates the binary, converts it to a shading
	// language and validates that source too.
	ModeCrossCompiled
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeBinary:
		return "binary"
	case ModeCrossCompiled:
		return "cross-compiled"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses the validate option: "none" (or empty), "spirv", or the
// name of a shading language to cross-compile to ("wgsl", "glsl").
func ParseMode(s string) (Mode, cross.Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ModeNone, 0, nil
	case "spirv":
		return ModeBinary, 0, nil
	}
	lang, err := cross.ParseLanguage(s)
	if err != nil {
		return ModeNone, 0, fmt.Errorf("unknown validation mode %q (want none, spirv, wgsl or glsl)", s)
	}
	return ModeCrossCompiled, lang, nil
}
