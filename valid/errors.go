package valid

import (
	"fmt"
	"strings"

	"github.com/gogpu/shaderd/spirv"
)

// Diagnostic is a single rule violation.
type Diagnostic struct {
	// Rule names the check that failed: "structure" or one of the Flags.
	Rule    string
	Message string

	// Instruction is the offending instruction, if there is one.
	Instruction *spirv.Instruction
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	if d.Instruction != nil && d.Instruction.Offset > 0 {
		return fmt.Sprintf("word %d: %s", d.Instruction.Offset, d.Message)
	}
	return d.Message
}

// Error is returned by Validator.Validate when the module breaks a rule.
type Error struct {
	Flags       Flags
	Diagnostics []Diagnostic
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch len(e.Diagnostics) {
	case 0:
		return "SPIR-V validation failed"
	case 1:
		return "SPIR-V validation failed: " + e.Diagnostics[0].Error()
	}
	return fmt.Sprintf("SPIR-V validation failed: %s (and %d more)",
		e.Diagnostics[0].Error(), len(e.Diagnostics)-1)
}

// Emit renders every diagnostic with the offending instruction, for logs.
func (e *Error) Emit() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "error: SPIR-V validation failed with %d problem(s) (flags: %s)\n", len(e.Diagnostics), e.Flags)
	for _, d := range e.Diagnostics {
		fmt.Fprintf(&sb, "  [%s] %s\n", d.Rule, d.Message)
		if d.Instruction != nil {
			if d.Instruction.Offset > 0 {
				fmt.Fprintf(&sb, "   --> word %d\n", d.Instruction.Offset)
			}
			fmt.Fprintf(&sb, "   |   %s\n", d.Instruction)
		}
	}
	return sb.String()
}

// String lists the names of the set flags.
func (f Flags) String() string {
	if f == FlagsNone {
		return "none"
	}
	var names []string
	for _, flag := range []struct {
		bit  Flags
		name string
	}{
		{FlagCapabilities, "capabilities"},
		{FlagEntryPoints, "entry-points"},
		{FlagBindings, "bindings"},
		{FlagLayout, "layout"},
		{FlagControlFlow, "control-flow"},
	} {
		if f.Has(flag.bit) {
			names = append(names, flag.name)
		}
	}
	return strings.Join(names, ",")
}
