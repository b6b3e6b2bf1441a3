package spirv

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble writes m in the .spvasm text format.
func Disassemble(w io.Writer, m *Module) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; SPIR-V\n")
	fmt.Fprintf(&sb, "; Version: %s\n", m.Version)
	fmt.Fprintf(&sb, "; Generator: 0x%08X\n", m.Generator)
	fmt.Fprintf(&sb, "; Bound: %d\n", m.Bound)
	fmt.Fprintf(&sb, "; Schema: %d\n\n", m.Schema)

	for _, inst := range m.Instructions {
		sb.WriteString(formatInstruction(inst))
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String returns the instruction in disassembly form.
func (i Instruction) String() string {
	return formatInstruction(i)
}

func id(n uint32) string {
	return fmt.Sprintf("%%%d", n)
}

func ids(words []uint32) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = id(w)
	}
	return strings.Join(parts, " ")
}

func literals(words []uint32) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprint(w)
	}
	return strings.Join(parts, " ")
}

func str(inst Instruction, start int) string {
	s, _, err := decodeString(inst, start)
	if err != nil {
		return `"<unterminated>"`
	}
	return fmt.Sprintf("%q", s)
}

//nolint:gocyclo,cyclop // one case per opcode with enum operands
func formatInstruction(inst Instruction) string {
	name := inst.Opcode.String()
	ops := inst.Words
	operands := ""

	switch inst.Opcode {
	case OpCapability:
		operands = lookup(capabilityNames, ops[0])
	case OpExtension:
		operands = str(inst, 0)
	case OpExtInstImport:
		operands = str(inst, 1)
	case OpMemoryModel:
		operands = lookup(addressingModelNames, ops[0]) + " " + lookup(memoryModelNames, ops[1])
	case OpEntryPoint:
		_, next, _ := decodeString(inst, 2)
		operands = fmt.Sprintf("%s %s %s", lookup(executionModelNames, ops[0]), id(ops[1]), str(inst, 2))
		if next > 0 && next < len(ops) {
			operands += " " + ids(ops[next:])
		}
	case OpExecutionMode:
		operands = strings.TrimSpace(fmt.Sprintf("%s %s %s", id(ops[0]), lookup(executionModeNames, ops[1]), literals(ops[2:])))
	case OpExecutionModeID:
		operands = strings.TrimSpace(fmt.Sprintf("%s %s %s", id(ops[0]), lookup(executionModeNames, ops[1]), ids(ops[2:])))
	case OpName:
		operands = id(ops[0]) + " " + str(inst, 1)
	case OpMemberName:
		operands = fmt.Sprintf("%s %d %s", id(ops[0]), ops[1], str(inst, 2))
	case OpDecorate:
		operands = id(ops[0]) + " " + lookup(decorationNames, ops[1])
		if Decoration(ops[1]) == DecorationBuiltIn && len(ops) > 2 {
			operands += " " + lookup(builtInNames, ops[2])
		} else if len(ops) > 2 {
			operands += " " + literals(ops[2:])
		}
	case OpMemberDecorate:
		operands = fmt.Sprintf("%s %d %s", id(ops[0]), ops[1], lookup(decorationNames, ops[2]))
		if Decoration(ops[2]) == DecorationBuiltIn && len(ops) > 3 {
			operands += " " + lookup(builtInNames, ops[3])
		} else if len(ops) > 3 {
			operands += " " + literals(ops[3:])
		}
	case OpTypeInt, OpTypeFloat:
		return fmt.Sprintf("%s = %s %s", id(ops[0]), name, literals(ops[1:]))
	case OpTypeVector, OpTypeMatrix:
		return fmt.Sprintf("%s = %s %s %d", id(ops[0]), name, id(ops[1]), ops[2])
	case OpTypeImage:
		return fmt.Sprintf("%s = %s %s %s %s", id(ops[0]), name, id(ops[1]), lookup(dimNames, ops[2]), literals(ops[3:]))
	case OpTypePointer:
		return fmt.Sprintf("%s = %s %s %s", id(ops[0]), name, lookup(storageClassNames, ops[1]), id(ops[2]))
	case OpVariable:
		out := fmt.Sprintf("%s = %s %s %s", id(ops[1]), name, id(ops[0]), lookup(storageClassNames, ops[2]))
		if len(ops) > 3 {
			out += " " + id(ops[3])
		}
		return out
	case OpConstant:
		return fmt.Sprintf("%s = %s %s %s", id(ops[1]), name, id(ops[0]), literals(ops[2:]))
	case OpFunction:
		return fmt.Sprintf("%s = %s %s %s %s", id(ops[1]), name, id(ops[0]), functionControl(ops[2]), id(ops[3]))
	default:
		switch shapeOf(inst.Opcode) {
		case shapeResult:
			if len(ops) > 0 {
				return strings.TrimSpace(fmt.Sprintf("%s = %s %s", id(ops[0]), name, ids(ops[1:])))
			}
		case shapeTypedResult:
			if len(ops) > 1 {
				return strings.TrimSpace(fmt.Sprintf("%s = %s %s %s", id(ops[1]), name, id(ops[0]), ids(ops[2:])))
			}
		}
		operands = ids(ops)
	}

	if operands == "" {
		return name
	}
	return name + " " + operands
}

func functionControl(mask uint32) string {
	switch FunctionControl(mask) {
	case FunctionControlNone:
		return "None"
	case FunctionControlInline:
		return "Inline"
	case FunctionControlDontInline:
		return "DontInline"
	}
	return fmt.Sprint(mask)
}
