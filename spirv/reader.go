package spirv

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"strings"
)

// ParseError describes a binary that does not follow the SPIR-V grammar.
type ParseError struct {
	// Offset is the word offset of the offending instruction or header field.
	Offset  int
	Opcode  OpCode
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Offset < HeaderWords {
		return fmt.Sprintf("invalid SPIR-V header: %s", e.Message)
	}
	return fmt.Sprintf("invalid SPIR-V at word %d (%s): %s", e.Offset, e.Opcode, e.Message)
}

// minOperands is the minimum operand word count for opcodes whose layout the
// reader decodes. Other opcodes are kept as raw words.
var minOperands = map[OpCode]int{
	OpCapability:        1,
	OpExtension:         1,
	OpExtInstImport:     2,
	OpMemoryModel:       2,
	OpEntryPoint:        3,
	OpExecutionMode:     2,
	OpExecutionModeID:   2,
	OpName:              2,
	OpMemberName:        3,
	OpDecorate:          2,
	OpMemberDecorate:    3,
	OpTypeInt:           3,
	OpTypeFloat:         2,
	OpTypeVector:        3,
	OpTypeMatrix:        3,
	OpTypeArray:         3,
	OpTypeRuntimeArray:  2,
	OpTypeImage:         8,
	OpTypePointer:       3,
	OpConstant:          3,
	OpTypeFunction:      2,
	OpVariable:          3,
	OpFunction:          4,
	OpFunctionParameter: 2,
	OpLabel:             1,
	OpBranch:            1,
	OpBranchConditional: 3,
	OpReturnValue:       1,
}

// Parse decodes a SPIR-V binary. It checks the header and the instruction
// stream framing, and decodes the operands of module-level instructions. It
// does not check semantic rules; see package valid.
func Parse(data []byte) (*Module, error) {
	if len(data)%4 != 0 {
		return nil, &ParseError{Message: fmt.Sprintf("binary length %d is not a multiple of 4", len(data))}
	}
	if len(data) < HeaderWords*4 {
		return nil, &ParseError{Message: fmt.Sprintf("binary is %d bytes, the header alone needs %d", len(data), HeaderWords*4)}
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	m := &Module{
		ExtInstImports: make(map[uint32]string),
		Names:          make(map[uint32]string),
		data:           data,
	}

	switch words[0] {
	case MagicNumber:
	case bits.ReverseBytes32(MagicNumber):
		m.BigEndian = true
		for i := range words {
			words[i] = bits.ReverseBytes32(words[i])
		}
	default:
		return nil, &ParseError{Message: fmt.Sprintf("bad magic number 0x%08X", words[0])}
	}

	m.Version = wordToVersion(words[1])
	if m.Version.Major != 1 || words[1]&0xFF0000FF != 0 {
		return nil, &ParseError{Offset: 1, Message: fmt.Sprintf("unsupported version word 0x%08X", words[1])}
	}
	m.Generator = words[2]
	m.Bound = words[3]
	m.Schema = words[4]

	offset := HeaderWords
	for offset < len(words) {
		word := words[offset]
		opcode := OpCode(word & 0xFFFF)
		wordCount := int(word >> 16)

		if wordCount == 0 {
			return nil, &ParseError{Offset: offset, Opcode: opcode, Message: "word count is zero"}
		}
		if offset+wordCount > len(words) {
			return nil, &ParseError{
				Offset:  offset,
				Opcode:  opcode,
				Message: fmt.Sprintf("instruction needs %d words, only %d remain", wordCount, len(words)-offset),
			}
		}

		inst := Instruction{
			Opcode: opcode,
			Words:  words[offset+1 : offset+wordCount],
			Offset: offset,
		}
		if n, ok := minOperands[opcode]; ok && len(inst.Words) < n {
			return nil, &ParseError{
				Offset:  offset,
				Opcode:  opcode,
				Message: fmt.Sprintf("expected at least %d operand words, got %d", n, len(inst.Words)),
			}
		}
		if err := m.record(inst); err != nil {
			return nil, err
		}

		offset += wordCount
	}

	return m, nil
}

// record appends inst and updates the section views.
func (m *Module) record(inst Instruction) error {
	index := len(m.Instructions)
	m.Instructions = append(m.Instructions, inst)
	ops := inst.Words

	switch inst.Opcode {
	case OpCapability:
		m.Capabilities = append(m.Capabilities, Capability(ops[0]))

	case OpExtension:
		name, _, err := decodeString(inst, 0)
		if err != nil {
			return err
		}
		m.Extensions = append(m.Extensions, name)

	case OpExtInstImport:
		name, _, err := decodeString(inst, 1)
		if err != nil {
			return err
		}
		m.ExtInstImports[ops[0]] = name

	case OpMemoryModel:
		m.MemoryModels = append(m.MemoryModels, MemoryModelDecl{
			Addressing: AddressingModel(ops[0]),
			Memory:     MemoryModel(ops[1]),
		})

	case OpEntryPoint:
		name, next, err := decodeString(inst, 2)
		if err != nil {
			return err
		}
		m.EntryPoints = append(m.EntryPoints, EntryPoint{
			Model:     ExecutionModel(ops[0]),
			Function:  ops[1],
			Name:      name,
			Interface: ops[next:],
		})

	case OpExecutionMode, OpExecutionModeID:
		m.ExecutionModes = append(m.ExecutionModes, ExecutionModeDecl{
			Target: ops[0],
			Mode:   ExecutionMode(ops[1]),
			Params: ops[2:],
			ByID:   inst.Opcode == OpExecutionModeID,
		})

	case OpName:
		name, _, err := decodeString(inst, 1)
		if err != nil {
			return err
		}
		m.Names[ops[0]] = name

	case OpMemberName:
		if _, _, err := decodeString(inst, 2); err != nil {
			return err
		}

	case OpDecorate:
		m.Decorations = append(m.Decorations, DecorationDecl{
			Target:     ops[0],
			Member:     -1,
			Decoration: Decoration(ops[1]),
			Params:     ops[2:],
		})

	case OpMemberDecorate:
		m.Decorations = append(m.Decorations, DecorationDecl{
			Target:     ops[0],
			Member:     int(ops[1]),
			Decoration: Decoration(ops[2]),
			Params:     ops[3:],
		})

	case OpFunction:
		m.Functions = append(m.Functions, Function{
			ResultType: ops[0],
			ID:         ops[1],
			Control:    FunctionControl(ops[2]),
			Type:       ops[3],
			First:      index,
			End:        index + 1,
		})

	case OpFunctionParameter:
		if f := m.openFunction(); f != nil {
			f.Params = append(f.Params, ops[1])
		}
	}

	if f := m.openFunction(); f != nil && inst.Opcode != OpFunction {
		f.End = index + 1
	}
	return nil
}

// openFunction returns the last function if its OpFunctionEnd has not been
// seen yet.
func (m *Module) openFunction() *Function {
	if len(m.Functions) == 0 {
		return nil
	}
	f := &m.Functions[len(m.Functions)-1]
	if last := m.Instructions[f.End-1]; last.Opcode == OpFunctionEnd && f.End-1 != f.First {
		return nil
	}
	return f
}

// decodeString reads the null-terminated string operand starting at word
// index start and returns it with the index of the following operand.
func decodeString(inst Instruction, start int) (string, int, error) {
	var sb strings.Builder
	for i := start; i < len(inst.Words); i++ {
		w := inst.Words[i]
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return sb.String(), i + 1, nil
			}
			sb.WriteByte(b)
		}
	}
	return "", 0, &ParseError{Offset: inst.Offset, Opcode: inst.Opcode, Message: "unterminated string operand"}
}
