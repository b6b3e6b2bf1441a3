package spirv

// Module is a parsed SPIR-V binary.
//
// Instructions holds every instruction in binary order. The remaining fields
// are views over Instructions for the module-level sections the validator and
// the cross compilers care about.
type Module struct {
	Version   Version
	Generator uint32
	Bound     uint32
	Schema    uint32

	// BigEndian is set when the binary was stored byte-swapped.
	BigEndian bool

	Instructions []Instruction

	Capabilities   []Capability
	Extensions     []string
	ExtInstImports map[uint32]string
	MemoryModels   []MemoryModelDecl
	EntryPoints    []EntryPoint
	ExecutionModes []ExecutionModeDecl
	Names          map[uint32]string
	Decorations    []DecorationDecl
	Functions      []Function

	data []byte
}

// Bytes returns the binary the module was parsed from.
func (m *Module) Bytes() []byte {
	return m.data
}

// Name returns the debug name of id, or "" if it has none.
func (m *Module) Name(id uint32) string {
	return m.Names[id]
}

// MemoryModelDecl is one OpMemoryModel instruction.
type MemoryModelDecl struct {
	Addressing AddressingModel
	Memory     MemoryModel
}

// EntryPoint is one OpEntryPoint instruction.
type EntryPoint struct {
	Model     ExecutionModel
	Function  uint32
	Name      string
	Interface []uint32
}

// ExecutionModeDecl is one OpExecutionMode or OpExecutionModeId instruction.
type ExecutionModeDecl struct {
	Target uint32
	Mode   ExecutionMode
	Params []uint32
	// ByID is set for OpExecutionModeId, whose Params are constant IDs
	// rather than literals.
	ByID bool
}

// DecorationDecl is an OpDecorate (Member == -1) or OpMemberDecorate.
type DecorationDecl struct {
	Target     uint32
	Member     int
	Decoration Decoration
	Params     []uint32
}

// Function is an OpFunction ... OpFunctionEnd range.
type Function struct {
	ID         uint32
	ResultType uint32
	Control    FunctionControl
	Type       uint32
	Params     []uint32

	// First and End index Module.Instructions: First is the OpFunction,
	// End is one past the OpFunctionEnd (or len(Instructions) if missing).
	First, End int
}

// Body returns the function's instructions after its parameters.
func (f Function) Body(m *Module) []Instruction {
	start := f.First + 1 + len(f.Params)
	if start > f.End {
		return nil
	}
	return m.Instructions[start:f.End]
}

// DecorationsOf returns the OpDecorate decorations applied to id.
func (m *Module) DecorationsOf(id uint32) []DecorationDecl {
	var out []DecorationDecl
	for _, d := range m.Decorations {
		if d.Target == id && d.Member < 0 {
			out = append(out, d)
		}
	}
	return out
}

// Decorated returns the first parameter of decoration dec on id.
func (m *Module) Decorated(id uint32, dec Decoration) (uint32, bool) {
	for _, d := range m.Decorations {
		if d.Target == id && d.Member < 0 && d.Decoration == dec {
			if len(d.Params) > 0 {
				return d.Params[0], true
			}
			return 0, true
		}
	}
	return 0, false
}

// HasCapability reports whether the module declares c.
func (m *Module) HasCapability(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// resultShape says where an instruction's result type and result ID live.
type resultShape uint8

const (
	shapeUnknown resultShape = iota
	shapeNone
	shapeResult      // words[0] is the result ID
	shapeTypedResult // words[0] is the result type, words[1] the result ID
)

var noResultOps = map[OpCode]bool{
	OpNop: true, OpSourceContinued: true, OpSource: true, OpSourceExtension: true,
	OpName: true, OpMemberName: true, OpLine: true, OpExtension: true,
	OpMemoryModel: true, OpEntryPoint: true, OpExecutionMode: true, OpCapability: true,
	OpTypeForwardPointer: true, OpFunctionEnd: true, OpStore: true,
	OpCopyMemory: true, OpCopyMemorySized: true,
	OpDecorate: true, OpMemberDecorate: true, OpGroupDecorate: true,
	OpGroupMemberDecorate: true, OpImageWrite: true,
	OpEmitVertex: true, OpEndPrimitive: true, OpControlBarrier: true, OpMemoryBarrier: true,
	OpLoopMerge: true, OpSelectionMerge: true, OpBranch: true, OpBranchConditional: true,
	OpSwitch: true, OpKill: true, OpReturn: true, OpReturnValue: true, OpUnreachable: true,
	OpLifetimeStart: true, OpLifetimeStop: true, OpNoLine: true, OpModuleProcessed: true,
	OpExecutionModeID: true, OpDecorateID: true, OpTerminateInvocation: true,
	OpDecorateString: true, OpMemberDecorateString: true,
}

var resultOnlyOps = map[OpCode]bool{
	OpString: true, OpExtInstImport: true, OpDecorationGroup: true, OpLabel: true,
}

func shapeOf(op OpCode) resultShape {
	switch {
	case noResultOps[op]:
		return shapeNone
	case resultOnlyOps[op] || op.IsType():
		return shapeResult
	}
	if _, known := opcodeNames[op]; known {
		return shapeTypedResult
	}
	return shapeUnknown
}

// ResultID returns the ID an instruction defines, if any.
func (i Instruction) ResultID() (uint32, bool) {
	switch shapeOf(i.Opcode) {
	case shapeResult:
		if len(i.Words) > 0 {
			return i.Words[0], true
		}
	case shapeTypedResult:
		if len(i.Words) > 1 {
			return i.Words[1], true
		}
	}
	return 0, false
}

// ResultType returns the type ID of an instruction's result, if it has one.
func (i Instruction) ResultType() (uint32, bool) {
	if shapeOf(i.Opcode) == shapeTypedResult && len(i.Words) > 1 {
		return i.Words[0], true
	}
	return 0, false
}
