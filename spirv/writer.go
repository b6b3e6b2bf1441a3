package spirv

import (
	"encoding/binary"
	"math"
)

// Instruction represents a SPIR-V instruction.
type Instruction struct {
	Opcode OpCode
	Words  []uint32 // result type ID, result ID, operands

	// Offset is the word offset of the instruction in a parsed binary.
	// It is zero for instructions built with ModuleBuilder.
	Offset int
}

// Encode encodes the instruction to binary words.
func (i Instruction) Encode() []uint32 {
	wordCount := uint32(len(i.Words) + 1) // +1 for opcode word
	result := make([]uint32, 0, wordCount)
	result = append(result, (wordCount<<16)|uint32(i.Opcode))
	result = append(result, i.Words...)
	return result
}

// encodeString packs a null-terminated UTF-8 string into little-endian words.
func encodeString(s string) []uint32 {
	bytes := append([]byte(s), 0)
	for len(bytes)%4 != 0 {
		bytes = append(bytes, 0)
	}
	words := make([]uint32, 0, len(bytes)/4)
	for i := 0; i < len(bytes); i += 4 {
		words = append(words, binary.LittleEndian.Uint32(bytes[i:]))
	}
	return words
}

// ModuleBuilder builds complete SPIR-V modules.
//
// It is used to produce fixture modules for the reader and validator, so it
// performs no checking of its own: invalid modules can be built on purpose.
type ModuleBuilder struct {
	version   Version
	generator uint32
	bound     uint32 // 0 means max ID + 1

	// Sections in logical layout order
	capabilities   []Instruction
	extensions     []Instruction
	extInstImports []Instruction
	memoryModels   []Instruction
	entryPoints    []Instruction
	executionModes []Instruction
	debugNames     []Instruction // OpName, OpMemberName
	annotations    []Instruction // OpDecorate, OpMemberDecorate
	types          []Instruction // OpType*, OpConstant*, global OpVariable
	functions      []Instruction // OpFunction...OpFunctionEnd

	nextID uint32
}

// NewModuleBuilder creates a new SPIR-V module builder.
func NewModuleBuilder(version Version) *ModuleBuilder {
	return &ModuleBuilder{
		version:   version,
		generator: GeneratorID,
		nextID:    1,
	}
}

// AllocID allocates a new SPIR-V ID.
func (b *ModuleBuilder) AllocID() uint32 {
	id := b.nextID
	b.nextID++
	return id
}

// SetBound overrides the ID bound written to the header.
func (b *ModuleBuilder) SetBound(bound uint32) {
	b.bound = bound
}

func emit(section *[]Instruction, op OpCode, words ...uint32) {
	*section = append(*section, Instruction{Opcode: op, Words: words})
}

// result allocates an ID and emits op with it as the first operand.
func (b *ModuleBuilder) result(section *[]Instruction, op OpCode, operands ...uint32) uint32 {
	id := b.AllocID()
	emit(section, op, append([]uint32{id}, operands...)...)
	return id
}

// typedResult allocates an ID and emits op with a result type and the new ID.
func (b *ModuleBuilder) typedResult(section *[]Instruction, op OpCode, resultType uint32, operands ...uint32) uint32 {
	id := b.AllocID()
	emit(section, op, append([]uint32{resultType, id}, operands...)...)
	return id
}

// AddCapability adds a capability.
func (b *ModuleBuilder) AddCapability(capability Capability) {
	emit(&b.capabilities, OpCapability, uint32(capability))
}

// AddExtension adds an extension.
func (b *ModuleBuilder) AddExtension(name string) {
	emit(&b.extensions, OpExtension, encodeString(name)...)
}

// AddExtInstImport imports an extended instruction set.
func (b *ModuleBuilder) AddExtInstImport(name string) uint32 {
	return b.result(&b.extInstImports, OpExtInstImport, encodeString(name)...)
}

// SetMemoryModel sets the memory model. Calling it twice emits two
// OpMemoryModel instructions.
func (b *ModuleBuilder) SetMemoryModel(addressing AddressingModel, memory MemoryModel) {
	emit(&b.memoryModels, OpMemoryModel, uint32(addressing), uint32(memory))
}

// AddEntryPoint adds an entry point.
func (b *ModuleBuilder) AddEntryPoint(execModel ExecutionModel, funcID uint32, name string, interfaces []uint32) {
	words := []uint32{uint32(execModel), funcID}
	words = append(words, encodeString(name)...)
	words = append(words, interfaces...)
	emit(&b.entryPoints, OpEntryPoint, words...)
}

// AddExecutionMode adds an execution mode.
func (b *ModuleBuilder) AddExecutionMode(entryPoint uint32, mode ExecutionMode, params ...uint32) {
	emit(&b.executionModes, OpExecutionMode, append([]uint32{entryPoint, uint32(mode)}, params...)...)
}

// AddExecutionModeID adds OpExecutionModeId; operands are constant IDs.
func (b *ModuleBuilder) AddExecutionModeID(entryPoint uint32, mode ExecutionMode, operands ...uint32) {
	emit(&b.executionModes, OpExecutionModeID, append([]uint32{entryPoint, uint32(mode)}, operands...)...)
}

// AddName adds a debug name.
func (b *ModuleBuilder) AddName(id uint32, name string) {
	emit(&b.debugNames, OpName, append([]uint32{id}, encodeString(name)...)...)
}

// AddMemberName adds a debug member name.
func (b *ModuleBuilder) AddMemberName(structID, member uint32, name string) {
	emit(&b.debugNames, OpMemberName, append([]uint32{structID, member}, encodeString(name)...)...)
}

// AddDecorate adds a decoration.
func (b *ModuleBuilder) AddDecorate(id uint32, decoration Decoration, params ...uint32) {
	emit(&b.annotations, OpDecorate, append([]uint32{id, uint32(decoration)}, params...)...)
}

// AddMemberDecorate adds a member decoration.
func (b *ModuleBuilder) AddMemberDecorate(structID, member uint32, decoration Decoration, params ...uint32) {
	emit(&b.annotations, OpMemberDecorate, append([]uint32{structID, member, uint32(decoration)}, params...)...)
}

// AddTypeVoid adds OpTypeVoid.
func (b *ModuleBuilder) AddTypeVoid() uint32 {
	return b.result(&b.types, OpTypeVoid)
}

// AddTypeBool adds OpTypeBool.
func (b *ModuleBuilder) AddTypeBool() uint32 {
	return b.result(&b.types, OpTypeBool)
}

// AddTypeFloat adds OpTypeFloat.
func (b *ModuleBuilder) AddTypeFloat(width uint32) uint32 {
	return b.result(&b.types, OpTypeFloat, width)
}

// AddTypeInt adds OpTypeInt.
func (b *ModuleBuilder) AddTypeInt(width uint32, signed bool) uint32 {
	var signedness uint32
	if signed {
		signedness = 1
	}
	return b.result(&b.types, OpTypeInt, width, signedness)
}

// AddTypeVector adds OpTypeVector.
func (b *ModuleBuilder) AddTypeVector(componentType uint32, count uint32) uint32 {
	return b.result(&b.types, OpTypeVector, componentType, count)
}

// AddTypeArray adds OpTypeArray. length is a constant ID.
func (b *ModuleBuilder) AddTypeArray(elementType uint32, length uint32) uint32 {
	return b.result(&b.types, OpTypeArray, elementType, length)
}

// AddTypeRuntimeArray adds OpTypeRuntimeArray.
func (b *ModuleBuilder) AddTypeRuntimeArray(elementType uint32) uint32 {
	return b.result(&b.types, OpTypeRuntimeArray, elementType)
}

// AddTypePointer adds OpTypePointer.
func (b *ModuleBuilder) AddTypePointer(storageClass StorageClass, baseType uint32) uint32 {
	return b.result(&b.types, OpTypePointer, uint32(storageClass), baseType)
}

// AddTypeFunction adds OpTypeFunction.
func (b *ModuleBuilder) AddTypeFunction(returnType uint32, paramTypes ...uint32) uint32 {
	return b.result(&b.types, OpTypeFunction, append([]uint32{returnType}, paramTypes...)...)
}

// AddTypeStruct adds OpTypeStruct.
func (b *ModuleBuilder) AddTypeStruct(memberTypes ...uint32) uint32 {
	return b.result(&b.types, OpTypeStruct, memberTypes...)
}

// AddConstant adds OpConstant with raw literal words.
func (b *ModuleBuilder) AddConstant(typeID uint32, values ...uint32) uint32 {
	return b.typedResult(&b.types, OpConstant, typeID, values...)
}

// AddConstantFloat32 adds a 32-bit float constant.
func (b *ModuleBuilder) AddConstantFloat32(typeID uint32, value float32) uint32 {
	return b.AddConstant(typeID, math.Float32bits(value))
}

// AddConstantComposite adds OpConstantComposite.
func (b *ModuleBuilder) AddConstantComposite(typeID uint32, constituents ...uint32) uint32 {
	return b.typedResult(&b.types, OpConstantComposite, typeID, constituents...)
}

// AddVariable adds a module-scope OpVariable.
func (b *ModuleBuilder) AddVariable(pointerType uint32, storageClass StorageClass) uint32 {
	return b.typedResult(&b.types, OpVariable, pointerType, uint32(storageClass))
}

// AddFunction starts a function.
func (b *ModuleBuilder) AddFunction(funcType uint32, returnType uint32, control FunctionControl) uint32 {
	return b.typedResult(&b.functions, OpFunction, returnType, uint32(control), funcType)
}

// AddFunctionParameter adds a function parameter.
func (b *ModuleBuilder) AddFunctionParameter(typeID uint32) uint32 {
	return b.typedResult(&b.functions, OpFunctionParameter, typeID)
}

// AddLabel starts a basic block.
func (b *ModuleBuilder) AddLabel() uint32 {
	return b.result(&b.functions, OpLabel)
}

// AddLoad adds OpLoad.
func (b *ModuleBuilder) AddLoad(resultType uint32, pointer uint32) uint32 {
	return b.typedResult(&b.functions, OpLoad, resultType, pointer)
}

// AddStore adds OpStore.
func (b *ModuleBuilder) AddStore(pointer uint32, value uint32) {
	emit(&b.functions, OpStore, pointer, value)
}

// AddBinaryOp adds a two-operand arithmetic instruction.
func (b *ModuleBuilder) AddBinaryOp(opcode OpCode, resultType uint32, left uint32, right uint32) uint32 {
	return b.typedResult(&b.functions, opcode, resultType, left, right)
}

// AddBranch adds OpBranch.
func (b *ModuleBuilder) AddBranch(target uint32) {
	emit(&b.functions, OpBranch, target)
}

// AddReturn adds OpReturn.
func (b *ModuleBuilder) AddReturn() {
	emit(&b.functions, OpReturn)
}

// AddReturnValue adds OpReturnValue.
func (b *ModuleBuilder) AddReturnValue(valueID uint32) {
	emit(&b.functions, OpReturnValue, valueID)
}

// AddFunctionEnd ends the current function.
func (b *ModuleBuilder) AddFunctionEnd() {
	emit(&b.functions, OpFunctionEnd)
}

// Build generates the final SPIR-V binary.
func (b *ModuleBuilder) Build() []byte {
	bound := b.bound
	if bound == 0 {
		bound = b.nextID
	}

	words := []uint32{MagicNumber, versionToWord(b.version), b.generator, bound, 0}
	for _, section := range [][]Instruction{
		b.capabilities, b.extensions, b.extInstImports, b.memoryModels,
		b.entryPoints, b.executionModes, b.debugNames, b.annotations,
		b.types, b.functions,
	} {
		for _, inst := range section {
			words = append(words, inst.Encode()...)
		}
	}

	buffer := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buffer[i*4:], w)
	}
	return buffer
}
