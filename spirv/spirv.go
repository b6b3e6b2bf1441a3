package spirv

import "fmt"

// Version represents a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common SPIR-V versions
var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_4 = Version{1, 4}
	Version1_5 = Version{1, 5}
	Version1_6 = Version{1, 6}
)

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is the same as or newer than other.
func (v Version) AtLeast(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor >= other.Minor
}

// versionToWord converts Version to SPIR-V word format.
func versionToWord(v Version) uint32 {
	return (uint32(v.Major) << 16) | (uint32(v.Minor) << 8)
}

// wordToVersion is the inverse of versionToWord.
func wordToVersion(w uint32) Version {
	return Version{Major: uint8(w >> 16), Minor: uint8(w >> 8)}
}

// SPIR-V magic number and constants
const (
	MagicNumber = 0x07230203
	GeneratorID = 0x00000000 // Unregistered generator

	// HeaderWords is the number of words before the first instruction.
	HeaderWords = 5
)

// OpCode represents a SPIR-V opcode.
type OpCode uint16

// Opcodes referenced by the reader and validator.
const (
	OpNop                   OpCode = 0
	OpUndef                 OpCode = 1
	OpSourceContinued       OpCode = 2
	OpSource                OpCode = 3
	OpSourceExtension       OpCode = 4
	OpName                  OpCode = 5
	OpMemberName            OpCode = 6
	OpString                OpCode = 7
	OpLine                  OpCode = 8
	OpExtension             OpCode = 10
	OpExtInstImport         OpCode = 11
	OpExtInst               OpCode = 12
	OpMemoryModel           OpCode = 14
	OpEntryPoint            OpCode = 15
	OpExecutionMode         OpCode = 16
	OpCapability            OpCode = 17
	OpTypeVoid              OpCode = 19
	OpTypeBool              OpCode = 20
	OpTypeInt               OpCode = 21
	OpTypeFloat             OpCode = 22
	OpTypeVector            OpCode = 23
	OpTypeMatrix            OpCode = 24
	OpTypeImage             OpCode = 25
	OpTypeSampler           OpCode = 26
	OpTypeSampledImage      OpCode = 27
	OpTypeArray             OpCode = 28
	OpTypeRuntimeArray      OpCode = 29
	OpTypeStruct            OpCode = 30
	OpTypeOpaque            OpCode = 31
	OpTypePointer           OpCode = 32
	OpTypeFunction          OpCode = 33
	OpConstantTrue          OpCode = 41
	OpConstantFalse         OpCode = 42
	OpConstant              OpCode = 43
	OpConstantComposite     OpCode = 44
	OpConstantSampler       OpCode = 45
	OpConstantNull          OpCode = 46
	OpSpecConstantTrue      OpCode = 48
	OpSpecConstantFalse     OpCode = 49
	OpSpecConstant          OpCode = 50
	OpSpecConstantComposite OpCode = 51
	OpSpecConstantOp        OpCode = 52
	OpFunction              OpCode = 54
	OpFunctionParameter     OpCode = 55
	OpFunctionEnd           OpCode = 56
	OpFunctionCall          OpCode = 57
	OpVariable              OpCode = 59
	OpLoad                  OpCode = 61
	OpStore                 OpCode = 62
	OpAccessChain           OpCode = 65
	OpDecorate              OpCode = 71
	OpMemberDecorate        OpCode = 72
	OpDecorationGroup       OpCode = 73
	OpCompositeConstruct    OpCode = 80
	OpCompositeExtract      OpCode = 81
	OpFAdd                  OpCode = 129
	OpFMul                  OpCode = 133
	OpLoopMerge             OpCode = 246
	OpSelectionMerge        OpCode = 247
	OpLabel                 OpCode = 248
	OpBranch                OpCode = 249
	OpBranchConditional     OpCode = 250
	OpSwitch                OpCode = 251
	OpKill                  OpCode = 252
	OpReturn                OpCode = 253
	OpReturnValue           OpCode = 254
	OpUnreachable           OpCode = 255
	OpNoLine                OpCode = 317
	OpModuleProcessed       OpCode = 330
	OpTerminateInvocation   OpCode = 4416
	OpDecorateString        OpCode = 5632
	OpMemberDecorateString  OpCode = 5633

	OpTypeForwardPointer           OpCode = 39
	OpCopyMemory                   OpCode = 63
	OpCopyMemorySized              OpCode = 64
	OpGroupDecorate                OpCode = 74
	OpGroupMemberDecorate          OpCode = 75
	OpImageWrite                   OpCode = 99
	OpEmitVertex                   OpCode = 218
	OpEndPrimitive                 OpCode = 219
	OpControlBarrier               OpCode = 224
	OpMemoryBarrier                OpCode = 225
	OpLifetimeStart                OpCode = 256
	OpLifetimeStop                 OpCode = 257
	OpTypePipeStorage              OpCode = 322
	OpTypeNamedBarrier             OpCode = 327
	OpExecutionModeID              OpCode = 331
	OpDecorateID                   OpCode = 332
	OpTypeRayQueryKHR              OpCode = 4472
	OpTypeAccelerationStructureKHR OpCode = 5341
)

// IsType reports whether the opcode declares a type.
func (op OpCode) IsType() bool {
	switch op {
	case OpTypePipeStorage, OpTypeNamedBarrier, OpTypeRayQueryKHR, OpTypeAccelerationStructureKHR:
		return true
	}
	return op >= OpTypeVoid && op <= OpTypeFunction
}

// IsTerminator reports whether the opcode ends a basic block.
func (op OpCode) IsTerminator() bool {
	switch op {
	case OpBranch, OpBranchConditional, OpSwitch, OpKill, OpReturn, OpReturnValue,
		OpUnreachable, OpTerminateInvocation:
		return true
	}
	return false
}

// Capability represents a SPIR-V capability.
type Capability uint32

// Capabilities referenced by name in this module.
const (
	CapabilityMatrix            Capability = 0
	CapabilityShader            Capability = 1
	CapabilityGeometry          Capability = 2
	CapabilityTessellation      Capability = 3
	CapabilityAddresses         Capability = 4
	CapabilityLinkage           Capability = 5
	CapabilityKernel            Capability = 6
	CapabilityFloat16           Capability = 9
	CapabilityFloat64           Capability = 10
	CapabilityInt64             Capability = 11
	CapabilityInt16             Capability = 22
	CapabilityImageQuery        Capability = 50
	CapabilityDerivativeControl Capability = 51
	CapabilityInt8              Capability = 39
	CapabilityMultiView         Capability = 4439
	CapabilityDrawParameters    Capability = 4427
	CapabilityRayTracingKHR     Capability = 4479
	CapabilityRayQueryKHR       Capability = 4472
	CapabilityVulkanMemoryModel Capability = 5345
)

// String returns the capability's name from the SPIR-V grammar.
func (c Capability) String() string {
	return lookup(capabilityNames, uint32(c))
}

// Decoration represents a SPIR-V decoration.
type Decoration uint32

// Common decorations
const (
	DecorationSpecID        Decoration = 1
	DecorationBlock         Decoration = 2
	DecorationBufferBlock   Decoration = 3
	DecorationRowMajor      Decoration = 4
	DecorationColMajor      Decoration = 5
	DecorationArrayStride   Decoration = 6
	DecorationMatrixStride  Decoration = 7
	DecorationBuiltIn       Decoration = 11
	DecorationFlat          Decoration = 14
	DecorationNonWritable   Decoration = 24
	DecorationLocation      Decoration = 30
	DecorationBinding       Decoration = 33
	DecorationDescriptorSet Decoration = 34
	DecorationOffset        Decoration = 35
)

// String returns the decoration's name from the SPIR-V grammar.
func (d Decoration) String() string {
	return lookup(decorationNames, uint32(d))
}

// StorageClass represents a SPIR-V storage class.
type StorageClass uint32

// Storage classes.
const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassCrossWorkgroup  StorageClass = 5
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassGeneric         StorageClass = 8
	StorageClassPushConstant    StorageClass = 9
	StorageClassAtomicCounter   StorageClass = 10
	StorageClassImage           StorageClass = 11
	StorageClassStorageBuffer   StorageClass = 12
)

// String returns the storage class name from the SPIR-V grammar.
func (s StorageClass) String() string {
	return lookup(storageClassNames, uint32(s))
}

// ExecutionModel is the shader stage of an entry point.
type ExecutionModel uint32

// Execution models.
const (
	ExecutionModelVertex                 ExecutionModel = 0
	ExecutionModelTessellationControl    ExecutionModel = 1
	ExecutionModelTessellationEvaluation ExecutionModel = 2
	ExecutionModelGeometry               ExecutionModel = 3
	ExecutionModelFragment               ExecutionModel = 4
	ExecutionModelGLCompute              ExecutionModel = 5
	ExecutionModelKernel                 ExecutionModel = 6
)

// String returns the execution model name from the SPIR-V grammar.
func (m ExecutionModel) String() string {
	return lookup(executionModelNames, uint32(m))
}

// ExecutionMode configures an entry point.
type ExecutionMode uint32

// Execution modes.
const (
	ExecutionModeOriginUpperLeft ExecutionMode = 7
	ExecutionModeOriginLowerLeft ExecutionMode = 8
	ExecutionModeLocalSize       ExecutionMode = 17
	ExecutionModeLocalSizeID     ExecutionMode = 38
)

// String returns the execution mode name from the SPIR-V grammar.
func (m ExecutionMode) String() string {
	return lookup(executionModeNames, uint32(m))
}

// AddressingModel is the first operand of OpMemoryModel.
type AddressingModel uint32

// Addressing models.
const (
	AddressingModelLogical                 AddressingModel = 0
	AddressingModelPhysical32              AddressingModel = 1
	AddressingModelPhysical64              AddressingModel = 2
	AddressingModelPhysicalStorageBuffer64 AddressingModel = 5348
)

// MemoryModel is the second operand of OpMemoryModel.
type MemoryModel uint32

// Memory models.
const (
	MemoryModelSimple  MemoryModel = 0
	MemoryModelGLSL450 MemoryModel = 1
	MemoryModelOpenCL  MemoryModel = 2
	MemoryModelVulkan  MemoryModel = 3
)

// FunctionControl is the function control mask of OpFunction.
type FunctionControl uint32

// Function controls.
const (
	FunctionControlNone       FunctionControl = 0
	FunctionControlInline     FunctionControl = 1
	FunctionControlDontInline FunctionControl = 2
)

// BuiltIn identifies a built-in variable.
type BuiltIn uint32

// Built-ins used by fixtures and the validator.
const (
	BuiltInPosition           BuiltIn = 0
	BuiltInFragCoord          BuiltIn = 15
	BuiltInWorkgroupSize      BuiltIn = 25
	BuiltInGlobalInvocationID BuiltIn = 28
	BuiltInVertexIndex        BuiltIn = 42
)
