// Package spirvtest builds small SPIR-V modules for tests.
package spirvtest

import (
	"github.com/gogpu/shaderd/spirv"
)

// Options tweak the compute module built by Compute.
type Options struct {
	// Capabilities are declared in addition to Shader.
	Capabilities []spirv.Capability

	// OmitLocalSize drops the LocalSize execution mode of the entry point.
	OmitLocalSize bool

	// LocalSizeID declares the workgroup size with OpExecutionModeId
	// LocalSizeId constants instead of LocalSize literals.
	LocalSizeID bool

	// DuplicateBinding adds a second buffer at descriptor set 0, binding 0.
	DuplicateBinding bool

	// MissingOffset leaves the buffer block member without an Offset.
	MissingOffset bool

	// Unterminated leaves the entry function's block without a terminator.
	Unterminated bool

	// EntryName overrides the entry point name (default "main_cs").
	EntryName string
}

// Compute returns a compute shader with one storage buffer and an empty
// entry point. With zero Options the module passes strict validation.
func Compute(opts Options) []byte {
	return ComputeBuilder(opts).Build()
}

// ComputeBuilder is Compute without the final Build, for tests that need to
// add or corrupt instructions.
func ComputeBuilder(opts Options) *spirv.ModuleBuilder {
	b := spirv.NewModuleBuilder(spirv.Version1_3)
	b.AddCapability(spirv.CapabilityShader)
	for _, c := range opts.Capabilities {
		b.AddCapability(c)
	}
	b.AddExtension("SPV_KHR_storage_buffer_storage_class")
	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)

	voidType := b.AddTypeVoid()
	fnType := b.AddTypeFunction(voidType)
	uintType := b.AddTypeInt(32, false)
	rta := b.AddTypeRuntimeArray(uintType)
	b.AddDecorate(rta, spirv.DecorationArrayStride, 4)
	block := b.AddTypeStruct(rta)
	b.AddDecorate(block, spirv.DecorationBlock)
	if !opts.MissingOffset {
		b.AddMemberDecorate(block, 0, spirv.DecorationOffset, 0)
	}
	ptr := b.AddTypePointer(spirv.StorageClassStorageBuffer, block)

	buffer := b.AddVariable(ptr, spirv.StorageClassStorageBuffer)
	b.AddName(buffer, "data")
	b.AddDecorate(buffer, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(buffer, spirv.DecorationBinding, 0)

	if opts.DuplicateBinding {
		other := b.AddVariable(ptr, spirv.StorageClassStorageBuffer)
		b.AddName(other, "shadow")
		b.AddDecorate(other, spirv.DecorationDescriptorSet, 0)
		b.AddDecorate(other, spirv.DecorationBinding, 0)
	}

	fn := b.AddFunction(fnType, voidType, spirv.FunctionControlNone)
	b.AddLabel()
	if !opts.Unterminated {
		b.AddReturn()
	}
	b.AddFunctionEnd()

	name := opts.EntryName
	if name == "" {
		name = "main_cs"
	}
	b.AddName(fn, name)
	b.AddEntryPoint(spirv.ExecutionModelGLCompute, fn, name, nil)
	switch {
	case opts.OmitLocalSize:
	case opts.LocalSizeID:
		x, one := b.AddConstant(uintType, 64), b.AddConstant(uintType, 1)
		b.AddExecutionModeID(fn, spirv.ExecutionModeLocalSizeID, x, one, one)
	default:
		b.AddExecutionMode(fn, spirv.ExecutionModeLocalSize, 64, 1, 1)
	}
	return b
}

// Fragment returns a fragment shader writing a constant color to location 0.
func Fragment() []byte {
	b := spirv.NewModuleBuilder(spirv.Version1_3)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)

	voidType := b.AddTypeVoid()
	fnType := b.AddTypeFunction(voidType)
	f32 := b.AddTypeFloat(32)
	vec4 := b.AddTypeVector(f32, 4)
	outPtr := b.AddTypePointer(spirv.StorageClassOutput, vec4)
	color := b.AddVariable(outPtr, spirv.StorageClassOutput)
	b.AddName(color, "color")
	b.AddDecorate(color, spirv.DecorationLocation, 0)
	one := b.AddConstantFloat32(f32, 1)
	white := b.AddConstantComposite(vec4, one, one, one, one)

	fn := b.AddFunction(fnType, voidType, spirv.FunctionControlNone)
	b.AddLabel()
	b.AddStore(color, white)
	b.AddReturn()
	b.AddFunctionEnd()

	b.AddEntryPoint(spirv.ExecutionModelFragment, fn, "main_fs", []uint32{color})
	b.AddExecutionMode(fn, spirv.ExecutionModeOriginUpperLeft)
	return b.Build()
}
