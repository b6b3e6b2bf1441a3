package wgsl

import (
	"fmt"
	"strings"
)

// typeArity gives the number of template arguments a predeclared type
// takes as [min, max]. Names absent from the map are not types.
var typeArity = map[string][2]int{
	"bool": {0, 0}, "i32": {0, 0}, "u32": {0, 0}, "f32": {0, 0}, "f16": {0, 0},

	"array":  {1, 2},
	"atomic": {1, 1},
	"ptr":    {2, 3},

	"sampler":            {0, 0},
	"sampler_comparison": {0, 0},

	"texture_1d":                     {1, 1},
	"texture_2d":                     {1, 1},
	"texture_2d_array":               {1, 1},
	"texture_3d":                     {1, 1},
	"texture_cube":                   {1, 1},
	"texture_cube_array":             {1, 1},
	"texture_multisampled_2d":        {1, 1},
	"texture_depth_2d":               {0, 0},
	"texture_depth_2d_array":         {0, 0},
	"texture_depth_cube":             {0, 0},
	"texture_depth_cube_array":       {0, 0},
	"texture_depth_multisampled_2d":  {0, 0},
	"texture_external":               {0, 0},
	"texture_storage_1d":             {2, 2},
	"texture_storage_2d":             {2, 2},
	"texture_storage_2d_array":       {2, 2},
	"texture_storage_3d":             {2, 2},
}

func init() {
	for n := 2; n <= 4; n++ {
		vec := fmt.Sprintf("vec%d", n)
		typeArity[vec] = [2]int{1, 1}
		for _, s := range "ifuh" {
			typeArity[vec+string(s)] = [2]int{0, 0}
		}
		for r := 2; r <= 4; r++ {
			mat := fmt.Sprintf("mat%dx%d", n, r)
			typeArity[mat] = [2]int{1, 1}
			typeArity[mat+"f"] = [2]int{0, 0}
			typeArity[mat+"h"] = [2]int{0, 0}
		}
	}
}

// isTemplated reports whether name is a predeclared generic, whose '<'
// always opens a template list in expressions.
func isTemplated(name string) bool {
	if name == "bitcast" {
		return true
	}
	a, ok := typeArity[name]
	return ok && a[1] > 0
}

// isHandleType reports whether a value of the named type lives in the
// handle address space.
func isHandleType(name string) bool {
	return strings.HasPrefix(name, "texture_") || strings.HasPrefix(name, "sampler")
}

// needsF16 reports whether the predeclared type name uses half floats.
func needsF16(name string) bool {
	if name == "f16" {
		return true
	}
	return (strings.HasPrefix(name, "vec") || strings.HasPrefix(name, "mat")) && strings.HasSuffix(name, "h")
}

var addressSpaces = map[string]bool{
	"function": true, "private": true, "workgroup": true, "uniform": true, "storage": true,
}

var accessModes = map[string]bool{"read": true, "write": true, "read_write": true}

var texelFormats = map[string]bool{
	"rgba8unorm": true, "rgba8snorm": true, "rgba8uint": true, "rgba8sint": true,
	"rgba16uint": true, "rgba16sint": true, "rgba16float": true,
	"r32uint": true, "r32sint": true, "r32float": true,
	"rg32uint": true, "rg32sint": true, "rg32float": true,
	"rgba32uint": true, "rgba32sint": true, "rgba32float": true,
	"bgra8unorm": true,
}

var extensions = map[string]bool{
	"f16": true, "clip_distances": true, "dual_source_blending": true,
	"subgroups": true, "primitive_index": true,
}

var stages = map[string]bool{"vertex": true, "fragment": true, "compute": true}

var builtinFuncs = map[string]bool{}

func init() {
	for _, name := range strings.Fields(`
		abs acos acosh all any arrayLength asin asinh atan atan2 atanh ceil clamp
		cos cosh countLeadingZeros countOneBits countTrailingZeros cross degrees
		determinant distance dot dot4I8Packed dot4U8Packed exp exp2 extractBits
		faceForward firstLeadingBit firstTrailingBit floor fma fract frexp
		insertBits inverseSqrt ldexp length log log2 max min mix modf normalize
		pow quantizeToF16 radians reflect refract reverseBits round saturate
		select sign sin sinh smoothstep sqrt step tan tanh transpose trunc bitcast

		dpdx dpdxCoarse dpdxFine dpdy dpdyCoarse dpdyFine fwidth fwidthCoarse fwidthFine

		textureDimensions textureGather textureGatherCompare textureLoad
		textureNumLayers textureNumLevels textureNumSamples textureSample
		textureSampleBias textureSampleCompare textureSampleCompareLevel
		textureSampleGrad textureSampleLevel textureSampleBaseClampToEdge textureStore

		atomicLoad atomicStore atomicAdd atomicSub atomicMax atomicMin atomicAnd
		atomicOr atomicXor atomicExchange atomicCompareExchangeWeak

		pack4x8snorm pack4x8unorm pack4xI8 pack4xU8 pack4xI8Clamp pack4xU8Clamp
		pack2x16snorm pack2x16unorm pack2x16float unpack4x8snorm unpack4x8unorm
		unpack4xI8 unpack4xU8 unpack2x16snorm unpack2x16unorm unpack2x16float

		storageBarrier textureBarrier workgroupBarrier workgroupUniformLoad

		subgroupAdd subgroupExclusiveAdd subgroupInclusiveAdd subgroupAll subgroupAny
		subgroupAnd subgroupOr subgroupXor subgroupBallot subgroupBroadcast
		subgroupBroadcastFirst subgroupElect subgroupMax subgroupMin subgroupMul
		subgroupExclusiveMul subgroupInclusiveMul subgroupShuffle subgroupShuffleDown
		subgroupShuffleUp subgroupShuffleXor
	`) {
		builtinFuncs[name] = true
	}
}
