// Package valid checks parsed SPIR-V modules against a configurable rule set.
//
// Structural checks (ID bound, unique result IDs, defined result types,
// function framing, a single memory model) always run. The semantic rules
// selected by Flags run on top of them, so a Validator built with FlagsNone
// is the structural-only validator used to salvage diagnostics from a module
// that failed the full rule set.
package valid

import (
	"fmt"
	"sort"

	"github.com/gogpu/shaderd/spirv"
)

// Flags selects the semantic rules a Validator applies.
type Flags uint8

const (
	// FlagCapabilities rejects capabilities outside the allowed set.
	FlagCapabilities Flags = 1 << iota
	// FlagEntryPoints checks entry points and their execution modes.
	FlagEntryPoints
	// FlagBindings requires descriptor set and binding on resources and
	// rejects duplicate bindings.
	FlagBindings
	// FlagLayout requires explicit layout decorations on interface blocks.
	FlagLayout
	// FlagControlFlow checks basic block framing and branch targets.
	FlagControlFlow
)

const (
	// FlagsNone disables every semantic rule.
	FlagsNone Flags = 0
	// DefaultFlags enables every semantic rule.
	DefaultFlags = FlagCapabilities | FlagEntryPoints | FlagBindings | FlagLayout | FlagControlFlow
)

// Has reports whether all bits of flag are set.
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// Capabilities is the set of capabilities a module may declare.
type Capabilities map[spirv.Capability]struct{}

// NewCapabilities returns a set holding caps.
func NewCapabilities(caps ...spirv.Capability) Capabilities {
	set := make(Capabilities, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// DefaultCapabilities returns the capabilities a Vulkan compute or graphics
// shader commonly needs.
func DefaultCapabilities() Capabilities {
	return NewCapabilities(
		spirv.CapabilityMatrix,
		spirv.CapabilityShader,
		spirv.CapabilityFloat16,
		spirv.CapabilityFloat64,
		spirv.CapabilityInt8,
		spirv.CapabilityInt16,
		spirv.CapabilityInt64,
		spirv.CapabilityImageQuery,
		spirv.CapabilityDerivativeControl,
		spirv.CapabilityMultiView,
		spirv.CapabilityDrawParameters,
		spirv.CapabilityVulkanMemoryModel,
	)
}

// With returns a copy of c that also holds caps.
func (c Capabilities) With(caps ...spirv.Capability) Capabilities {
	out := make(Capabilities, len(c)+len(caps))
	for k := range c {
		out[k] = struct{}{}
	}
	for _, k := range caps {
		out[k] = struct{}{}
	}
	return out
}

// Allows reports whether c holds capability.
func (c Capabilities) Allows(capability spirv.Capability) bool {
	_, ok := c[capability]
	return ok
}

// ParseCapabilities resolves capability names such as "Int64" or
// "RayQueryKHR".
func ParseCapabilities(names []string) ([]spirv.Capability, error) {
	caps := make([]spirv.Capability, 0, len(names))
	for _, name := range names {
		c, ok := spirv.CapabilityByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown SPIR-V capability %q", name)
		}
		caps = append(caps, c)
	}
	return caps, nil
}

// Validator validates SPIR-V modules.
type Validator struct {
	flags Flags
	caps  Capabilities
}

// New creates a Validator applying flags. caps is only consulted when flags
// include FlagCapabilities.
func New(flags Flags, caps Capabilities) *Validator {
	return &Validator{flags: flags, caps: caps}
}

// Validate checks m and returns what it learned about the module. If any rule
// is violated the error is a *Error listing every diagnostic.
func (v *Validator) Validate(m *spirv.Module) (*ModuleInfo, error) {
	if m == nil {
		return nil, fmt.Errorf("module is nil")
	}

	c := newChecker(m, v.flags)
	c.checkStructure()
	if v.flags.Has(FlagCapabilities) {
		c.checkCapabilities(v.caps)
	}
	if v.flags.Has(FlagEntryPoints) {
		c.checkEntryPoints()
	}
	if v.flags.Has(FlagBindings) {
		c.checkBindings()
	}
	if v.flags.Has(FlagLayout) {
		c.checkLayout()
	}
	if v.flags.Has(FlagControlFlow) {
		c.checkControlFlow()
	}

	if len(c.diags) > 0 {
		return nil, &Error{Flags: v.flags, Diagnostics: c.diags}
	}
	return c.info(), nil
}

// ModuleInfo summarizes a validated module for code generators.
type ModuleInfo struct {
	Version      spirv.Version
	Capabilities []spirv.Capability
	EntryPoints  []EntryPointInfo
	Bindings     []Binding
	Functions    int
}

// EntryPointInfo describes one entry point.
type EntryPointInfo struct {
	Name     string
	Model    spirv.ExecutionModel
	Function uint32
	// LocalSize is the workgroup size of compute entry points, read from
	// LocalSize literals or LocalSizeId constants; zero otherwise.
	LocalSize [3]uint32
}

// Binding is a resource variable bound to a descriptor set slot.
type Binding struct {
	Group        uint32
	Binding      uint32
	Variable     uint32
	Name         string
	StorageClass spirv.StorageClass
}

func (c *checker) info() *ModuleInfo {
	m := c.m
	info := &ModuleInfo{
		Version:      m.Version,
		Capabilities: append([]spirv.Capability(nil), m.Capabilities...),
		Functions:    len(m.Functions),
	}

	for _, ep := range m.EntryPoints {
		epi := EntryPointInfo{Name: ep.Name, Model: ep.Model, Function: ep.Function}
		for _, em := range m.ExecutionModes {
			if em.Target != ep.Function || len(em.Params) != 3 {
				continue
			}
			switch {
			case em.Mode == spirv.ExecutionModeLocalSize && !em.ByID:
				copy(epi.LocalSize[:], em.Params)
			case em.Mode == spirv.ExecutionModeLocalSizeID && em.ByID:
				for i, id := range em.Params {
					epi.LocalSize[i], _ = c.constant(id)
				}
			}
		}
		info.EntryPoints = append(info.EntryPoints, epi)
	}

	for _, r := range c.resources() {
		set, hasSet := m.Decorated(r.id, spirv.DecorationDescriptorSet)
		binding, hasBinding := m.Decorated(r.id, spirv.DecorationBinding)
		if !hasSet || !hasBinding {
			continue
		}
		info.Bindings = append(info.Bindings, Binding{
			Group:        set,
			Binding:      binding,
			Variable:     r.id,
			Name:         m.Name(r.id),
			StorageClass: r.class,
		})
	}
	sort.Slice(info.Bindings, func(i, j int) bool {
		a, b := info.Bindings[i], info.Bindings[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Binding < b.Binding
	})
	return info
}
