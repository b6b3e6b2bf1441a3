package valid

import (
	"fmt"

	"github.com/gogpu/shaderd/spirv"
)

// checker holds the state of one Validate call.
type checker struct {
	m     *spirv.Module
	flags Flags
	diags []Diagnostic

	// defs maps result IDs to their defining instruction index.
	defs map[uint32]int
}

// resource is a module-scope variable that lives in a descriptor set.
type resource struct {
	id    uint32
	class spirv.StorageClass
	index int
}

func newChecker(m *spirv.Module, flags Flags) *checker {
	return &checker{
		m:     m,
		flags: flags,
		defs:  make(map[uint32]int),
	}
}

func (c *checker) addError(rule string, inst *spirv.Instruction, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Rule:        rule,
		Message:     fmt.Sprintf(format, args...),
		Instruction: inst,
	})
}

func (c *checker) inst(index int) *spirv.Instruction {
	return &c.m.Instructions[index]
}

// def returns the instruction defining id, or nil.
func (c *checker) def(id uint32) *spirv.Instruction {
	index, ok := c.defs[id]
	if !ok {
		return nil
	}
	return c.inst(index)
}

func (c *checker) label(id uint32) string {
	if name := c.m.Name(id); name != "" {
		return fmt.Sprintf("%%%d (%s)", id, name)
	}
	return fmt.Sprintf("%%%d", id)
}

// checkStructure runs the checks every module must pass regardless of flags.
func (c *checker) checkStructure() {
	const rule = "structure"
	m := c.m

	if m.Bound == 0 {
		c.addError(rule, nil, "ID bound is zero")
	}

	for i := range m.Instructions {
		id, ok := m.Instructions[i].ResultID()
		if !ok {
			continue
		}
		switch {
		case id == 0:
			c.addError(rule, c.inst(i), "result ID is zero")
		case id >= m.Bound:
			c.addError(rule, c.inst(i), "result ID %%%d is not below the ID bound %d", id, m.Bound)
		}
		if first, dup := c.defs[id]; dup {
			c.addError(rule, c.inst(i), "ID %%%d is already defined at word %d", id, m.Instructions[first].Offset)
			continue
		}
		c.defs[id] = i
	}

	for i := range m.Instructions {
		typ, ok := m.Instructions[i].ResultType()
		if !ok {
			continue
		}
		if _, defined := c.defs[typ]; !defined {
			c.addError(rule, c.inst(i), "result type %%%d is not defined", typ)
		}
	}

	open := -1
	for i := range m.Instructions {
		switch m.Instructions[i].Opcode {
		case spirv.OpFunction:
			if open >= 0 {
				c.addError(rule, c.inst(i), "function begins inside function at word %d", m.Instructions[open].Offset)
			}
			open = i
		case spirv.OpFunctionEnd:
			if open < 0 {
				c.addError(rule, c.inst(i), "OpFunctionEnd outside a function")
			}
			open = -1
		}
	}
	if open >= 0 {
		c.addError(rule, c.inst(open), "function has no OpFunctionEnd")
	}

	if n := len(m.MemoryModels); n != 1 {
		c.addError(rule, nil, "module must declare exactly one OpMemoryModel, found %d", n)
	}
}

func (c *checker) checkCapabilities(allowed Capabilities) {
	for i := range c.m.Instructions {
		inst := c.inst(i)
		if inst.Opcode != spirv.OpCapability {
			continue
		}
		capability := spirv.Capability(inst.Words[0])
		if !allowed.Allows(capability) {
			c.addError("capabilities", inst, "capability %s is not supported", capability)
		}
	}
}

func (c *checker) checkEntryPoints() {
	const rule = "entry-points"
	m := c.m

	entryFuncs := make(map[uint32]bool)
	seen := make(map[spirv.ExecutionModel]map[string]bool)
	epIndex := 0
	for i := range m.Instructions {
		inst := c.inst(i)
		if inst.Opcode != spirv.OpEntryPoint {
			continue
		}
		ep := m.EntryPoints[epIndex]
		epIndex++
		entryFuncs[ep.Function] = true

		if def := c.def(ep.Function); def == nil || def.Opcode != spirv.OpFunction {
			c.addError(rule, inst, "entry point %q targets %%%d, which is not a function", ep.Name, ep.Function)
		}

		if seen[ep.Model] == nil {
			seen[ep.Model] = make(map[string]bool)
		}
		if seen[ep.Model][ep.Name] {
			c.addError(rule, inst, "entry point %q is declared twice for %s", ep.Name, ep.Model)
		}
		seen[ep.Model][ep.Name] = true

		for _, id := range ep.Interface {
			if def := c.def(id); def == nil || def.Opcode != spirv.OpVariable {
				c.addError(rule, inst, "entry point %q lists %s in its interface, which is not a global variable", ep.Name, c.label(id))
			}
		}

		switch ep.Model {
		case spirv.ExecutionModelGLCompute:
			if !c.hasMode(ep.Function, spirv.ExecutionModeLocalSize, spirv.ExecutionModeLocalSizeID) {
				c.addError(rule, inst, "compute entry point %q has no LocalSize execution mode", ep.Name)
			}
		case spirv.ExecutionModelFragment:
			if !c.hasMode(ep.Function, spirv.ExecutionModeOriginUpperLeft) {
				c.addError(rule, inst, "fragment entry point %q must use OriginUpperLeft", ep.Name)
			}
		}
	}

	for i := range m.Instructions {
		inst := c.inst(i)
		if inst.Opcode != spirv.OpExecutionMode && inst.Opcode != spirv.OpExecutionModeID {
			continue
		}
		mode := spirv.ExecutionMode(inst.Words[1])
		if !entryFuncs[inst.Words[0]] {
			c.addError(rule, inst, "execution mode %s targets %s, which is not an entry point",
				mode, c.label(inst.Words[0]))
		}
		if inst.Opcode != spirv.OpExecutionModeID {
			continue
		}
		for _, id := range inst.Words[2:] {
			if _, ok := c.constant(id); !ok {
				c.addError(rule, inst, "execution mode %s operand %s is not a scalar constant", mode, c.label(id))
			}
		}
	}
}

// constant returns the value of the 32-bit scalar OpConstant or
// OpSpecConstant id.
func (c *checker) constant(id uint32) (uint32, bool) {
	def := c.def(id)
	if def == nil || len(def.Words) != 3 {
		return 0, false
	}
	if def.Opcode != spirv.OpConstant && def.Opcode != spirv.OpSpecConstant {
		return 0, false
	}
	return def.Words[2], true
}

func (c *checker) hasMode(fn uint32, modes ...spirv.ExecutionMode) bool {
	for _, em := range c.m.ExecutionModes {
		if em.Target != fn {
			continue
		}
		for _, mode := range modes {
			if em.Mode == mode {
				return true
			}
		}
	}
	return false
}

// resources returns the module-scope variables that need a descriptor slot.
func (c *checker) resources() []resource {
	var out []resource
	for i, inst := range c.m.Instructions {
		if inst.Opcode == spirv.OpFunction {
			break
		}
		if inst.Opcode != spirv.OpVariable {
			continue
		}
		class := spirv.StorageClass(inst.Words[2])
		switch class {
		case spirv.StorageClassUniform, spirv.StorageClassUniformConstant, spirv.StorageClassStorageBuffer:
			out = append(out, resource{id: inst.Words[1], class: class, index: i})
		}
	}
	return out
}

func (c *checker) checkBindings() {
	const rule = "bindings"
	m := c.m

	type slot struct{ set, binding uint32 }
	taken := make(map[slot]uint32)

	for _, r := range c.resources() {
		set, hasSet := m.Decorated(r.id, spirv.DecorationDescriptorSet)
		binding, hasBinding := m.Decorated(r.id, spirv.DecorationBinding)
		if !hasSet || !hasBinding {
			c.addError(rule, c.inst(r.index), "%s resource %s has no descriptor set and binding", r.class, c.label(r.id))
			continue
		}
		s := slot{set, binding}
		if other, dup := taken[s]; dup {
			c.addError(rule, c.inst(r.index), "resources %s and %s share set %d binding %d",
				c.label(other), c.label(r.id), set, binding)
			continue
		}
		taken[s] = r.id
	}
}

func (c *checker) checkLayout() {
	const rule = "layout"
	m := c.m

	for _, d := range m.Decorations {
		if d.Member >= 0 || (d.Decoration != spirv.DecorationBlock && d.Decoration != spirv.DecorationBufferBlock) {
			continue
		}
		def := c.def(d.Target)
		if def == nil || def.Opcode != spirv.OpTypeStruct {
			continue
		}

		members := def.Words[1:]
		offsets := make(map[int]bool, len(members))
		for _, md := range m.Decorations {
			if md.Target == d.Target && md.Member >= 0 && md.Decoration == spirv.DecorationOffset {
				offsets[md.Member] = true
			}
		}
		for i, memberType := range members {
			if !offsets[i] {
				c.addError(rule, def, "member %d of block %s has no Offset", i, c.label(d.Target))
			}
			mt := c.def(memberType)
			if mt == nil || (mt.Opcode != spirv.OpTypeArray && mt.Opcode != spirv.OpTypeRuntimeArray) {
				continue
			}
			if _, ok := m.Decorated(memberType, spirv.DecorationArrayStride); !ok {
				c.addError(rule, mt, "array %s in block %s has no ArrayStride", c.label(memberType), c.label(d.Target))
			}
		}
	}
}

func (c *checker) checkControlFlow() {
	const rule = "control-flow"
	m := c.m

	for _, fn := range m.Functions {
		body := fn.Body(m)
		labels := make(map[uint32]bool)
		for _, inst := range body {
			if inst.Opcode == spirv.OpLabel {
				labels[inst.Words[0]] = true
			}
		}

		var block uint32
		inBlock := false
		for i := range body {
			inst := &body[i]
			switch {
			case inst.Opcode == spirv.OpLabel:
				if inBlock {
					c.addError(rule, inst, "block %%%d in function %s does not end with a terminator", block, c.label(fn.ID))
				}
				block, inBlock = inst.Words[0], true
			case inst.Opcode == spirv.OpFunctionEnd:
				if inBlock {
					c.addError(rule, inst, "block %%%d in function %s does not end with a terminator", block, c.label(fn.ID))
				}
				inBlock = false
			case !inBlock:
				c.addError(rule, inst, "%s outside a basic block in function %s", inst.Opcode, c.label(fn.ID))
			case inst.Opcode.IsTerminator():
				inBlock = false
			}

			for _, target := range branchTargets(*inst) {
				if !labels[target] {
					c.addError(rule, inst, "branch target %%%d is not a block of function %s", target, c.label(fn.ID))
				}
			}
		}
	}
}

func branchTargets(inst spirv.Instruction) []uint32 {
	switch inst.Opcode {
	case spirv.OpBranch:
		return inst.Words[:1]
	case spirv.OpBranchConditional:
		return inst.Words[1:3]
	}
	return nil
}
