// Package spirv reads and writes the SPIR-V binary format.
//
// Parse decodes a binary into a Module: the full instruction stream plus
// views over the module-level sections (capabilities, entry points, names,
// decorations, functions). It checks framing only; semantic rules live in
// package valid.
//
//	m, err := spirv.Parse(data)
//	if err != nil {
//		return err
//	}
//	for _, ep := range m.EntryPoints {
//		fmt.Println(ep.Model, ep.Name)
//	}
//
// # Binary Writer
//
// ModuleBuilder constructs modules programmatically. It is mostly used to
// build fixtures, see package spirvtest:
//
//	b := spirv.NewModuleBuilder(spirv.Version1_3)
//	b.AddCapability(spirv.CapabilityShader)
//	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)
//	binary := b.Build()
//
// # Disassembly
//
// Disassemble prints a Module in the familiar .spvasm text form.
package spirv
