package spirv

import (
	"encoding/binary"
	"testing"
)

func TestModuleBuilder_MinimalModule(t *testing.T) {
	builder := NewModuleBuilder(Version1_3)
	builder.AddCapability(CapabilityShader)
	builder.SetMemoryModel(AddressingModelLogical, MemoryModelGLSL450)

	data := builder.Build()

	// Header (5 words) + OpCapability (2 words) + OpMemoryModel (3 words)
	if len(data) != 40 {
		t.Fatalf("Module size: got %d bytes, want 40", len(data))
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != MagicNumber {
		t.Errorf("Invalid magic number: got 0x%08X, want 0x%08X", magic, MagicNumber)
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	expectedVersion := uint32(1<<16 | 3<<8) // Version 1.3
	if version != expectedVersion {
		t.Errorf("Invalid version: got 0x%08X, want 0x%08X", version, expectedVersion)
	}

	bound := binary.LittleEndian.Uint32(data[12:16])
	if bound != 1 {
		t.Errorf("Bound: got %d, want 1 (no IDs allocated)", bound)
	}

	capability := binary.LittleEndian.Uint32(data[20:24])
	if capability != 2<<16|uint32(OpCapability) {
		t.Errorf("First instruction word: got 0x%08X", capability)
	}
}

func TestModuleBuilder_SetBound(t *testing.T) {
	builder := NewModuleBuilder(Version1_0)
	builder.AddTypeVoid()
	builder.SetBound(1)

	data := builder.Build()
	if bound := binary.LittleEndian.Uint32(data[12:16]); bound != 1 {
		t.Errorf("Bound: got %d, want 1", bound)
	}
}

func TestEncodeString(t *testing.T) {
	tests := []struct {
		in    string
		words int
	}{
		{"", 1},
		{"abc", 1},
		{"abcd", 2},
		{"GLSL.std.450", 4},
	}
	for _, tt := range tests {
		got := encodeString(tt.in)
		if len(got) != tt.words {
			t.Errorf("encodeString(%q): got %d words, want %d", tt.in, len(got), tt.words)
		}
		decoded, next, err := decodeString(Instruction{Words: got}, 0)
		if err != nil || decoded != tt.in || next != tt.words {
			t.Errorf("decodeString(encodeString(%q)) = %q, %d, %v", tt.in, decoded, next, err)
		}
	}
}
