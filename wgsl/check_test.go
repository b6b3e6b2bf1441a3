package wgsl

import (
	"errors"
	"strings"
	"testing"
)

const validShader = `
enable f16;

struct VertexOut {
    @builtin(position) pos: vec4<f32>,
    @location(0) color: vec4f,
}

struct Params {
    scale: f32,
    count: u32,
}

const N: u32 = 4u;
override blockSize: u32 = 64u;

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read_write> data: array<f32>;
@group(1) @binding(0) var tex: texture_2d<f32>;
@group(1) @binding(1) var samp: sampler;
var<workgroup> scratch: array<f32, N>;
var<private> seed: u32 = 1u;

alias Color = vec4<f32>;

fn scale(v: f32) -> f32 {
    return v * params.scale;
}

fn classify(i: u32) -> u32 {
    switch i {
        case 0u, 1u: { return 0u; }
        default: { return 1u; }
    }
}

@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> VertexOut {
    var out: VertexOut;
    let x = f32(idx) - 1.0;
    out.pos = vec4<f32>(x, 0.0, 0.0, 1.0);
    out.color = Color(1.0, 1.0, 1.0, 1.0);
    return out;
}

@fragment
fn fs_main(input: VertexOut) -> @location(0) vec4<f32> {
    let h: f16 = 1.0h;
    if input.color.a < 0.5 {
        discard;
    }
    return textureSample(tex, samp, input.pos.xy) * f32(h);
}

@compute @workgroup_size(64, 1, 1)
fn cs_main(@builtin(global_invocation_id) id: vec3<u32>) {
    var i = 0u;
    loop {
        if i >= N { break; }
        scratch[i] = scale(data[i]);
        continuing {
            i++;
        }
    }
    for (var j = 0u; j < params.count; j += 1u) {
        switch j {
            case 2u: { break; }
            default: { continue; }
        }
        data[j] = data[j] + f32(classify(j));
    }
    while i > 0u {
        i--;
    }
    workgroupBarrier();
    _ = seed;
}
`

func TestCheckValidShader(t *testing.T) {
	m, err := Validate(validShader)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	eps := m.EntryPoints()
	if len(eps) != 3 {
		t.Fatalf("got %d entry points, want 3", len(eps))
	}
	want := []struct{ name, stage string }{{"vs_main", "vertex"}, {"fs_main", "fragment"}, {"cs_main", "compute"}}
	for i, w := range want {
		if eps[i].Name != w.name || eps[i].Stage != w.stage {
			t.Errorf("entry point %d = %s %s, want %s %s", i, eps[i].Stage, eps[i].Name, w.stage, w.name)
		}
	}
	if eps[2].WorkgroupSize != [3]int64{64, 1, 1} {
		t.Errorf("workgroup size = %v", eps[2].WorkgroupSize)
	}

	if got := len(m.Bindings()); got != 4 {
		t.Errorf("got %d bindings, want 4", got)
	}
}

func TestCheckMinimalCompute(t *testing.T) {
	m, err := Validate("@compute @workgroup_size(64) fn main_cs() {}")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if ep := m.EntryPoints()[0]; ep.WorkgroupSize != [3]int64{64, 1, 1} {
		t.Errorf("workgroup size = %v", ep.WorkgroupSize)
	}
}

func TestCheckConstBindings(t *testing.T) {
	m, err := Validate(`
const G = 2;
@group(G) @binding(0x3) var<uniform> u: vec4<f32>;
`)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	b := m.Bindings()
	if len(b) != 1 || b[0].Group != 2 || b[0].Binding != 3 || b[0].Name != "u" {
		t.Errorf("bindings = %+v", b)
	}
}

// messages joins every diagnostic so a test can look for one among several.
func messages(t *testing.T, err error) string {
	t.Helper()
	var list ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("error %v is not an ErrorList", err)
	}
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"duplicate binding", `
@group(0) @binding(0) var<uniform> a: f32;
@group(0) @binding(0) var<uniform> b: f32;`, "duplicate binding @group(0) @binding(0)"},
		{"missing binding", "var<storage> buf: array<u32>;", "requires @group and @binding"},
		{"binding on private", "@group(0) @binding(0) var<private> p: f32;", "cannot have @group or @binding"},
		{"access on uniform", "@group(0) @binding(0) var<uniform, read> u: f32;", "only allowed in the storage address space"},
		{"function space at module scope", "var<function> f: f32;", "cannot be in the function address space"},
		{"vertex without position", "@vertex fn vs() -> @location(0) vec4<f32> { return vec4<f32>(0.0); }", "must return @builtin(position)"},
		{"vertex without result", "@vertex fn vs() {}", "must have a return value"},
		{"compute without workgroup size", "@compute fn cs() {}", "requires @workgroup_size"},
		{"zero workgroup size", "@compute @workgroup_size(0) fn cs() {}", "workgroup size must be non-zero"},
		{"two stages", "@vertex @fragment fn f() -> @builtin(position) vec4<f32> { return vec4<f32>(); }", "more than one stage attribute"},
		{"entry parameter without io", "@vertex fn vs(i: u32) -> @builtin(position) vec4<f32> { return vec4<f32>(); }", `parameter "i" needs @builtin or @location`},
		{"unresolved identifier", "fn f() -> f32 { return y; }", `unresolved identifier "y"`},
		{"unresolved type", "var<private> x: float4;", `unresolved type "float4"`},
		{"unresolved function", "fn f() { frobnicate(); }", `unresolved function "frobnicate"`},
		{"type as value", "fn f() { let a = f32; }", `type "f32" used as a value`},
		{"template arity", "var<private> v: vec4<f32, 2>;", "takes 1 template arguments, got 2"},
		{"f16 without enable", "var<private> h: f16;", "requires 'enable f16'"},
		{"break outside loop", "fn f() { break; }", "break outside of loop"},
		{"continue outside loop", "fn f(x: i32) { switch x { default: { continue; } } }", "continue outside of loop"},
		{"return in continuing", "fn f() { loop { continuing { return; } } }", "return in continuing block"},
		{"continue in continuing", "fn f() { loop { continuing { continue; } } }", "continue in continuing block"},
		{"switch without default", "fn f(x: i32) { switch x { case 0: {} } }", "switch missing default case"},
		{"switch with two defaults", "fn f(x: i32) { switch x { default: {} case 1, default: {} } }", "switch has multiple default cases"},
		{"assign to let", "fn f() { let a = 1; a = 2; }", `cannot assign to let "a"`},
		{"assign to parameter", "fn f(p: i32) { p++; }", `cannot assign to parameter "p"`},
		{"assign to const", "const k = 1;\nfn f() { k = 2; }", `cannot assign to const "k"`},
		{"assign to uniform", "@group(0) @binding(0) var<uniform> u: f32;\nfn f() { u = 1.0; }", `cannot assign to uniform variable "u"`},
		{"assign to read-only storage", "@group(0) @binding(0) var<storage> s: array<u32>;\nfn f() { s[0] = 1u; }", "cannot assign to read-only storage variable"},
		{"recursion", "fn a() { b(); }\nfn b() { a(); }", `function "a" is recursive`},
		{"call entry point", "@compute @workgroup_size(1) fn cs() {}\nfn f() { cs(); }", "is an entry point and cannot be called"},
		{"wrong arity", "fn g(a: i32) {}\nfn f() { g(); }", `function "g" takes 1 arguments, got 0`},
		{"module redeclaration", "const a = 1;\nconst a = 2;", `redeclaration of "a"`},
		{"local redeclaration", "fn f(a: i32) { let a = 1; }", `redeclaration of "a"`},
		{"duplicate member", "struct S { a: f32, a: f32 }", "duplicate member name"},
		{"recursive struct", "struct S { next: S }", `type "S" refers to itself`},
		{"missing return", "fn f() -> i32 { }", "must end with a return statement"},
		{"return value from void", "fn f() { return 1; }", "does not return a value"},
		{"unknown extension", "enable warp_drive;", `unknown extension "warp_drive"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := messages(t, err); !strings.Contains(got, tt.want) {
				t.Errorf("errors:\n%s\ndo not mention %q", got, tt.want)
			}
		})
	}
}

func TestCheckAllowsShadowingInNestedScope(t *testing.T) {
	_, err := Validate("fn f(a: i32) -> i32 {\n    { let a = 2; }\n    return a;\n}")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckReportsEveryError(t *testing.T) {
	_, err := Validate("fn f() { break; }\nfn g() { continue; }")
	var list ErrorList
	if !errors.As(err, &list) || len(list) != 2 {
		t.Fatalf("got %v, want two errors", err)
	}
	if list[0].Pos.Line != 1 || list[1].Pos.Line != 2 {
		t.Errorf("errors not in source order: %v", list)
	}
}
