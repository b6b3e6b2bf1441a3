package cross

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderd/spirv"
	"github.com/gogpu/shaderd/spirv/spirvtest"
	"github.com/gogpu/shaderd/valid"
)

// fakeTool writes an executable shell script standing in for an external tool.
func fakeTool(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

// fakeNaga writes a fixed compute shader to its output path.
const fakeNaga = `
test -s "$1" || { echo "empty input" >&2; exit 2; }
echo "@compute @workgroup_size(64) fn main_cs() {}" > "$2"
`

func computeModule(t *testing.T) (*spirv.Module, *valid.ModuleInfo) {
	t.Helper()
	m, err := spirv.Parse(spirvtest.Compute(spirvtest.Options{}))
	require.NoError(t, err)
	info, err := valid.New(valid.DefaultFlags, valid.DefaultCapabilities()).Validate(m)
	require.NoError(t, err)
	return m, info
}

func TestNagaCLI_Generate(t *testing.T) {
	m, info := computeModule(t)
	work := t.TempDir()
	naga := &NagaCLI{Bin: fakeTool(t, "naga", fakeNaga), WorkDir: work}

	src, err := naga.Generate(context.Background(), m, info)
	require.NoError(t, err)
	assert.Contains(t, src, "fn main_cs()")

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory should be removed")
}

func TestWGSLChecker(t *testing.T) {
	_, info := computeModule(t)
	var chk WGSLChecker

	src := `
@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(64)
fn main_cs(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = data[id.x] * 2u;
}
`
	assert.NoError(t, chk.Check(context.Background(), "good.wgsl", src, info))

	err := chk.Check(context.Background(), "bad.wgsl", "fn main() { broken }", info)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.wgsl")

	err = chk.Check(context.Background(), "loop.wgsl", "@compute @workgroup_size(1) fn main_cs() { break; }", info)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "break outside of loop")
}

func TestWGSLChecker_MissingEntryPoint(t *testing.T) {
	_, info := computeModule(t)
	src := "@fragment fn main_fs() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }"

	err := WGSLChecker{}.Check(context.Background(), "shader.wgsl", src, info)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 @compute entry points, module has 1")
}

func TestWGSLChecker_GeneratedByNaga(t *testing.T) {
	m, info := computeModule(t)
	gen, check, err := Tools{Naga: fakeTool(t, "naga", fakeNaga), WorkDir: t.TempDir()}.For(WGSL)
	require.NoError(t, err)

	src, err := gen.Generate(context.Background(), m, info)
	require.NoError(t, err)
	assert.NoError(t, check.Check(context.Background(), "module.wgsl", src, info))
}

func TestSPIRVCross_Generate(t *testing.T) {
	m, info := computeModule(t)
	// Echo the entry point argument into the output so the test can see it.
	script := `
while [ $# -gt 0 ]; do
	case "$1" in
	--output) out="$2"; shift ;;
	--entry) entry="$2"; shift ;;
	esac
	shift
done
echo "#version 450 // $entry" > "$out"
`
	sc := &SPIRVCross{Bin: fakeTool(t, "spirv-cross", script), WorkDir: t.TempDir()}

	src, err := sc.Generate(context.Background(), m, info)
	require.NoError(t, err)
	assert.Equal(t, "#version 450 // main_cs\n", src)
}

func TestGLSLang_Check(t *testing.T) {
	// Fail unless the stage is frag and the source arrives on stdin.
	script := `
while [ $# -gt 0 ]; do
	case "$1" in
	-S) stage="$2"; shift ;;
	esac
	shift
done
test "$stage" = frag || { echo "wrong stage $stage" >&2; exit 1; }
grep -q "#version" || { echo "no source" >&2; exit 1; }
`
	g := &GLSLang{Bin: fakeTool(t, "glslangValidator", script)}
	info := &valid.ModuleInfo{EntryPoints: []valid.EntryPointInfo{{Name: "main_fs", Model: spirv.ExecutionModelFragment}}}

	assert.NoError(t, g.Check(context.Background(), "shader.glsl", "#version 450\nvoid main() {}\n", info))

	info.EntryPoints[0].Model = spirv.ExecutionModelVertex
	err := g.Check(context.Background(), "shader.glsl", "#version 450\n", info)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong stage vert")
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"wgsl", WGSL, false},
		{" GLSL ", GLSL, false},
		{"hlsl", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLanguage(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "wgsl", WGSL.Extension())
}

func TestTools_For(t *testing.T) {
	tools := DefaultTools()

	gen, check, err := tools.For(WGSL)
	require.NoError(t, err)
	assert.IsType(t, &NagaCLI{}, gen)
	assert.IsType(t, WGSLChecker{}, check)

	gen, check, err = tools.For(GLSL)
	require.NoError(t, err)
	assert.IsType(t, &SPIRVCross{}, gen)
	assert.IsType(t, &GLSLang{}, check)

	_, _, err = tools.For(Language(9))
	assert.Error(t, err)
}
