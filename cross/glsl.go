package cross

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/shaderd/internal/proc"
	"github.com/gogpu/shaderd/spirv"
	"github.com/gogpu/shaderd/valid"
)

// SPIRVCross converts SPIR-V to Vulkan GLSL with spirv-cross.
type SPIRVCross struct {
	Bin     string
	WorkDir string
	Timeout time.Duration
}

// Generate converts the first entry point of m to GLSL.
func (s *SPIRVCross) Generate(ctx context.Context, m *spirv.Module, info *valid.ModuleInfo) (string, error) {
	dir, input, cleanup, err := scratch(s.WorkDir, m)
	if err != nil {
		return "", fmt.Errorf("spirv-cross: preparing input: %w", err)
	}
	defer cleanup()

	output := filepath.Join(dir, "module.glsl")
	args := []string{input, "--vulkan-semantics", "--output", output}
	if info != nil && len(info.EntryPoints) > 0 {
		args = append(args, "--entry", info.EntryPoints[0].Name)
	}
	if _, err := proc.Run(ctx, proc.Cmd{Path: s.Bin, Args: args, Timeout: s.Timeout}); err != nil {
		return "", fmt.Errorf("spirv-cross: %w", err)
	}

	glsl, err := os.ReadFile(output)
	if err != nil {
		return "", fmt.Errorf("spirv-cross: unable to read output %q: %w", output, err)
	}
	return string(glsl), nil
}

// GLSLang validates Vulkan GLSL with glslangValidator.
type GLSLang struct {
	Bin     string
	Timeout time.Duration
}

// Check compiles src as the stage of the module's first entry point and
// discards the result.
func (g *GLSLang) Check(ctx context.Context, path, src string, info *valid.ModuleInfo) error {
	stage := "comp"
	if info != nil && len(info.EntryPoints) > 0 {
		stage = stageName(info.EntryPoints[0].Model)
	}

	_, err := proc.Run(ctx, proc.Cmd{
		Path: g.Bin,
		Args: []string{
			"--stdin",
			"-V", // Vulkan semantics.
			"-S", stage,
			"-o", os.DevNull,
		},
		Stdin:   strings.NewReader(src),
		Timeout: g.Timeout,
	})
	if err != nil {
		return fmt.Errorf("glslangValidator (%s): %w", path, err)
	}
	return nil
}

func stageName(model spirv.ExecutionModel) string {
	switch model {
	case spirv.ExecutionModelVertex:
		return "vert"
	case spirv.ExecutionModelTessellationControl:
		return "tesc"
	case spirv.ExecutionModelTessellationEvaluation:
		return "tese"
	case spirv.ExecutionModelGeometry:
		return "geom"
	case spirv.ExecutionModelFragment:
		return "frag"
	}
	return "comp"
}
