package cross

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/shaderd/internal/proc"
	"github.com/gogpu/shaderd/spirv"
	"github.com/gogpu/shaderd/valid"
)

// NagaCLI drives the naga command line tool to convert SPIR-V to WGSL.
type NagaCLI struct {
	Bin     string
	WorkDir string
	Timeout time.Duration
}

// Generate converts m to WGSL. naga's own validation is disabled: the module
// has already been through package valid, possibly only structurally.
func (n *NagaCLI) Generate(ctx context.Context, m *spirv.Module, _ *valid.ModuleInfo) (string, error) {
	dir, input, cleanup, err := scratch(n.WorkDir, m)
	if err != nil {
		return "", fmt.Errorf("naga: preparing input: %w", err)
	}
	defer cleanup()

	output := filepath.Join(dir, "module.wgsl")
	_, err = proc.Run(ctx, proc.Cmd{
		Path:    n.Bin,
		Args:    []string{input, output, "--validate", "0"},
		Timeout: n.Timeout,
	})
	if err != nil {
		return "", fmt.Errorf("naga: %w", err)
	}

	wgsl, err := os.ReadFile(output)
	if err != nil {
		return "", fmt.Errorf("naga: unable to read output %q: %w", output, err)
	}
	return string(wgsl), nil
}
