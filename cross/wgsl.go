package cross

import (
	"context"
	"fmt"

	"github.com/gogpu/shaderd/spirv"
	"github.com/gogpu/shaderd/valid"
	"github.com/gogpu/shaderd/wgsl"
)

// WGSLChecker parses and checks WGSL in process with package wgsl, then
// makes sure the text still declares the module's entry points.
type WGSLChecker struct{}

// Check validates src. path is used in messages only.
func (WGSLChecker) Check(ctx context.Context, path, src string, info *valid.ModuleInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := wgsl.Validate(src)
	if err != nil {
		return fmt.Errorf("wgsl %s: %w", path, err)
	}
	if info == nil {
		return nil
	}

	have := make(map[string]int)
	for _, ep := range m.EntryPoints() {
		have[ep.Stage]++
	}
	want := make(map[string]int)
	for _, ep := range info.EntryPoints {
		if st := wgslStage(ep.Model); st != "" {
			want[st]++
		}
	}
	for _, st := range []string{"vertex", "fragment", "compute"} {
		if have[st] < want[st] {
			return fmt.Errorf("wgsl %s: %d @%s entry points, module has %d", path, have[st], st, want[st])
		}
	}
	return nil
}

func wgslStage(model spirv.ExecutionModel) string {
	switch model {
	case spirv.ExecutionModelVertex:
		return "vertex"
	case spirv.ExecutionModelFragment:
		return "fragment"
	case spirv.ExecutionModelGLCompute:
		return "compute"
	}
	return ""
}
