// Package shaderd builds, publishes and validates SPIR-V shaders.
//
// A shaderd daemon watches a shader project, runs the external
// source-to-SPIR-V compiler whenever a file changes, copies the resulting
// module(s) to their destination and optionally validates what it copied:
// the SPIR-V binary is checked by package valid, and can additionally be
// cross-compiled to WGSL or GLSL whose text is checked by an external tool.
//
// Most programs only need the two entry points here:
//
//	cfg, _ := config.Load("shaderd.yaml", false)
//	driver, _ := shaderd.NewDriver(cfg, shaderd.DriverOptions{})
//	err := driver.Run(ctx)
//
// and, for a one-shot check of a module on disk:
//
//	report, err := shaderd.ValidateFile(ctx, "shader.spv", shaderd.ValidateOptions{Mode: "wgsl"})
package shaderd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/gogpu/shaderd/builder"
	"github.com/gogpu/shaderd/config"
	"github.com/gogpu/shaderd/cross"
	"github.com/gogpu/shaderd/daemon"
	"github.com/gogpu/shaderd/notify"
	"github.com/gogpu/shaderd/publish"
	"github.com/gogpu/shaderd/toolchain"
	"github.com/gogpu/shaderd/valid"
	"github.com/gogpu/shaderd/verify"
)

// ValidateOptions configures ValidateFile.
type ValidateOptions struct {
	// Mode is none, spirv, wgsl or glsl. Empty means spirv.
	Mode string
	// Capabilities extends the capabilities accepted by strict validation.
	Capabilities []string
	// Tools defaults to cross.DefaultTools().
	Tools   *cross.Tools
	TempDir string
	Logger  *slog.Logger
}

// ValidateFile validates the SPIR-V module at path.
func ValidateFile(ctx context.Context, path string, opts ValidateOptions) (*verify.Report, error) {
	mode := opts.Mode
	if mode == "" {
		mode = "spirv"
	}
	tools := cross.DefaultTools()
	if opts.Tools != nil {
		tools = *opts.Tools
	}
	o, m, err := newOrchestrator(mode, opts.Capabilities, tools, opts.TempDir, opts.Logger)
	if err != nil {
		return nil, err
	}
	return o.Validate(ctx, path, m)
}

// newOrchestrator parses mode and builds the matching orchestrator.
func newOrchestrator(mode string, extraCaps []string, tools cross.Tools, tempDir string, log *slog.Logger) (*verify.Orchestrator, verify.Mode, error) {
	m, lang, err := verify.ParseMode(mode)
	if err != nil {
		return nil, verify.ModeNone, err
	}
	extra, err := valid.ParseCapabilities(extraCaps)
	if err != nil {
		return nil, verify.ModeNone, err
	}
	o := &verify.Orchestrator{
		Capabilities: valid.DefaultCapabilities().With(extra...),
		TempDir:      tempDir,
		Logger:       log,
	}
	if m == verify.ModeCrossCompiled {
		gen, check, err := tools.For(lang)
		if err != nil {
			return nil, verify.ModeNone, err
		}
		o.Language, o.Generator, o.Checker = lang, gen, check
	}
	return o, m, nil
}

// DriverOptions are the runtime collaborators of a Driver that do not come
// from the configuration file.
type DriverOptions struct {
	Logger *slog.Logger
	// Events receives build events; nil discards them.
	Events notify.Publisher
	// Environ is the environment the compiler starts from; nil means
	// os.Environ().
	Environ []string
	// CompilerOutput receives the compiler's diagnostics; nil means os.Stderr.
	CompilerOutput io.Writer
	// GOOS defaults to runtime.GOOS.
	GOOS string
}

// NewDriver wires the compiler, watcher, publisher and validator described by
// cfg into a Driver.
func NewDriver(cfg config.Config, opts DriverOptions) (*daemon.Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	stderr := opts.CompilerOutput
	if stderr == nil {
		stderr = os.Stderr
	}

	tc, err := cfg.Toolchain(goos)
	if err != nil {
		return nil, fmt.Errorf("reading toolchain: %w", err)
	}
	compiler := &builder.CommandCompiler{
		Bin:     cfg.Compiler.Bin,
		Env:     toolchain.Env(environ, tc),
		Stderr:  stderr,
		Timeout: cfg.Compiler.Timeout,
	}

	pubOpts := publish.Options{Logger: log.With("component", "publish")}
	if s3, ok := cfg.S3(); ok {
		mirror, err := publish.NewS3Mirror(s3)
		if err != nil {
			return nil, fmt.Errorf("configuring mirror: %w", err)
		}
		pubOpts.Mirror = mirror
	}
	publisher, err := publish.New(pubOpts)
	if err != nil {
		return nil, err
	}

	tools := cfg.Tools()
	orchestrator, mode, err := newOrchestrator(cfg.Validation.Mode, cfg.StrictCapabilities(), tools, cfg.Validation.TempDir, log.With("component", "verify"))
	if err != nil {
		return nil, err
	}

	// Publishing into the project must not look like a source change.
	policy := cfg.Policy()
	ignore := append([]string{}, cfg.Watch.Ignore...)
	if policy.IsExplicit() {
		ignore = append(ignore, policy.Output())
	}
	watcher := &builder.Watcher{
		Compiler: compiler,
		Config:   cfg.BuildConfig(),
		Debounce: cfg.Watch.Debounce,
		Ignore:   ignore,
		Logger:   log.With("component", "watch"),
	}
	driver := &daemon.Driver{
		Source:    watcher,
		Publisher: publisher,
		Policy:    policy,
		Mode:      mode,
		Events:    opts.Events,
		Logger:    log,
	}
	if mode != verify.ModeNone {
		driver.Validator = orchestrator
	}
	watcher.OnError = driver.CompileFailed
	return driver, nil
}
