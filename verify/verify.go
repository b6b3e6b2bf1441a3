// Package verify validates published SPIR-V modules.
//
// Validation runs in two stages. The binary stage parses the module and
// validates it with the full rule set; if that fails the module is validated
// again structurally, so that the text stage can still produce readable
// source for a human to inspect. The text stage cross-compiles the module to
// a shading language and checks the result with that language's front end.
// A strict failure always fails the call, whatever the later stages do.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/shaderd/cross"
	"github.com/gogpu/shaderd/spirv"
	"github.com/gogpu/shaderd/valid"
)

// ErrBinaryInvalid is returned when strict validation failed, even if the
// fallback let the remaining stages run.
var ErrBinaryInvalid = errors.New("binary validation failed")

// Stages reported by StageError.
const (
	StageRead       = "read"
	StageParse      = "parse"
	StageRevalidate = "revalidate"
	StageStrict     = "strict"
	StageGenerate   = "generate"
	StageWrite      = "write"
	StageCheck      = "check"
)

// StageError is the error returned by Orchestrator.Validate.
type StageError struct {
	Stage string
	Path  string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("validating %s: %s: %v", e.Path, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Report is the result of validating one module. It is only ever logged.
type Report struct {
	Path  string
	Mode  Mode
	Bytes int

	Parsed bool
	// BinaryValid is the result of strict validation.
	BinaryValid      bool
	BinaryDiagnostic string
	// FallbackUsed is set when structural-only validation ran after strict
	// validation failed.
	FallbackUsed bool

	TextRequested  bool
	TextLanguage   cross.Language
	TextPath       string
	TextValid      bool
	TextDiagnostic string
}

// Passed reports whether every requested stage succeeded.
func (r *Report) Passed() bool {
	if r.Mode == ModeNone {
		return true
	}
	return r.Parsed && r.BinaryValid && (!r.TextRequested || r.TextValid)
}

// Orchestrator runs the validation stages.
type Orchestrator struct {
	// Capabilities allowed by strict validation; nil means
	// valid.DefaultCapabilities().
	Capabilities valid.Capabilities

	// Language, Generator and Checker drive ModeCrossCompiled.
	Language  cross.Language
	Generator cross.Generator
	Checker   cross.Checker

	// TempDir receives the generated source; empty means os.TempDir().
	TempDir string
	Logger  *slog.Logger
}

// Validate validates the module at path. The report is returned alongside
// any error and describes how far validation got.
func (o *Orchestrator) Validate(ctx context.Context, path string, mode Mode) (*Report, error) {
	report := &Report{Path: path, Mode: mode}
	if mode == ModeNone {
		return report, nil
	}
	log := o.logger().With("path", path)
	fail := func(stage string, err error) (*Report, error) {
		return report, &StageError{Stage: stage, Path: path, Err: err}
	}

	log.Info("validating shader module")
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(StageRead, err)
	}
	report.Bytes = len(data)
	log.Info("read shader module", "kbytes", fmt.Sprintf("%.2f", float64(len(data))/1000))

	module, err := spirv.Parse(data)
	if err != nil {
		return fail(StageParse, err)
	}
	report.Parsed = true
	log.Info("SPIR-V parsed")

	info, strictErr := o.strict().Validate(module)
	if strictErr == nil {
		report.BinaryValid = true
		log.Info("SPIR-V validated")
	} else {
		report.BinaryDiagnostic = diagnostic(strictErr)
		log.Error("SPIR-V validation failed", "diagnostic", report.BinaryDiagnostic)

		log.Info("re-validating without any validation rules")
		report.FallbackUsed = true
		var revalidateErr error
		info, revalidateErr = valid.New(valid.FlagsNone, nil).Validate(module)
		if revalidateErr != nil {
			log.Error("SPIR-V revalidation (with zero validation flags) also failed", "error", revalidateErr)
			log.Error("SPIR-V validation failed", "diagnostic", report.BinaryDiagnostic)
			return fail(StageRevalidate, revalidateErr)
		}
	}

	if mode == ModeCrossCompiled {
		report.TextRequested = true
		report.TextLanguage = o.Language
		if stage, err := o.text(ctx, log, report, module, info); err != nil {
			report.TextDiagnostic = diagnostic(err)
			return fail(stage, err)
		}
	}

	if strictErr != nil {
		return fail(StageStrict, ErrBinaryInvalid)
	}
	return report, nil
}

// text runs the cross-compiled stage and returns the failing stage name.
func (o *Orchestrator) text(ctx context.Context, log *slog.Logger, report *Report, module *spirv.Module, info *valid.ModuleInfo) (string, error) {
	if o.Generator == nil || o.Checker == nil {
		return StageGenerate, fmt.Errorf("no cross compiler configured for %s", o.Language)
	}

	src, err := o.Generator.Generate(ctx, module, info)
	if err != nil {
		return StageGenerate, err
	}
	log.Info("output source generated", "language", o.Language.String())

	dir := o.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StageWrite, err
	}
	out := filepath.Join(dir, TextFileName(report.Path, o.Language))
	if err := os.WriteFile(out, []byte(src), 0o644); err != nil {
		return StageWrite, err
	}
	report.TextPath = out
	log.Info("wrote generated source", "to", out)

	if err := o.Checker.Check(ctx, out, src, info); err != nil {
		return StageCheck, err
	}
	report.TextValid = true
	log.Info("generated source validated", "language", o.Language.String())
	return "", nil
}

// TextFileName is the name of the generated source for the module at path:
// the module's file stem with '-' replaced by '_', and the language's
// extension.
func TextFileName(path string, lang cross.Language) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(stem, "-", "_") + "." + lang.Extension()
}

func (o *Orchestrator) strict() *valid.Validator {
	caps := o.Capabilities
	if caps == nil {
		caps = valid.DefaultCapabilities()
	}
	return valid.New(valid.DefaultFlags, caps)
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// diagnostic renders err for humans, using the validator's detailed form
// when there is one.
func diagnostic(err error) string {
	var verr *valid.Error
	if errors.As(err, &verr) {
		return verr.Emit()
	}
	return err.Error()
}
