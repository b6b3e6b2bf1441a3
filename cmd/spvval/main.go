// Command spvval validates SPIR-V modules the way the shaderd daemon does.
//
// Usage:
//
//	spvval [options] <module.spv>...
//
// Examples:
//
//	spvval shader.spv                 # Strict SPIR-V validation
//	spvval -mode wgsl shader.spv      # Also cross-compile to WGSL and validate
//	spvval -caps Int8,Float16 a.spv   # Accept extra capabilities
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gogpu/shaderd"
	"github.com/gogpu/shaderd/internal/logging"
	"github.com/gogpu/shaderd/verify"
)

var (
	mode    = flag.String("mode", "spirv", "validation: spirv, wgsl or glsl")
	caps    = flag.String("caps", "", "comma-separated extra capabilities")
	tempDir = flag.String("tmp", "", "directory for generated source (default: OS temp dir)")
	verbose = flag.Bool("v", false, "log every validation step")
)

var (
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FD787"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	log := logging.New(os.Stderr, logging.Options{Level: level})

	var extra []string
	if *caps != "" {
		for _, c := range strings.Split(*caps, ",") {
			extra = append(extra, strings.TrimSpace(c))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	failed := 0
	for _, path := range flag.Args() {
		report, err := shaderd.ValidateFile(ctx, path, shaderd.ValidateOptions{
			Mode:         *mode,
			Capabilities: extra,
			TempDir:      *tempDir,
			Logger:       log,
		})
		if report == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(render(report, err))
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func render(r *verify.Report, err error) string {
	lines := []string{titleStyle.Render(r.Path)}
	if r.Bytes > 0 {
		lines = append(lines, fmt.Sprintf("size        %.2f KB", float64(r.Bytes)/1000))
	}
	lines = append(lines, "parse       "+mark(r.Parsed, !r.Parsed && err != nil))

	binary := mark(r.BinaryValid, r.Parsed)
	if r.FallbackUsed {
		binary += skipStyle.Render("  (structural checks passed)")
	}
	lines = append(lines, "spirv       "+binary)

	if r.TextRequested {
		text := mark(r.TextValid, r.TextPath != "" || err != nil)
		if r.TextPath != "" {
			text += skipStyle.Render("  " + r.TextPath)
		}
		lines = append(lines, fmt.Sprintf("%-12s%s", r.TextLanguage, text))
	}

	for _, diag := range []string{r.BinaryDiagnostic, r.TextDiagnostic} {
		if diag != "" {
			lines = append(lines, "", strings.TrimRight(diag, "\n"))
		}
	}
	if err != nil && r.BinaryDiagnostic == "" && r.TextDiagnostic == "" {
		lines = append(lines, "", err.Error())
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// mark renders a pass/fail cell; stages that never ran are shown as skipped.
func mark(ok, ran bool) string {
	switch {
	case ok:
		return okStyle.Render("ok")
	case ran:
		return failStyle.Render("FAILED")
	}
	return skipStyle.Render("skipped")
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: spvval [options] <module.spv>...\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  spvval shader.spv                Strict SPIR-V validation\n")
	fmt.Fprintf(os.Stderr, "  spvval -mode wgsl shader.spv     Also validate through WGSL\n")
}
