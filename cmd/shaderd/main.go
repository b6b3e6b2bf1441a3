// Command shaderd watches a shader project, recompiles it on change and
// publishes the SPIR-V it produces.
//
// Usage:
//
//	shaderd [options] [project]
//
// Examples:
//
//	shaderd ./shaders                          # Watch, publish to ./shaders/compiled
//	shaderd -o assets/shader.spv ./shaders     # Publish to an explicit path
//	shaderd -validate wgsl ./shaders           # Also cross-compile and validate
//	shaderd -events 127.0.0.1:7070 ./shaders   # Serve hot-reload events
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/shaderd"
	"github.com/gogpu/shaderd/config"
	"github.com/gogpu/shaderd/internal/logging"
	"github.com/gogpu/shaderd/notify"
)

var (
	configPath   = flag.String("config", config.DefaultFile, "configuration file")
	output       = flag.String("o", "", "publish the module to this exact path")
	validateMode = flag.String("validate", "", "validation: none, spirv, wgsl or glsl")
	target       = flag.String("target", "", "compile target")
	multimodule  = flag.Bool("multimodule", false, "emit one module per entry point")
	debug        = flag.Bool("debug", false, "build debug shaders")
	denyWarnings = flag.Bool("deny-warnings", false, "treat compiler warnings as errors")
	events       = flag.String("events", "", "serve build events on this address")
	logLevel     = flag.String("log-level", "", "debug, info, warn or error")
	noColor      = flag.Bool("no-color", false, "disable colored log output")
	printConfig  = flag.Bool("print-config", false, "print the default configuration and exit")
	version      = flag.Bool("version", false, "print version")
)

const shaderdVersion = "0.1.0-dev"

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("shaderd version %s\n", shaderdVersion)
		return
	}
	if *printConfig {
		fmt.Print(config.DefaultYAML)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	cfg, err := config.Load(*configPath, explicit)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	applyFlags(&cfg)

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, logging.Options{Level: level, Plain: *noColor})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *notify.Hub
	opts := shaderd.DriverOptions{Logger: log}
	if cfg.Events.Listen != "" {
		hub = notify.NewHub(log.With("component", "events"))
		opts.Events = hub
	}

	driver, err := shaderd.NewDriver(cfg, opts)
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	if hub != nil {
		go func() {
			if err := hub.Serve(ctx, cfg.Events.Listen, cfg.Events.Path); err != nil {
				errc <- fmt.Errorf("event server: %w", err)
				stop()
			}
		}()
	}

	if err := driver.Run(ctx); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	default:
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		log.Info("stopped")
	}
	return nil
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cfg *config.Config) {
	if flag.NArg() > 0 {
		cfg.Project = flag.Arg(0)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			cfg.Output = *output
		case "validate":
			cfg.Validation.Mode = *validateMode
		case "target":
			cfg.Build.Target = *target
		case "multimodule":
			cfg.Build.MultiModule = *multimodule
		case "debug":
			cfg.Build.Debug = *debug
		case "deny-warnings":
			cfg.Build.DenyWarnings = *denyWarnings
		case "events":
			cfg.Events.Listen = *events
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: shaderd [options] [project]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nConfiguration is read from %s, then SHADERD_* environment\n", config.DefaultFile)
	fmt.Fprintf(os.Stderr, "variables (and .env), then these flags.\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  shaderd ./shaders                        Watch and publish to ./shaders/compiled\n")
	fmt.Fprintf(os.Stderr, "  shaderd -o assets/shader.spv ./shaders   Publish to an explicit path\n")
	fmt.Fprintf(os.Stderr, "  shaderd -validate wgsl ./shaders         Also validate through WGSL\n")
}
