// Package config loads the shaderd configuration.
//
// Values are layered: built-in defaults, then the YAML file, then SHADERD_*
// environment variables (a .env file is loaded first if present), then
// command line flags applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderd/builder"
	"github.com/gogpu/shaderd/cross"
	"github.com/gogpu/shaderd/internal/logging"
	"github.com/gogpu/shaderd/publish"
	"github.com/gogpu/shaderd/toolchain"
	"github.com/gogpu/shaderd/valid"
	"github.com/gogpu/shaderd/verify"
)

// DefaultFile is the configuration file looked for in the working directory.
const DefaultFile = "shaderd.yaml"

// DefaultYAML documents every setting with its default value.
const DefaultYAML = `# shaderd configuration

# Shader project to compile and watch.
project: ""

# Copy the compiled module to this exact path. When empty the module is
# copied to <project>/compiled/<module file name>.
output: ""

compiler:
  bin: spirv-builder-cli
  # Path to a rust-toolchain.toml; empty uses the built-in toolchain pin.
  toolchain_file: ""
  # Directory holding the codegen backend library; empty uses the OS default.
  backend_dir: ""
  timeout: 10m

build:
  target: spirv-unknown-spv1.3
  deny_warnings: false
  debug: false
  multimodule: false
  spirv_metadata: none
  relax_struct_store: false
  relax_logical_pointer: false
  relax_block_layout: false
  uniform_buffer_standard_layout: false
  scalar_block_layout: false
  skip_block_layout: false
  preserve_bindings: false
  capabilities: []
  extensions: []

validate:
  # none, spirv, wgsl or glsl
  mode: none
  # Capabilities accepted by strict validation on top of the defaults.
  capabilities: []
  # Where generated shading-language source is written; empty uses the OS
  # temp directory.
  temp_dir: ""
  tools:
    naga: naga
    spirv_cross: spirv-cross
    glslang: glslangValidator
  timeout: 1m

watch:
  debounce: 200ms
  ignore: []

events:
  # Address to serve build events on, e.g. "127.0.0.1:7070". Empty disables.
  listen: ""
  path: /events

mirror:
  # S3-compatible endpoint to mirror published modules to. Empty disables.
  endpoint: ""
  region: us-east-1
  bucket: shaders
  prefix: ""
  use_ssl: false

log_level: info
`

// Config is the complete shaderd configuration.
type Config struct {
	Project    string         `yaml:"project"`
	Output     string         `yaml:"output"`
	Compiler   CompilerConfig `yaml:"compiler"`
	Build      BuildConfig    `yaml:"build"`
	Validation ValidateConfig `yaml:"validate"`
	Watch      WatchConfig    `yaml:"watch"`
	Events     EventsConfig   `yaml:"events"`
	Mirror     MirrorConfig   `yaml:"mirror"`
	LogLevel   string         `yaml:"log_level"`
}

// CompilerConfig locates the external compiler and its toolchain.
type CompilerConfig struct {
	Bin           string        `yaml:"bin"`
	ToolchainFile string        `yaml:"toolchain_file"`
	BackendDir    string        `yaml:"backend_dir"`
	Timeout       time.Duration `yaml:"timeout"`
}

// BuildConfig mirrors builder.Config.
type BuildConfig struct {
	Target                      string   `yaml:"target"`
	DenyWarnings                bool     `yaml:"deny_warnings"`
	Debug                       bool     `yaml:"debug"`
	MultiModule                 bool     `yaml:"multimodule"`
	SpirvMetadata               string   `yaml:"spirv_metadata"`
	RelaxStructStore            bool     `yaml:"relax_struct_store"`
	RelaxLogicalPointer         bool     `yaml:"relax_logical_pointer"`
	RelaxBlockLayout            bool     `yaml:"relax_block_layout"`
	UniformBufferStandardLayout bool     `yaml:"uniform_buffer_standard_layout"`
	ScalarBlockLayout           bool     `yaml:"scalar_block_layout"`
	SkipBlockLayout             bool     `yaml:"skip_block_layout"`
	PreserveBindings            bool     `yaml:"preserve_bindings"`
	Capabilities                []string `yaml:"capabilities"`
	Extensions                  []string `yaml:"extensions"`
}

// ValidateConfig selects and configures validation.
type ValidateConfig struct {
	Mode         string        `yaml:"mode"`
	Capabilities []string      `yaml:"capabilities"`
	TempDir      string        `yaml:"temp_dir"`
	Tools        ToolsConfig   `yaml:"tools"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ToolsConfig names the cross compiler executables.
type ToolsConfig struct {
	Naga       string `yaml:"naga"`
	SPIRVCross string `yaml:"spirv_cross"`
	GLSLang    string `yaml:"glslang"`
}

// WatchConfig tunes the file watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Ignore   []string      `yaml:"ignore"`
}

// EventsConfig configures the websocket event feed.
type EventsConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
}

// MirrorConfig configures the optional S3 mirror. Credentials come from the
// environment only.
type MirrorConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	if err := decode([]byte(DefaultYAML), &cfg); err != nil {
		panic(fmt.Sprintf("config: default configuration is invalid: %v", err))
	}
	return cfg
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Load reads the YAML file at path over the defaults. A missing file is
// only an error when path was given explicitly.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads variables from .env files that exist, without overriding
// variables already set.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overlays SHADERD_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	str(&c.Project, "SHADERD_PROJECT")
	str(&c.Output, "SHADERD_OUTPUT")
	str(&c.Compiler.Bin, "SHADERD_COMPILER")
	str(&c.Compiler.ToolchainFile, "SHADERD_TOOLCHAIN_FILE")
	str(&c.Compiler.BackendDir, "SHADERD_BACKEND_DIR")
	str(&c.Build.Target, "SHADERD_TARGET")
	str(&c.Validation.Mode, "SHADERD_VALIDATE")
	str(&c.Events.Listen, "SHADERD_EVENTS_LISTEN")
	str(&c.LogLevel, "SHADERD_LOG_LEVEL")
	str(&c.Mirror.Endpoint, "SHADERD_S3_ENDPOINT")
	str(&c.Mirror.Bucket, "SHADERD_S3_BUCKET")
	str(&c.Mirror.AccessKey, "SHADERD_S3_ACCESS_KEY", "MINIO_ROOT_USER")
	str(&c.Mirror.SecretKey, "SHADERD_S3_SECRET_KEY", "MINIO_ROOT_PASSWORD")

	if raw := strings.TrimSpace(getenv("SHADERD_S3_USE_SSL")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("config: SHADERD_S3_USE_SSL: %w", err)
		}
		c.Mirror.UseSSL = v
	}
	return nil
}

// Validate reports every configuration mistake at once.
func (c Config) Validate() error {
	var errs []error
	if err := c.BuildConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, _, err := verify.ParseMode(c.Validation.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := valid.ParseCapabilities(c.Build.Capabilities); err != nil {
		errs = append(errs, fmt.Errorf("build.capabilities: %w", err))
	}
	if _, err := valid.ParseCapabilities(c.Validation.Capabilities); err != nil {
		errs = append(errs, fmt.Errorf("validate.capabilities: %w", err))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, errors.New("watch.debounce must not be negative"))
	}
	if c.Events.Listen != "" && !strings.HasPrefix(c.Events.Path, "/") {
		errs = append(errs, fmt.Errorf("events.path %q must start with /", c.Events.Path))
	}
	if c.Mirror.Endpoint != "" && strings.TrimSpace(c.Mirror.Bucket) == "" {
		errs = append(errs, errors.New("mirror.bucket is required when mirror.endpoint is set"))
	}
	return errors.Join(errs...)
}

// BuildConfig converts the build section into a compilation request.
func (c Config) BuildConfig() builder.Config {
	b := c.Build
	return builder.Config{
		Path:                        c.Project,
		Target:                      b.Target,
		DenyWarnings:                b.DenyWarnings,
		Release:                     !b.Debug,
		MultiModule:                 b.MultiModule,
		Metadata:                    builder.MetadataLevel(b.SpirvMetadata),
		RelaxStructStore:            b.RelaxStructStore,
		RelaxLogicalPointer:         b.RelaxLogicalPointer,
		RelaxBlockLayout:            b.RelaxBlockLayout,
		UniformBufferStandardLayout: b.UniformBufferStandardLayout,
		ScalarBlockLayout:           b.ScalarBlockLayout,
		SkipBlockLayout:             b.SkipBlockLayout,
		PreserveBindings:            b.PreserveBindings,
		Capabilities:                b.Capabilities,
		Extensions:                  b.Extensions,
	}
}

// StrictCapabilities lists the capabilities strict validation accepts on top
// of the defaults: whatever the build enables plus validate.capabilities.
func (c Config) StrictCapabilities() []string {
	caps := make([]string, 0, len(c.Build.Capabilities)+len(c.Validation.Capabilities))
	seen := make(map[string]bool)
	for _, name := range append(append([]string{}, c.Build.Capabilities...), c.Validation.Capabilities...) {
		if !seen[name] {
			seen[name] = true
			caps = append(caps, name)
		}
	}
	return caps
}

// Policy returns the destination policy for published modules.
func (c Config) Policy() publish.Policy {
	if c.Output != "" {
		return publish.Explicit(c.Output)
	}
	return publish.Default(c.Project)
}

// ValidationMode parses validate.mode.
func (c Config) ValidationMode() (verify.Mode, cross.Language, error) {
	return verify.ParseMode(c.Validation.Mode)
}

// Tools returns the cross compiler executables.
func (c Config) Tools() cross.Tools {
	tools := cross.DefaultTools()
	if t := c.Validation.Tools; t.Naga != "" {
		tools.Naga = t.Naga
	}
	if t := c.Validation.Tools; t.SPIRVCross != "" {
		tools.SPIRVCross = t.SPIRVCross
	}
	if t := c.Validation.Tools; t.GLSLang != "" {
		tools.GLSLang = t.GLSLang
	}
	if c.Validation.Timeout > 0 {
		tools.Timeout = c.Validation.Timeout
	}
	return tools
}

// S3 returns the mirror configuration, and false when mirroring is off.
func (c Config) S3() (publish.S3Config, bool) {
	m := c.Mirror
	if strings.TrimSpace(m.Endpoint) == "" {
		return publish.S3Config{}, false
	}
	return publish.S3Config{
		Endpoint:  m.Endpoint,
		Region:    m.Region,
		AccessKey: m.AccessKey,
		SecretKey: m.SecretKey,
		Bucket:    m.Bucket,
		Prefix:    m.Prefix,
		UseSSL:    m.UseSSL,
	}, true
}

// Toolchain resolves the compiler toolchain settings for goos.
func (c Config) Toolchain(goos string) (toolchain.Options, error) {
	channel, err := toolchain.Channel(c.Compiler.ToolchainFile)
	if err != nil {
		return toolchain.Options{}, err
	}
	return toolchain.Options{
		Channel:    channel,
		BackendDir: c.Compiler.BackendDir,
		GOOS:       goos,
	}, nil
}
