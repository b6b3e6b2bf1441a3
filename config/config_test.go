package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderd/builder"
	"github.com/gogpu/shaderd/cross"
	"github.com/gogpu/shaderd/publish"
	"github.com/gogpu/shaderd/verify"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, builder.DefaultCompiler, cfg.Compiler.Bin)
	assert.Equal(t, 10*time.Minute, cfg.Compiler.Timeout)
	assert.Equal(t, builder.DefaultTarget, cfg.Build.Target)
	assert.Equal(t, "none", cfg.Validation.Mode)
	assert.Equal(t, builder.DefaultDebounce, cfg.Watch.Debounce)
	assert.Equal(t, "/events", cfg.Events.Path)
	assert.Equal(t, "info", cfg.LogLevel)

	tools := cfg.Tools()
	assert.Equal(t, cross.DefaultTools().Naga, tools.Naga)
	assert.Equal(t, time.Minute, tools.Timeout)

	_, mirrored := cfg.S3()
	assert.False(t, mirrored)
}

func TestDefaultNeedsProject(t *testing.T) {
	err := Default().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project path is required")

	cfg := Default()
	cfg.Project = "shaders"
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "shaderd.yaml", `
project: ./shaders
output: out/shader.spv
build:
  multimodule: true
  debug: true
  spirv_metadata: full
  capabilities: [Int8]
validate:
  mode: wgsl
watch:
  debounce: 50ms
  ignore: [node_modules]
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "./shaders", cfg.Project)
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, []string{"node_modules"}, cfg.Watch.Ignore)
	// untouched sections keep their defaults
	assert.Equal(t, "spirv-builder-cli", cfg.Compiler.Bin)

	b := cfg.BuildConfig()
	assert.Equal(t, "./shaders", b.Path)
	assert.True(t, b.MultiModule)
	assert.False(t, b.Release)
	assert.Equal(t, builder.MetadataFull, b.Metadata)
	assert.Equal(t, []string{"Int8"}, b.Capabilities)

	assert.Equal(t, publish.Explicit("out/shader.spv"), cfg.Policy())

	mode, lang, err := cfg.ValidationMode()
	require.NoError(t, err)
	assert.Equal(t, verify.ModeCrossCompiled, mode)
	assert.Equal(t, cross.WGSL, lang)
}

func TestLoadUnknownField(t *testing.T) {
	path := writeFile(t, "shaderd.yaml", "projcet: typo\n")
	_, err := Load(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projcet")
}

func TestLoadMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(missing, false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(missing, true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, "shaderd.yaml", ""), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestPolicyDefault(t *testing.T) {
	cfg := Default()
	cfg.Project = "shaders"
	assert.Equal(t, publish.Default("shaders"), cfg.Policy())
	assert.False(t, cfg.Policy().IsExplicit())
}

func TestPolicyExplicitOutput(t *testing.T) {
	cfg := Default()
	cfg.Project = "shaders"
	cfg.Output = "shaders/shader.spv"

	want, err := filepath.Abs("shaders/shader.spv")
	require.NoError(t, err)
	assert.True(t, cfg.Policy().IsExplicit())
	assert.Equal(t, want, cfg.Policy().Output())
}

func TestStrictCapabilities(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.StrictCapabilities())

	cfg.Build.Capabilities = []string{"Int8", "Int64"}
	cfg.Validation.Capabilities = []string{"Int64", "Addresses"}
	assert.Equal(t, []string{"Int8", "Int64", "Addresses"}, cfg.StrictCapabilities())
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"SHADERD_PROJECT":     "/src/shaders",
		"SHADERD_VALIDATE":    "spirv",
		"SHADERD_LOG_LEVEL":   "debug",
		"SHADERD_S3_ENDPOINT": "localhost:9000",
		"SHADERD_S3_USE_SSL":  "true",
		"MINIO_ROOT_USER":     "minio",
		"MINIO_ROOT_PASSWORD": "minio123",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/src/shaders", cfg.Project)
	assert.Equal(t, "spirv", cfg.Validation.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)

	s3, ok := cfg.S3()
	require.True(t, ok)
	assert.Equal(t, publish.S3Config{
		Endpoint:  "localhost:9000",
		Region:    "us-east-1",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "shaders",
		UseSSL:    true,
	}, s3)
}

func TestApplyEnvPrefersShaderdKeys(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		"SHADERD_S3_ACCESS_KEY": "primary",
		"MINIO_ROOT_USER":       "fallback",
	})))
	assert.Equal(t, "primary", cfg.Mirror.AccessKey)
}

func TestApplyEnvBadBool(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{"SHADERD_S3_USE_SSL": "maybe"}))
	assert.ErrorContains(t, err, "SHADERD_S3_USE_SSL")
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Project = "shaders"
	cfg.Validation.Mode = "hlsl"
	cfg.Validation.Capabilities = []string{"NotACapability"}
	cfg.Build.Capabilities = []string{"Warp"}
	cfg.LogLevel = "loud"
	cfg.Events.Listen = ":7070"
	cfg.Events.Path = "events"
	cfg.Mirror.Endpoint = "localhost:9000"
	cfg.Mirror.Bucket = ""

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`unknown validation mode "hlsl"`,
		"validate.capabilities",
		"build.capabilities",
		"log_level",
		"events.path",
		"mirror.bucket",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "SHADERD_TEST_DOTENV=from-file\n")
	t.Setenv("SHADERD_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("SHADERD_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("SHADERD_TEST_DOTENV"))
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	path := writeFile(t, ".env", "SHADERD_TEST_DOTENV=from-file\n")
	t.Setenv("SHADERD_TEST_DOTENV", "from-shell")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-shell", os.Getenv("SHADERD_TEST_DOTENV"))
}

func TestToolchain(t *testing.T) {
	cfg := Default()
	cfg.Compiler.BackendDir = "/opt/backend"

	opts, err := cfg.Toolchain("linux")
	require.NoError(t, err)
	assert.NotEmpty(t, opts.Channel)
	assert.Equal(t, "/opt/backend", opts.BackendDir)
	assert.Equal(t, "linux", opts.GOOS)

	cfg.Compiler.ToolchainFile = filepath.Join(t.TempDir(), "missing.toml")
	_, err = cfg.Toolchain("linux")
	assert.Error(t, err)
}
