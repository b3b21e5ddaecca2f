package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const (
	testValue  = "test_value"
	debugLevel = "debug"
	infoLevel  = "info"
)

// clearQuadwarpEnvVars clears all QUADWARP_ environment variables.
func clearQuadwarpEnvVars() {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			parts := strings.SplitN(env, "=", 2)
			_ = os.Unsetenv(parts[0]) // Ignore error in cleanup function
		}
	}
}

// chdirTemp switches into an empty directory for the duration of the test.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(originalWd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	return tmpDir
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "quadwarp.yaml")
	if err := os.WriteFile(configFile, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configFile
}

// TestNewLoader tests loader creation.
func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.v == nil {
		t.Error("Loader viper instance is nil")
	}
	if NewIsolatedLoader().v == loader.v {
		t.Error("NewIsolatedLoader() shares the global viper instance")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	clearQuadwarpEnvVars()
	chdirTemp(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := NewIsolatedLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Warp.Resolver != "bilinear" {
		t.Errorf("Expected default resolver bilinear, got %s", cfg.Warp.Resolver)
	}
}

// TestLoadFromSearchPath tests that quadwarp.yaml in the working directory is found.
func TestLoadFromSearchPath(t *testing.T) {
	clearQuadwarpEnvVars()
	dir := chdirTemp(t)
	if err := os.WriteFile(filepath.Join(dir, "quadwarp.yaml"), []byte("warp:\n  resolver: barycentric\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewIsolatedLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Warp.Resolver != "barycentric" {
		t.Errorf("Expected resolver barycentric, got %s", cfg.Warp.Resolver)
	}
	if !strings.HasSuffix(loader.GetConfigFileUsed(), "quadwarp.yaml") {
		t.Errorf("Unexpected config file used: %s", loader.GetConfigFileUsed())
	}
}

// TestLoadWithValidYAMLFile tests loading from a valid YAML file.
func TestLoadWithValidYAMLFile(t *testing.T) {
	configFile := writeConfig(t, `
log_level: debug
verbose: true
warp:
  resolver: barycentric
  out_of_quad: wrap
  out_of_texture: wrap
  components: 3
  workers: 2
server:
  host: 0.0.0.0
  port: 9090
output:
  format: webp
  overlay: true
batch:
  recursive: true
  output_dir: /tmp/out
`)

	cfg, err := NewIsolatedLoader().LoadWithFile(configFile)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected log level '%s', got %s", debugLevel, cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose to be true")
	}
	if cfg.Warp.Resolver != "barycentric" || cfg.Warp.OutOfQuad != "wrap" || cfg.Warp.OutOfTexture != "wrap" {
		t.Errorf("Unexpected warp config: %+v", cfg.Warp)
	}
	if cfg.Warp.Components != 3 || cfg.Warp.Workers != 2 {
		t.Errorf("Unexpected warp components/workers: %+v", cfg.Warp)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host '0.0.0.0', got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Output.Format != "webp" || !cfg.Output.Overlay {
		t.Errorf("Unexpected output config: %+v", cfg.Output)
	}
	if !cfg.Batch.Recursive || cfg.Batch.OutputDir != "/tmp/out" {
		t.Errorf("Unexpected batch config: %+v", cfg.Batch)
	}
	// Untouched keys keep their defaults.
	if cfg.Server.MaxUploadMB != 50 {
		t.Errorf("Expected default max upload 50, got %d", cfg.Server.MaxUploadMB)
	}
}

// TestLoadWithInvalidYAMLFile tests loading from an invalid YAML file.
func TestLoadWithInvalidYAMLFile(t *testing.T) {
	configFile := writeConfig(t, `
log_level: debug
  invalid indentation
    more bad indentation
`)

	if _, err := NewIsolatedLoader().LoadWithFile(configFile); err == nil {
		t.Error("LoadWithFile() expected error for invalid YAML, got nil")
	}
}

// TestLoadWithNonExistentFile tests loading from a non-existent file.
func TestLoadWithNonExistentFile(t *testing.T) {
	if _, err := NewIsolatedLoader().LoadWithFile("/nonexistent/path/to/config.yaml"); err == nil {
		t.Error("LoadWithFile() expected error for non-existent file, got nil")
	}
}

// TestLoadWithValidationFailure tests loading with validation failure.
func TestLoadWithValidationFailure(t *testing.T) {
	clearQuadwarpEnvVars()

	tests := map[string]string{
		"log level":  "log_level: invalid_level\n",
		"port":       "server:\n  port: 0\n",
		"policy":     "warp:\n  out_of_quad: mirror\n",
		"resolver":   "warp:\n  resolver: bicubic\n",
		"components": "warp:\n  components: 5\n",
		"format":     "output:\n  format: gif\n",
		"color":      "output:\n  overlay_color: red\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			configFile := writeConfig(t, content)
			if _, err := NewIsolatedLoader().LoadWithFile(configFile); err == nil {
				t.Error("LoadWithFile() expected validation error, got nil")
			}
		})
	}
}

// TestLoadWithoutValidation tests loading without validation.
func TestLoadWithoutValidation(t *testing.T) {
	clearQuadwarpEnvVars()

	configFile := writeConfig(t, `
log_level: invalid_level
server:
  port: -1
warp:
  out_of_texture: skip
`)

	cfg, err := NewIsolatedLoader().LoadWithFileWithoutValidation(configFile)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}

	// Values should be loaded even if invalid
	if cfg.LogLevel != "invalid_level" {
		t.Errorf("Expected log level 'invalid_level', got %s", cfg.LogLevel)
	}
	if cfg.Server.Port != -1 {
		t.Errorf("Expected port -1, got %d", cfg.Server.Port)
	}
	if cfg.Warp.OutOfTexture != "skip" {
		t.Errorf("Expected out_of_texture 'skip', got %s", cfg.Warp.OutOfTexture)
	}
}

// TestEnvironmentVariableOverride tests environment variable override.
func TestEnvironmentVariableOverride(t *testing.T) {
	clearQuadwarpEnvVars()
	chdirTemp(t)

	t.Setenv("QUADWARP_LOG_LEVEL", "debug")
	t.Setenv("QUADWARP_SERVER_PORT", "9999")
	t.Setenv("QUADWARP_VERBOSE", "true")
	t.Setenv("QUADWARP_WARP_OUT_OF_QUAD", "clamp")
	t.Setenv("QUADWARP_WARP_MIN_PARALLEL_PIXELS", "1")
	t.Setenv("QUADWARP_BATCH_CONTINUE_ON_ERROR", "true")

	cfg, err := NewIsolatedLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug' from env, got %s", cfg.LogLevel)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from env, got %d", cfg.Server.Port)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose true from env")
	}
	if cfg.Warp.OutOfQuad != "clamp" {
		t.Errorf("Expected out_of_quad 'clamp' from env, got %s", cfg.Warp.OutOfQuad)
	}
	if cfg.Warp.MinParallelPixels != 1 {
		t.Errorf("Expected min_parallel_pixels 1 from env, got %d", cfg.Warp.MinParallelPixels)
	}
	if !cfg.Batch.ContinueOnError {
		t.Error("Expected continue_on_error true from env")
	}
}

// TestYAMLRoundTrip tests that a marshaled DefaultConfig loads back unchanged.
func TestYAMLRoundTrip(t *testing.T) {
	clearQuadwarpEnvVars()

	want := DefaultConfig()
	want.Warp.Resolver = "barycentric"
	want.Output.Overlay = true
	want.Batch.OutputDir = "somewhere"

	data, err := yaml.Marshal(want)
	if err != nil {
		t.Fatalf("yaml.Marshal() error: %v", err)
	}
	if !strings.Contains(string(data), "out_of_quad: skip") {
		t.Errorf("Expected yaml tags in output, got:\n%s", data)
	}

	got, err := NewIsolatedLoader().LoadWithFile(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("LoadWithFile() error: %v", err)
	}
	if *got != want {
		t.Errorf("Round trip mismatch:\nwant %+v\ngot  %+v", want, *got)
	}
}

// TestGetSetConfigValues tests Get and Set methods.
func TestGetSetConfigValues(t *testing.T) {
	loader := NewIsolatedLoader()
	loader.Set("test_key", testValue)

	if value := loader.GetViper().GetString("test_key"); value != testValue {
		t.Errorf("Expected '%s', got %s", testValue, value)
	}
}

// TestReload tests that Reload picks up values set after loading.
func TestReload(t *testing.T) {
	clearQuadwarpEnvVars()
	chdirTemp(t)

	loader := NewIsolatedLoader()
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	loader.Set("warp.resolver", "barycentric")

	cfg, err := loader.Reload()
	if err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if cfg.Warp.Resolver != "barycentric" {
		t.Errorf("Expected reloaded resolver barycentric, got %s", cfg.Warp.Resolver)
	}
}

// TestGenerateDefaultConfigFile tests generating a default config file.
func TestGenerateDefaultConfigFile(t *testing.T) {
	clearQuadwarpEnvVars()
	outputFile := filepath.Join(t.TempDir(), "default.yaml")

	if err := GenerateDefaultConfigFile(outputFile); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}

	cfg, err := NewIsolatedLoader().LoadWithFile(outputFile)
	if err != nil {
		t.Fatalf("LoadWithFile() on generated file error: %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("Generated config differs from defaults: %+v", *cfg)
	}
}

// TestGetConfigSearchPaths tests the search path list.
func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()

	if paths[0] != "." {
		t.Errorf("Expected first search path '.', got %s", paths[0])
	}
	if paths[len(paths)-1] != "/etc/quadwarp" {
		t.Errorf("Expected last search path /etc/quadwarp, got %s", paths[len(paths)-1])
	}
	found := false
	for _, p := range paths {
		if p == filepath.Join("/xdg", "quadwarp") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected XDG path in %v", paths)
	}
}
