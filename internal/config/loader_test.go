package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func newTestLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName+".yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if loader.v != viper.GetViper() {
		t.Error("NewLoader() should use the global viper instance")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Detection.Threshold != 0.5 {
		t.Errorf("Expected default threshold 0.5, got %v", cfg.Detection.Threshold)
	}
}

// TestLoadFromWorkingDirectory tests that langid.yaml in the current directory is found.
func TestLoadFromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "langid.yaml"), []byte("log_level: warn\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	loader := newTestLoader()
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected log level 'warn', got %s", cfg.LogLevel)
	}
	if !strings.HasSuffix(loader.GetConfigFileUsed(), "langid.yaml") {
		t.Errorf("Expected langid.yaml to be used, got %q", loader.GetConfigFileUsed())
	}
}

func TestLoadWithValidYAMLFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
verbose: true
models_dir: /custom/models
detection:
  threshold: 0.7
classifier:
  backend: lingua
  cache_model: true
  cache_size: 4
  languages: [en, de, fr]
output:
  format: json
batch:
  recursive: true
  exclude_patterns: ["*.log"]
`)

	cfg, err := newTestLoader().LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected log level '%s', got %s", debugLevel, cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose to be true")
	}
	if cfg.ModelsDir != "/custom/models" {
		t.Errorf("Expected models dir '/custom/models', got %s", cfg.ModelsDir)
	}
	if cfg.Detection.Threshold != 0.7 {
		t.Errorf("Expected threshold 0.7, got %v", cfg.Detection.Threshold)
	}
	if cfg.Classifier.Backend != "lingua" {
		t.Errorf("Expected backend lingua, got %s", cfg.Classifier.Backend)
	}
	if !cfg.Classifier.CacheModel || cfg.Classifier.CacheSize != 4 {
		t.Errorf("Expected cache enabled with size 4, got %+v", cfg.Classifier)
	}
	if strings.Join(cfg.Classifier.Languages, ",") != "en,de,fr" {
		t.Errorf("Expected languages en,de,fr, got %v", cfg.Classifier.Languages)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Expected format json, got %s", cfg.Output.Format)
	}
	if !cfg.Batch.Recursive || len(cfg.Batch.ExcludePatterns) != 1 {
		t.Errorf("Expected recursive batch with one exclude pattern, got %+v", cfg.Batch)
	}
	// Unset keys keep their defaults.
	if cfg.Classifier.OutputName != "probabilities" {
		t.Errorf("Expected default output name, got %s", cfg.Classifier.OutputName)
	}
}

func TestLoadWithInvalidYAMLFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
  invalid indentation
    more bad indentation
`)
	if _, err := newTestLoader().LoadWithFile(path); err == nil {
		t.Error("LoadWithFile() expected error for invalid YAML, got nil")
	}
}

func TestLoadWithNonExistentFile(t *testing.T) {
	_, err := newTestLoader().LoadWithFile("/nonexistent/path/to/config.yaml")
	if err == nil {
		t.Fatal("LoadWithFile() expected error for non-existent file, got nil")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadWithValidationFailure(t *testing.T) {
	path := writeConfig(t, "detection:\n  threshold: 2\n")
	_, err := newTestLoader().LoadWithFile(path)
	if err == nil {
		t.Fatal("LoadWithFile() expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadWithoutValidation(t *testing.T) {
	path := writeConfig(t, `
log_level: invalid_level
classifier:
  backend: unknown
`)
	cfg, err := newTestLoader().LoadWithFileWithoutValidation(path)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.LogLevel != "invalid_level" {
		t.Errorf("Expected log level 'invalid_level', got %s", cfg.LogLevel)
	}
	if cfg.Classifier.Backend != "unknown" {
		t.Errorf("Expected backend 'unknown', got %s", cfg.Classifier.Backend)
	}
}

func TestEnvironmentVariableOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LANGID_LOG_LEVEL", "debug")
	t.Setenv("LANGID_VERBOSE", "true")
	t.Setenv("LANGID_DETECTION_THRESHOLD", "0.8")
	t.Setenv("LANGID_CLASSIFIER_CACHE_MODEL", "true")
	t.Setenv("LANGID_OUTPUT_FORMAT", "csv")

	cfg, err := newTestLoader().Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected log level from env, got %s", cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose from env")
	}
	if cfg.Detection.Threshold != 0.8 {
		t.Errorf("Expected threshold 0.8 from env, got %v", cfg.Detection.Threshold)
	}
	if !cfg.Classifier.CacheModel {
		t.Error("Expected cache_model from env")
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("Expected format csv from env, got %s", cfg.Output.Format)
	}
}

// TestMultipleConfigSourcesPrecedence tests that env vars beat the config file.
func TestMultipleConfigSourcesPrecedence(t *testing.T) {
	path := writeConfig(t, "log_level: warn\noutput:\n  format: json\n")
	t.Setenv("LANGID_LOG_LEVEL", "error")

	cfg, err := newTestLoader().LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("Expected env to win with 'error', got %s", cfg.LogLevel)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Expected file value json, got %s", cfg.Output.Format)
	}
}

func TestSetOverridesEverything(t *testing.T) {
	path := writeConfig(t, "log_level: warn\n")
	loader := newTestLoader()
	loader.Set("log_level", debugLevel)

	cfg, err := loader.LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected Set value to win, got %s", cfg.LogLevel)
	}
	if loader.GetString("log_level") != debugLevel {
		t.Errorf("GetString() = %s", loader.GetString("log_level"))
	}
	if loader.Get("log_level") != debugLevel {
		t.Errorf("Get() = %v", loader.Get("log_level"))
	}
}

func TestGetResolvedConfig(t *testing.T) {
	loader := newTestLoader()
	if _, err := loader.LoadWithFile(writeConfig(t, "verbose: true\n")); err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	settings := loader.GetResolvedConfig()
	for _, key := range []string{"log_level", "detection", "classifier", "output", "batch", "gpu"} {
		if _, ok := settings[key]; !ok {
			t.Errorf("Expected key %q in resolved config", key)
		}
	}
	if loader.GetViper() == nil {
		t.Error("GetViper() returned nil")
	}
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")
	if err := GenerateDefaultConfigFile(path); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}

	cfg, err := newTestLoader().LoadWithFile(path)
	if err != nil {
		t.Fatalf("Loading generated file failed: %v", err)
	}
	if cfg.Classifier.Backend != "onnx" {
		t.Errorf("Expected backend onnx in generated file, got %s", cfg.Classifier.Backend)
	}
}

func TestGenerateDefaultConfigFileWithEmptyFilename(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := GenerateDefaultConfigFile(""); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "langid.yaml")); err != nil {
		t.Errorf("Expected langid.yaml to be created: %v", err)
	}
}

func TestGetConfigSearchPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	paths := GetConfigSearchPaths()
	if paths[0] != "." {
		t.Errorf("Expected '.' first, got %s", paths[0])
	}
	want := []string{home, filepath.Join(home, ".config", "langid"), "/etc/langid"}
	for _, w := range want {
		found := false
		for _, p := range paths {
			if p == w {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %s in search paths %v", w, paths)
		}
	}

	seen := map[string]bool{}
	for _, p := range paths {
		if seen[p] {
			t.Errorf("Duplicate search path %s", p)
		}
		seen[p] = true
	}
}

func TestGetConfigSearchPathsXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	paths := GetConfigSearchPaths()
	want := filepath.Join(xdg, "langid")
	for _, p := range paths {
		if p == want {
			return
		}
	}
	t.Errorf("Expected %s in search paths %v", want, paths)
}

func TestPrintConfigInfo(t *testing.T) {
	var buf bytes.Buffer
	newTestLoader().PrintConfigInfo(&buf)
	out := buf.String()
	if !strings.Contains(out, "Environment prefix: LANGID") {
		t.Errorf("Unexpected output: %s", out)
	}
	if !strings.Contains(out, "Configuration search paths") {
		t.Errorf("Unexpected output: %s", out)
	}
}

func TestLoadWithEmptyConfigFile(t *testing.T) {
	cfg, err := newTestLoader().LoadWithFile(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level, got %s", cfg.LogLevel)
	}
}
