package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/MeKo-Tech/langid/internal/batch"
	"github.com/MeKo-Tech/langid/internal/classifier"
	"github.com/MeKo-Tech/langid/internal/langid"
	"github.com/MeKo-Tech/langid/internal/models"
	"github.com/MeKo-Tech/langid/internal/onnx"
	"github.com/MeKo-Tech/langid/internal/script"
)

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validOutputFormats = []string{"text", "json", "csv"}
	validBackends      = []string{classifier.BackendONNX, classifier.BackendLingua, classifier.BackendHeuristic}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ModelsDir: models.GetModelsDir(""),
		LogLevel:  "info",
		Verbose:   false,
		Detection: DetectionConfig{
			Threshold: script.DefaultThreshold,
		},
		Classifier: ClassifierConfig{
			Backend:    classifier.BackendONNX,
			OutputName: classifier.DefaultOutputName,
			NumThreads: 0,
			CacheModel: false,
			CacheSize:  classifier.DefaultCacheSize,
			Languages:  slices.Clone(classifier.DefaultLanguages),
		},
		Output: OutputConfig{
			Format: "text",
		},
		Batch: BatchConfig{
			IncludePatterns: slices.Clone(batch.DefaultIncludePatterns),
		},
		GPU: GPUConfig{
			Enabled: false,
			Device:  0,
		},
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level %q, must be one of: %v", c.LogLevel, validLogLevels)
	}
	if !slices.Contains(validOutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format %q, must be one of: %v", c.Output.Format, validOutputFormats)
	}
	if err := validateThreshold(c.Detection.Threshold, "detection.threshold"); err != nil {
		return err
	}
	if !slices.Contains(validBackends, c.Classifier.Backend) {
		return fmt.Errorf("invalid classifier backend %q, must be one of: %v", c.Classifier.Backend, validBackends)
	}
	if c.Classifier.NumThreads < 0 {
		return errors.New("classifier.num_threads must be non-negative")
	}
	if c.Classifier.CacheModel && c.Classifier.CacheSize < 1 {
		return errors.New("classifier.cache_size must be at least 1 when caching is enabled")
	}
	if c.Classifier.Backend == classifier.BackendLingua && len(c.Classifier.Languages) < 2 {
		return errors.New("classifier.languages needs at least 2 entries for the lingua backend")
	}
	if c.GPU.Device < 0 {
		return errors.New("gpu.device must be non-negative")
	}
	return nil
}

// ToClassifierConfig converts to the classifier configuration, resolving
// artifact paths under the models directory when they are not set.
func (c *Config) ToClassifierConfig() classifier.Config {
	cfg := classifier.DefaultConfig()
	cfg.Backend = c.Classifier.Backend
	cfg.ModelPath = c.Classifier.ModelPath
	if cfg.ModelPath == "" {
		cfg.ModelPath = models.GetClassifierModelPath(c.ModelsDir)
	}
	cfg.LabelsPath = c.Classifier.LabelsPath
	if cfg.LabelsPath == "" {
		cfg.LabelsPath = models.GetLabelsPath(c.ModelsDir)
	}
	if c.Classifier.OutputName != "" {
		cfg.OutputName = c.Classifier.OutputName
	}
	if len(c.Classifier.Languages) > 0 {
		cfg.Languages = slices.Clone(c.Classifier.Languages)
	}
	cfg.HeuristicFallback = c.Classifier.HeuristicFallback
	cfg.Session = onnx.SessionConfig{
		NumThreads: c.Classifier.NumThreads,
		GPU:        onnx.GPUConfig{UseGPU: c.GPU.Enabled, DeviceID: c.GPU.Device},
	}
	return cfg
}

// ToServiceConfig converts to the orchestrator configuration.
func (c *Config) ToServiceConfig() langid.Config {
	cfg := langid.DefaultConfig()
	cfg.Threshold = c.Detection.Threshold
	cfg.TestFeaturesPath = c.Detection.TestFeaturesPath
	if cfg.TestFeaturesPath == "" {
		cfg.TestFeaturesPath = models.GetTestFeaturesPath(c.ModelsDir)
	}
	return cfg
}

// ToBatchConfig converts to the batch runner configuration.
func (c *Config) ToBatchConfig() batch.Config {
	return batch.Config{
		Recursive:       c.Batch.Recursive,
		IncludePatterns: slices.Clone(c.Batch.IncludePatterns),
		ExcludePatterns: slices.Clone(c.Batch.ExcludePatterns),
		ContinueOnError: c.Batch.ContinueOnError,
		PageRange:       c.Batch.PageRange,
		PDFPassword:     c.Batch.PDFPassword,
		Format:          c.Output.Format,
		OutputFile:      c.Output.File,
	}
}

// validateThreshold validates that a threshold value is in (0, 1].
func validateThreshold(value float64, name string) error {
	if value <= 0 || value > 1 {
		return fmt.Errorf("%s must be in (0, 1], got %f", name, value)
	}
	return nil
}
