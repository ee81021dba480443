//nolint:lll
package config

// Config represents the complete configuration for the langid application.
// It covers every command (detect, batch, config, test) and is loaded from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Script detection and fallback features
	Detection DetectionConfig `mapstructure:"detection" yaml:"detection" json:"detection"`

	// Classifier backend
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier" json:"classifier"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Metrics textfile
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	// GPU configuration
	GPU GPUConfig `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
}

// DetectionConfig contains script detection settings.
type DetectionConfig struct {
	Threshold        float64 `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	TestFeaturesPath string  `mapstructure:"test_features_path" yaml:"test_features_path" json:"test_features_path"`
}

// ClassifierConfig contains classifier settings.
type ClassifierConfig struct {
	Backend           string   `mapstructure:"backend" yaml:"backend" json:"backend"`
	ModelPath         string   `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	LabelsPath        string   `mapstructure:"labels_path" yaml:"labels_path" json:"labels_path"`
	OutputName        string   `mapstructure:"output_name" yaml:"output_name" json:"output_name"`
	NumThreads        int      `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	CacheModel        bool     `mapstructure:"cache_model" yaml:"cache_model" json:"cache_model"`
	CacheSize         int      `mapstructure:"cache_size" yaml:"cache_size" json:"cache_size"`
	Languages         []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	HeuristicFallback bool     `mapstructure:"heuristic_fallback" yaml:"heuristic_fallback" json:"heuristic_fallback"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	IncludePatterns []string `mapstructure:"include_patterns" yaml:"include_patterns" json:"include_patterns"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns" json:"exclude_patterns"`
	ContinueOnError bool     `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	PageRange       string   `mapstructure:"page_range" yaml:"page_range" json:"page_range"`
	PDFPassword     string   `mapstructure:"pdf_password" yaml:"-" json:"-"`
}

// MetricsConfig contains metrics export settings.
type MetricsConfig struct {
	File string `mapstructure:"file" yaml:"file" json:"file"`
}

// GPUConfig contains GPU acceleration settings.
type GPUConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Device  int  `mapstructure:"device" yaml:"device" json:"device"`
}
