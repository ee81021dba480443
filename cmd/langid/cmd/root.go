package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/langid/internal/config"
	"github.com/MeKo-Tech/langid/internal/models"
	"github.com/MeKo-Tech/langid/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// Persistent flags bound to configuration keys.
var globalFlagBindings = map[string]string{
	"verbose":      "verbose",
	"log_level":    "log-level",
	"models_dir":   "models-dir",
	"metrics.file": "metrics-file",
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "langid",
	Short: "Language identification for text and documents",
	Long: `Identify the language of a text from its writing system and, for Latin
script, a character-frequency classifier.

Korean and Japanese are recognized by script coverage alone. Latin-script text
is turned into a code-point frequency vector and scored by the ONNX model
(or the lingua backend).

Examples:
  langid detect "Fine, he's a priest. But it's the best money we've ever made."
  echo "안녕하세요" | langid detect --stdin
  langid batch docs/ --recursive --format json
  langid config show`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		}
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		globalConfig = cfg
		setupLogging(cfg)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signalContext()
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/langid, /etc/langid)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("models-dir", "",
		"directory containing ml.onnx, labels.txt and test_features.npy (can also be set via "+
			models.EnvModelsDir+")")
	rootCmd.PersistentFlags().String("metrics-file", "", "write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")
}

// loadConfig builds the configuration for one execution. A fresh viper
// instance keeps repeated executions (tests) from sharing state.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	flags := cmd.Root().PersistentFlags()
	for key, name := range globalFlagBindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	configLoader = config.NewLoaderWithViper(v)
	cfg, err := configLoader.LoadWithFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}

	// Results go to stdout, logs to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// GetConfig returns the configuration loaded for the running command.
func GetConfig() *config.Config {
	if globalConfig == nil {
		cfg := config.DefaultConfig()
		globalConfig = &cfg
	}
	return globalConfig
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
