package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/langid/internal/batch"
	"github.com/MeKo-Tech/langid/internal/config"
	"github.com/MeKo-Tech/langid/internal/metrics"
	"github.com/spf13/cobra"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Identify the language of many text, Markdown and PDF files",
	Long: `Identify the language of every matching file. Directories are scanned for
files matching the include patterns; PDFs are classified by their text layer.

Examples:
  langid batch notes/*.txt
  langid batch docs/ --recursive --format json --output results.json
  langid batch reports/ -r --include "*.pdf" --pages 1-3
  langid batch corpus/ -r --continue-on-error --format csv`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

// configToBatchConfig maps centralized configuration to batch.Config.
// CLI flags override config file values only when set.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) *batch.Config {
	bc := cfg.ToBatchConfig()

	if cmd.Flags().Changed("recursive") {
		bc.Recursive, _ = cmd.Flags().GetBool("recursive")
	}
	if cmd.Flags().Changed("include") {
		bc.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	}
	if cmd.Flags().Changed("exclude") {
		bc.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	}
	if cmd.Flags().Changed("continue-on-error") {
		bc.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}
	if cmd.Flags().Changed("pages") {
		bc.PageRange, _ = cmd.Flags().GetString("pages")
	}
	if cmd.Flags().Changed("password") {
		bc.PDFPassword, _ = cmd.Flags().GetString("password")
	}
	if cmd.Flags().Changed("format") {
		bc.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("output") {
		bc.OutputFile, _ = cmd.Flags().GetString("output")
	}

	// CLI-only
	bc.Quiet, _ = cmd.Flags().GetBool("quiet")

	return &bc
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := *GetConfig()
	if cmd.Flags().Changed("backend") {
		cfg.Classifier.Backend, _ = cmd.Flags().GetString("backend")
	}
	if cmd.Flags().Changed("cache-model") {
		cfg.Classifier.CacheModel, _ = cmd.Flags().GetBool("cache-model")
	}
	bc := configToBatchConfig(&cfg, cmd)
	cfg.Output.Format = bc.Format

	m := metrics.New()
	svc, err := newService(&cfg, m)
	if err != nil {
		return err
	}
	defer closeService(svc, &cfg, m)

	if !bc.Quiet {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Processing %d path(s)...\n", len(args))
	}

	result, err := batch.ProcessBatch(commandContext(cmd), svc, args, bc, m)
	if err != nil {
		return err
	}

	if err := result.SaveResults(cmd.OutOrStdout(), bc.Format, bc.OutputFile, bc.Quiet); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	result.PrintStats(cmd.ErrOrStderr(), bc.Quiet)

	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Classifier flags
	batchCmd.Flags().String("backend", "onnx", "classifier backend: onnx, lingua, heuristic")
	batchCmd.Flags().Bool("cache-model", false, "keep the loaded classifier for the whole run")

	// Output flags
	batchCmd.Flags().StringP("format", "f", outputFormatText, "output format: text, json, csv")
	batchCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	// File discovery flags
	batchCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	batchCmd.Flags().StringSlice("include", batch.DefaultIncludePatterns, "file patterns to include")
	batchCmd.Flags().StringSlice("exclude", []string{}, "file patterns to exclude")
	batchCmd.Flags().Bool("continue-on-error", false, "record failed files instead of aborting")

	// PDF flags
	batchCmd.Flags().String("pages", "", "PDF page range, e.g. 1-3,5")
	batchCmd.Flags().String("password", "", "password for encrypted PDFs")

	batchCmd.Flags().Bool("quiet", false, "suppress progress and statistics output")
}
