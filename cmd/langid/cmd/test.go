package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/langid/internal/models"
	"github.com/MeKo-Tech/langid/internal/onnx"
	"github.com/spf13/cobra"
)

// testCmd represents the test command.
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test ONNX Runtime setup and model artifacts",
	Long: `Test the ONNX Runtime installation and report which classifier artifacts
are present in the models directory.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, cmd.Short)
		_, _ = fmt.Fprintln(out, "Testing ONNX Runtime setup...")
		_, _ = fmt.Fprintln(out)

		modelsDir := GetConfig().ModelsDir
		for _, a := range models.ListArtifacts() {
			path := models.ResolveArtifactPath(modelsDir, a.Type, a.Filename)
			mark := "✓"
			if err := models.ValidateArtifactExists(path); err != nil {
				mark = "✗"
			}
			_, _ = fmt.Fprintf(out, "%s %s: %s\n", mark, a.Name, path)
		}
		_, _ = fmt.Fprintln(out)

		if err := onnx.CheckRuntime(out); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "❌ ONNX Runtime test failed: %v\n", err)
			_, _ = fmt.Fprintln(out, "Set "+onnx.EnvLibraryPath+" to the ONNX Runtime shared library,")
			_, _ = fmt.Fprintln(out, "or use --backend lingua which needs no runtime.")
			return fmt.Errorf("onnx runtime unavailable: %w", err)
		}

		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, "🎉 ONNX Runtime is ready for use.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}
