package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/langid/internal/config"
	"github.com/MeKo-Tech/langid/internal/langid"
	"github.com/MeKo-Tech/langid/internal/metrics"
	"github.com/spf13/cobra"
)

// detectCmd identifies the language of a single text.
var detectCmd = &cobra.Command{
	Use:   "detect [text...]",
	Short: "Identify the language of a text",
	Long: `Identify the language of the given text. Arguments are joined with single
spaces. With --stdin the text is read from standard input instead.

Without any text the fallback feature array (test_features.npy) is classified
and one code is printed per row.

Examples:
  langid detect "Bonjour tout le monde"
  langid detect 안녕하세요 --format json
  cat letter.txt | langid detect --stdin
  langid detect --format csv`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runDetectCommand,
}

// configFromDetectFlags applies detect flags on top of the loaded configuration.
// CLI flags override config file values only when set.
func configFromDetectFlags(base *config.Config, cmd *cobra.Command) *config.Config {
	cfg := *base

	if cmd.Flags().Changed("format") {
		cfg.Output.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.File, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Detection.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if cmd.Flags().Changed("backend") {
		cfg.Classifier.Backend, _ = cmd.Flags().GetString("backend")
	}
	if cmd.Flags().Changed("model") {
		cfg.Classifier.ModelPath, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("labels") {
		cfg.Classifier.LabelsPath, _ = cmd.Flags().GetString("labels")
	}
	if cmd.Flags().Changed("heuristic-fallback") {
		cfg.Classifier.HeuristicFallback, _ = cmd.Flags().GetBool("heuristic-fallback")
	}

	return &cfg
}

func runDetectCommand(cmd *cobra.Command, args []string) error {
	cfg := configFromDetectFlags(GetConfig(), cmd)

	useStdin, _ := cmd.Flags().GetBool("stdin")
	text, err := readDetectInput(cmd.InOrStdin(), args, useStdin)
	if err != nil {
		return err
	}

	m := metrics.New()
	svc, err := newService(cfg, m)
	if err != nil {
		return err
	}
	defer closeService(svc, cfg, m)

	d, err := svc.Detect(commandContext(cmd), text)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	out, err := formatDetection(d, cfg.Output.Format)
	if err != nil {
		return err
	}

	if cfg.Output.File != "" {
		if err := os.WriteFile(cfg.Output.File, []byte(out), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// readDetectInput returns the text to classify. One trailing line break of
// stdin input is dropped; everything else counts towards the script ratios.
func readDetectInput(stdin io.Reader, args []string, useStdin bool) (string, error) {
	if !useStdin {
		return strings.Join(args, " "), nil
	}
	if len(args) > 0 {
		return "", errors.New("cannot combine text arguments with --stdin")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	text = strings.TrimSuffix(text, "\r")
	return text, nil
}

func formatDetection(d langid.Detection, format string) (string, error) {
	switch format {
	case outputFormatJSON:
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(data) + "\n", nil
	case outputFormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"row", "code", "confidence", "branch"})
		for i, p := range d.Predictions {
			_ = w.Write([]string{
				strconv.Itoa(i),
				p.Code,
				strconv.FormatFloat(p.Confidence, 'f', 4, 64),
				string(d.Branch),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("failed to write CSV: %w", err)
		}
		return buf.String(), nil
	case outputFormatText, "":
		var sb strings.Builder
		for _, c := range d.Codes {
			sb.WriteString(c)
			sb.WriteByte('\n')
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().Bool("stdin", false, "read the text from standard input")
	detectCmd.Flags().StringP("format", "f", outputFormatText, "output format: text, json, csv")
	detectCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	detectCmd.Flags().Float64("threshold", 0.5, "script coverage ratio a class needs to win (0-1]")
	detectCmd.Flags().String("backend", "onnx", "classifier backend: onnx, lingua, heuristic")
	detectCmd.Flags().String("model", "", "path to the classifier model (overrides models dir)")
	detectCmd.Flags().String("labels", "", "path to the label file (overrides models dir)")
	detectCmd.Flags().Bool("heuristic-fallback", false, "use the diacritic heuristic when the model cannot be loaded")
}
