package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/langid/internal/features"
	"github.com/MeKo-Tech/langid/internal/models"
	"github.com/MeKo-Tech/langid/internal/onnx/mock"
	"github.com/MeKo-Tech/langid/internal/testutil"
)

type options struct {
	fixtures bool
	stub     bool
	rows     int
	labels   []string
	seed     int64
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		generateFixtures = flag.Bool("fixtures", true, "Generate routing fixtures under testdata/fixtures")
		generateStub     = flag.Bool("stub-models", true, "Generate a stub models dir (labels and fallback features) under testdata/models")
		rows             = flag.Int("rows", 3, "Rows in the fallback feature array")
		labels           = flag.String("labels", "en,fr,tl,id", "Comma-separated label codes for the stub models dir")
		seed             = flag.Int64("seed", 42, "Seed for the random feature rows")
		verbose          = flag.Bool("v", false, "Verbose output")
		help             = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate test data for langid testing.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s                    # Generate all test data\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -stub-models=false # Generate only fixtures\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -rows 5 -labels en,de\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	opts := options{
		fixtures: *generateFixtures,
		stub:     *generateStub,
		rows:     *rows,
		labels:   splitLabels(*labels),
		seed:     *seed,
	}
	if *verbose {
		slog.Info("Options", "fixtures", opts.fixtures, "stub_models", opts.stub, "rows", opts.rows, "labels", opts.labels)
	}

	root, err := testutil.GetProjectRoot()
	if err != nil {
		slog.Error("Failed to find project root", "error", err)
		os.Exit(1)
	}
	if *verbose {
		slog.Info("Project root", "path", root)
	}

	if err := generate(filepath.Join(root, "testdata"), opts); err != nil {
		slog.Error("Test data generation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Test data generation completed")
}

func splitLabels(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// generate writes the requested artifacts below dataDir.
func generate(dataDir string, opts options) error {
	if opts.fixtures {
		dir := filepath.Join(dataDir, "fixtures")
		for _, f := range testutil.SampleFixtures() {
			if err := saveFixture(f, dir); err != nil {
				return err
			}
		}
		slog.Info("Generated fixtures", "dir", dir, "count", len(testutil.SampleFixtures()))
	}

	if opts.stub {
		dir := filepath.Join(dataDir, models.DefaultModelsDir)
		if err := writeStubModels(dir, opts.rows, opts.labels, opts.seed); err != nil {
			return err
		}
		slog.Info("Generated stub models dir", "dir", dir, "rows", opts.rows, "labels", len(opts.labels))
	}
	return nil
}

func saveFixture(fixture testutil.TestFixture, dir string) error {
	if err := testutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create fixtures dir: %w", err)
	}
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal fixture %s: %w", fixture.Name, err)
	}
	path := filepath.Join(dir, fixture.Name+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write fixture %s: %w", fixture.Name, err)
	}
	return nil
}

// writeStubModels lays out labels and the fallback array the way the models
// dir resolver expects them. No ONNX model is written.
func writeStubModels(dir string, rows int, labels []string, seed int64) error {
	if rows <= 0 {
		return fmt.Errorf("rows must be positive, got %d", rows)
	}
	if len(labels) == 0 {
		return fmt.Errorf("at least one label is required")
	}

	classifierDir := filepath.Join(dir, models.TypeClassifier)
	featuresDir := filepath.Join(dir, models.TypeFeatures)
	for _, d := range []string{classifierDir, featuresDir} {
		if err := testutil.EnsureDir(d); err != nil {
			return err
		}
	}

	labelsPath := filepath.Join(classifierDir, models.ClassifierLabels)
	if err := os.WriteFile(labelsPath, []byte(strings.Join(labels, "\n")+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write labels: %w", err)
	}

	m := features.Matrix{
		Rows: rows,
		Cols: features.VectorLen,
		Data: mock.NewRandomFeatures(rows, features.VectorLen, seed),
	}
	f, err := os.Create(filepath.Join(featuresDir, models.TestFeatures)) //nolint:gosec // G304: path under testdata
	if err != nil {
		return fmt.Errorf("failed to create feature array: %w", err)
	}
	if err := features.WriteNPY(f, m); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write feature array: %w", err)
	}
	return f.Close()
}
