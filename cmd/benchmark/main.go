package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/langid/internal/benchmark"
	"github.com/MeKo-Tech/langid/internal/classifier"
	"github.com/MeKo-Tech/langid/internal/config"
	"github.com/MeKo-Tech/langid/internal/langid"
	"github.com/MeKo-Tech/langid/internal/testutil"
)

func main() {
	var (
		modelsDir  = flag.String("models", "", "Directory containing the classifier artifacts (default: resolved models dir)")
		backend    = flag.String("backend", classifier.BackendONNX, "Classifier backend: onnx, lingua or heuristic")
		iterations = flag.Int("iterations", 3, "Passes over the sample texts per benchmark")
		outputFile = flag.String("output", "", "Write results as CSV to this file (optional)")
		fallback   = flag.Bool("heuristic-fallback", false, "Use the heuristic when the model cannot be loaded")
		verbose    = flag.Bool("verbose", false, "Verbose output")
	)
	flag.Parse()

	fmt.Println("langid classifier loading benchmark")
	fmt.Println("===================================")

	cfg := config.DefaultConfig()
	if *modelsDir != "" {
		if _, err := os.Stat(*modelsDir); os.IsNotExist(err) {
			log.Fatalf("Models directory not found: %s", *modelsDir)
		}
		cfg.ModelsDir = *modelsDir
	}
	cfg.Classifier.Backend = *backend
	cfg.Classifier.HeuristicFallback = *fallback
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	texts := sampleTexts()
	if *verbose {
		fmt.Printf("Models dir: %s\nBackend: %s\nTexts: %d\n", cfg.ModelsDir, *backend, len(texts))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	suite, cleanup, err := buildSuite(&cfg, texts)
	if err != nil {
		log.Fatalf("Failed to set up benchmark: %v", err)
	}
	defer cleanup()

	fmt.Printf("Running benchmarks with %d iterations per test...\n\n", *iterations)
	results, err := suite.Run(ctx, *iterations)
	benchmark.PrintResults(os.Stdout, results)
	if err != nil {
		log.Printf("Benchmark interrupted: %v", err)
	}

	if *outputFile != "" {
		if err := saveResultsToFile(*outputFile, results); err != nil {
			log.Printf("Failed to save results to file: %v", err)
		} else {
			fmt.Printf("Results saved to: %s\n", *outputFile)
		}
	}
}

func sampleTexts() []string {
	fixtures := testutil.SampleFixtures()
	texts := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		texts = append(texts, f.Text)
	}
	return texts
}

// buildSuite registers the same configuration twice: reloading the classifier
// per call, and keeping it in the LRU cache.
func buildSuite(cfg *config.Config, texts []string) (*benchmark.Suite, func(), error) {
	cc := cfg.ToClassifierConfig()
	sc := cfg.ToServiceConfig()

	reload, err := langid.New(sc, classifier.NewDiskOpener(cc, nil, nil))
	if err != nil {
		return nil, nil, err
	}
	opener, err := classifier.NewCachedOpener(cc, cfg.Classifier.CacheSize, nil, nil)
	if err != nil {
		_ = reload.Close()
		return nil, nil, err
	}
	cached, err := langid.New(sc, opener)
	if err != nil {
		_ = reload.Close()
		_ = opener.Close()
		return nil, nil, err
	}

	suite := benchmark.NewSuite(texts)
	suite.Add("reload", reload)
	suite.Add("cached", cached)
	cleanup := func() {
		_ = reload.Close()
		_ = cached.Close()
	}
	return suite, cleanup, nil
}

func saveResultsToFile(filename string, results []benchmark.Result) error {
	file, err := os.Create(filename) //nolint:gosec // G304: output path from command line
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()
	return benchmark.WriteCSV(file, results)
}
