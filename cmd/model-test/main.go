package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/langid/internal/classifier"
	"github.com/MeKo-Tech/langid/internal/config"
	"github.com/MeKo-Tech/langid/internal/features"
	"github.com/MeKo-Tech/langid/internal/langid"
	"github.com/MeKo-Tech/langid/internal/onnx"
	"github.com/MeKo-Tech/langid/internal/testutil"
	onnxrt "github.com/yalue/onnxruntime_go"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	modelsDir := flag.String("models", "", "Directory containing the classifier artifacts (default: resolved models dir)")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *modelsDir != "" {
		cfg.ModelsDir = *modelsDir
	}
	cc := cfg.ToClassifierConfig()
	sc := cfg.ToServiceConfig()

	fmt.Println("Testing language classifier artifacts...")
	fmt.Println("=========================================")

	ok := checkLabels(cc.LabelsPath)
	ok = checkFeatures(sc.TestFeaturesPath) && ok

	if err := onnx.Initialize(false); err != nil {
		fmt.Printf("❌ ONNX Runtime: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := onnxrt.DestroyEnvironment(); err != nil {
			slog.Error("Failed to destroy ONNX Runtime environment", "error", err)
		}
	}()

	ok = describeModel(cc.ModelPath) && ok
	if ok {
		ok = runSamples(cc, sc)
	}

	fmt.Println()
	if !ok {
		fmt.Println("Model compatibility test failed")
		os.Exit(1)
	}
	fmt.Println("Model compatibility test completed!")
}

func checkLabels(path string) bool {
	labels, err := classifier.LoadLabels(path)
	if err != nil {
		fmt.Printf("❌ %s: %v\n", path, err)
		return false
	}
	fmt.Printf("✅ %s: %d classes\n", path, labels.Size())
	return true
}

func checkFeatures(path string) bool {
	m, err := features.LoadNPY(path)
	if err != nil {
		fmt.Printf("❌ %s: %v\n", path, err)
		return false
	}
	fmt.Printf("✅ %s: %d x %d\n", path, m.Rows, m.Cols)
	return true
}

func describeModel(path string) bool {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("❌ %s: File not found\n", path)
		return false
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(path)
	if err != nil {
		fmt.Printf("❌ %s: Failed to get model info - %v\n", path, err)
		return false
	}

	fmt.Printf("✅ %s: Compatible with ONNX Runtime\n", path)
	fmt.Printf("   - Inputs: %d\n", len(inputs))
	for i, input := range inputs {
		fmt.Printf("     [%d] %s: %v (type: %s)\n", i, input.Name, input.Dimensions, input.DataType)
	}
	fmt.Printf("   - Outputs: %d\n", len(outputs))
	for i, output := range outputs {
		fmt.Printf("     [%d] %s: %v (type: %s)\n", i, output.Name, output.Dimensions, output.DataType)
	}

	metadata, err := onnxrt.GetModelMetadata(path)
	if err == nil {
		if producer, err := metadata.GetProducerName(); err == nil && producer != "" {
			fmt.Printf("   - Producer: %s\n", producer)
		}
		if version, err := metadata.GetVersion(); err == nil {
			fmt.Printf("   - Version: %d\n", version)
		}
		if err := metadata.Destroy(); err != nil {
			slog.Error("Failed to destroy model metadata", "error", err)
		}
	}
	return true
}

// runSamples predicts the fallback rows and the English reference sentence.
func runSamples(cc classifier.Config, sc langid.Config) bool {
	svc, err := langid.New(sc, classifier.NewDiskOpener(cc, nil, nil))
	if err != nil {
		fmt.Printf("❌ service: %v\n", err)
		return false
	}
	defer func() { _ = svc.Close() }()

	ctx := context.Background()
	for _, sample := range []struct{ name, text string }{
		{"fallback features", ""},
		{"resnik", testutil.ResnikSample},
	} {
		d, err := svc.Detect(ctx, sample.text)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", sample.name, err)
			return false
		}
		fmt.Printf("✅ %s: %v (%s, %v)\n", sample.name, d.Codes, d.Branch, d.Duration)
	}
	return true
}
