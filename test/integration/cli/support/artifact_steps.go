package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/langid/internal/features"
	"github.com/MeKo-Tech/langid/internal/models"
	"github.com/MeKo-Tech/langid/internal/onnx/mock"
	"github.com/MeKo-Tech/langid/internal/testutil"
	"github.com/cucumber/godog"
)

// aModelsDirectoryWithFallbackRows writes labels.txt and a fallback feature
// array of rows rows into a fresh models directory. No ONNX model is written.
func (testCtx *TestContext) aModelsDirectoryWithFallbackRows(rows int) error {
	dir := filepath.Join(testCtx.TempDir, "models")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	labels := strings.Join([]string{"en", "fr", "tl", "id"}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, models.ClassifierLabels), []byte(labels), 0o600); err != nil {
		return fmt.Errorf("failed to write labels: %w", err)
	}

	m := features.Matrix{
		Rows: rows,
		Cols: features.VectorLen,
		Data: mock.NewRandomFeatures(rows, features.VectorLen, int64(rows)),
	}
	f, err := os.Create(filepath.Join(dir, models.TestFeatures)) //nolint:gosec // G304: temp dir
	if err != nil {
		return fmt.Errorf("failed to create feature array: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := features.WriteNPY(f, m); err != nil {
		return fmt.Errorf("failed to write feature array: %w", err)
	}

	testCtx.ModelsDir = dir
	testCtx.AddEnvVar(models.EnvModelsDir, dir)
	return nil
}

// theClassifierArtifactsAreAvailable uses a stub models directory.
func (testCtx *TestContext) theClassifierArtifactsAreAvailable() error {
	return testCtx.aModelsDirectoryWithFallbackRows(1)
}

// theONNXModelIsAvailable points at the real models directory, skipping the
// scenario when the trained model has not been exported.
func (testCtx *TestContext) theONNXModelIsAvailable() error {
	root, err := testutil.GetProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}
	dir := filepath.Join(root, models.DefaultModelsDir)
	for _, name := range []string{models.ClassifierModel, models.ClassifierLabels} {
		if _, err := os.Stat(models.ResolveArtifactPath(dir, models.TypeClassifier, name)); err != nil {
			return godog.ErrSkip
		}
	}
	testCtx.ModelsDir = dir
	testCtx.AddEnvVar(models.EnvModelsDir, dir)
	return nil
}

// anInputDirectory creates the directory batch scenarios read from.
func (testCtx *TestContext) anInputDirectory() error {
	dir := filepath.Join(testCtx.TempDir, "input")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create input directory: %w", err)
	}
	testCtx.InputDir = dir
	return nil
}

// aTextFileContaining writes content to name inside the input directory.
func (testCtx *TestContext) aTextFileContaining(name, content string) error {
	if testCtx.InputDir == "" {
		if err := testCtx.anInputDirectory(); err != nil {
			return err
		}
	}
	path := filepath.Join(testCtx.InputDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

// aFileWithInvalidUTF8 writes bytes that are not valid UTF-8.
func (testCtx *TestContext) aFileWithInvalidUTF8(name string) error {
	return testCtx.aTextFileContaining(name, string([]byte{0xff, 0xfe, 0xfd}))
}

// aConfigFileContaining writes langid.yaml content into the temp directory.
func (testCtx *TestContext) aConfigFileContaining(content *godog.DocString) error {
	path := filepath.Join(testCtx.TempDir, "langid.yaml")
	return os.WriteFile(path, []byte(content.Content), 0o600)
}

// RegisterArtifactSteps registers steps that prepare models and inputs.
func (testCtx *TestContext) RegisterArtifactSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the classifier artifacts are available$`, testCtx.theClassifierArtifactsAreAvailable)
	sc.Step(`^a models directory with (\d+) fallback rows?$`, testCtx.aModelsDirectoryWithFallbackRows)
	sc.Step(`^the ONNX model is available$`, testCtx.theONNXModelIsAvailable)
	sc.Step(`^an input directory$`, testCtx.anInputDirectory)
	sc.Step(`^a text file "([^"]*)" containing "([^"]*)"$`, testCtx.aTextFileContaining)
	sc.Step(`^a file "([^"]*)" with invalid UTF-8$`, testCtx.aFileWithInvalidUTF8)
	sc.Step(`^a config file containing:$`, testCtx.aConfigFileContaining)
}
