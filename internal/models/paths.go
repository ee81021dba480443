package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names.
const (
	// ClassifierModel is the ONNX export of the pretrained language classifier.
	ClassifierModel = "ml.onnx"
	// ClassifierLabels lists the classifier's classes in output order, one per line.
	ClassifierLabels = "labels.txt"
	// TestFeatures is the fallback feature array used when no text is given.
	TestFeatures = "test_features.npy"
)

// Artifact type categories for the organized directory structure.
const (
	TypeClassifier = "classifier"
	TypeFeatures   = "features"
)

// DefaultModelsDir is the models directory name relative to the project root.
const DefaultModelsDir = "models"

// EnvModelsDir overrides the models directory.
const EnvModelsDir = "LANGID_MODELS_DIR"

// ErrArtifactNotFound is returned by ValidateArtifactExists.
var ErrArtifactNotFound = errors.New("artifact not found")

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.New("could not find project root (go.mod not found)")
}

// ArtifactInfo describes a file the classifier depends on.
type ArtifactInfo struct {
	Name        string
	Type        string
	Description string
	Filename    string
}

// GetModelsDir returns the models directory path from various sources
// Priority: 1. Explicit modelsDir parameter, 2. Environment variable, 3. Project root + default.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}

	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}

	if projectRoot, err := findProjectRoot(); err == nil {
		return filepath.Join(projectRoot, DefaultModelsDir)
	}

	return DefaultModelsDir
}

// ResolveArtifactPath resolves an artifact filename to its full path. The organized
// layout (<dir>/<type>/<file>) wins when present, otherwise the flat layout is used.
func ResolveArtifactPath(modelsDir, artifactType, filename string) string {
	baseDir := GetModelsDir(modelsDir)

	if artifactType != "" {
		organizedPath := filepath.Join(baseDir, artifactType, filename)
		if _, err := os.Stat(organizedPath); err == nil {
			return organizedPath
		}
	}

	return filepath.Join(baseDir, filename)
}

// GetClassifierModelPath returns the path of the classifier model.
func GetClassifierModelPath(modelsDir string) string {
	return ResolveArtifactPath(modelsDir, TypeClassifier, ClassifierModel)
}

// GetLabelsPath returns the path of the classifier label file.
func GetLabelsPath(modelsDir string) string {
	return ResolveArtifactPath(modelsDir, TypeClassifier, ClassifierLabels)
}

// GetTestFeaturesPath returns the path of the fallback feature array.
func GetTestFeaturesPath(modelsDir string) string {
	return ResolveArtifactPath(modelsDir, TypeFeatures, TestFeatures)
}

// ValidateArtifactExists checks that an artifact file exists at the given path.
func ValidateArtifactExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
	}
	return nil
}

// ListArtifacts returns information about the artifacts the classifier uses.
func ListArtifacts() []ArtifactInfo {
	return []ArtifactInfo{
		{
			Name:        "classifier",
			Type:        TypeClassifier,
			Description: "Pretrained code-point frequency classifier (ONNX)",
			Filename:    ClassifierModel,
		},
		{
			Name:        "labels",
			Type:        TypeClassifier,
			Description: "Classifier class labels in output order",
			Filename:    ClassifierLabels,
		},
		{
			Name:        "test-features",
			Type:        TypeFeatures,
			Description: "Fallback feature matrix used when no text is supplied",
			Filename:    TestFeatures,
		},
	}
}
