// Package classifier wraps the pretrained language classifier behind a small
// interface with interchangeable backends.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/MeKo-Tech/langid/internal/features"
	"github.com/MeKo-Tech/langid/internal/onnx"
)

// Backend names.
const (
	BackendONNX      = "onnx"
	BackendLingua    = "lingua"
	BackendHeuristic = "heuristic"
)

// DefaultOutputName is the score output name skl2onnx emits with zipmap disabled.
const DefaultOutputName = "probabilities"

// DefaultLanguages is the label set of the reference model.
var DefaultLanguages = []string{"en", "fr", "tl", "id"}

var (
	// ErrModelNotFound is returned when the model artifact does not exist.
	ErrModelNotFound = errors.New("model artifact not found")
	// ErrNoLabels is returned for an empty label file.
	ErrNoLabels = errors.New("no labels")
	// ErrTextRequired is returned by text-level backends given features only.
	ErrTextRequired = errors.New("backend needs text, not only features")
	// ErrUndetermined is returned when a backend cannot settle on a language.
	ErrUndetermined = errors.New("language could not be determined")
	// ErrClosed is returned when predicting with a closed classifier.
	ErrClosed = errors.New("classifier closed")
)

// Input is one classifier invocation.
type Input struct {
	// Features holds one row per sample.
	Features features.Matrix
	// Alpha is the alphabet-only text behind a single-row matrix. It is empty
	// when the features came from the fallback array.
	Alpha string
	// Text is the original text behind Alpha.
	Text string
}

// Prediction is the classifier's answer for one sample.
type Prediction struct {
	Code       string  `json:"code"`
	Confidence float64 `json:"confidence"`
}

// Codes extracts the language codes of predictions.
func Codes(preds []Prediction) []string {
	out := make([]string, len(preds))
	for i, p := range preds {
		out[i] = p.Code
	}
	return out
}

// Classifier maps feature rows to language codes.
type Classifier interface {
	Predict(ctx context.Context, in Input) ([]Prediction, error)
	Name() string
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend    string
	ModelPath  string
	LabelsPath string
	OutputName string
	// Languages restricts text-level backends.
	Languages []string
	Session   onnx.SessionConfig
	// HeuristicFallback serves predictions from the heuristic backend when the
	// configured backend fails to load.
	HeuristicFallback bool
}

// DefaultConfig returns an ONNX configuration without artifact paths.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendONNX,
		OutputName: DefaultOutputName,
		Languages:  slices.Clone(DefaultLanguages),
		Session:    onnx.DefaultSessionConfig(),
	}
}

// Validate checks that the configuration names a usable backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendONNX:
		if c.ModelPath == "" {
			return errors.New("model path cannot be empty")
		}
		if c.LabelsPath == "" {
			return errors.New("labels path cannot be empty")
		}
		return c.Session.Validate()
	case BackendLingua:
		if len(c.Languages) < 2 {
			return fmt.Errorf("lingua needs at least 2 languages, got %d", len(c.Languages))
		}
		return nil
	case BackendHeuristic:
		return nil
	default:
		return fmt.Errorf("unknown classifier backend %q", c.Backend)
	}
}

// Load builds the configured backend, reading its artifacts from disk.
func Load(cfg Config) (Classifier, error) {
	var (
		c   Classifier
		err error
	)
	switch cfg.Backend {
	case BackendONNX:
		c, err = NewONNXClassifier(cfg)
	case BackendLingua:
		c, err = NewLinguaClassifier(cfg.Languages)
	case BackendHeuristic:
		return NewHeuristicClassifier(), nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
	if err != nil && cfg.HeuristicFallback {
		slog.Warn("Classifier unavailable, using heuristic fallback", "backend", cfg.Backend, "error", err)
		return NewHeuristicClassifier(), nil
	}
	return c, err
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
