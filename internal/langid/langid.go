// Package langid ties script detection, feature extraction and the classifier
// together into a single prediction call.
package langid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/MeKo-Tech/langid/internal/classifier"
	"github.com/MeKo-Tech/langid/internal/features"
	"github.com/MeKo-Tech/langid/internal/metrics"
	"github.com/MeKo-Tech/langid/internal/script"
)

// Kind tags the variant held by Preprocessed.
type Kind int

const (
	// KindFeatures carries a feature matrix for the classifier.
	KindFeatures Kind = iota
	// KindLabel carries a final rule-based language code.
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindFeatures:
		return "features"
	case KindLabel:
		return "label"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Branch names the path a text took through preprocessing.
type Branch string

const (
	BranchAlphabet Branch = "alphabet"
	BranchKorean   Branch = "korean"
	BranchJapanese Branch = "japanese"
	BranchFallback Branch = "fallback"
)

// Preprocessed is the outcome of Preprocess: either features or a label.
type Preprocessed struct {
	Kind     Kind
	Branch   Branch
	Features features.Matrix
	Label    string
	// Script is zero for the fallback branch.
	Script script.Result
	// Text is the input the value was derived from.
	Text string
}

// Detection is the detailed result of Detect.
type Detection struct {
	Text        string                  `json:"-"`
	Branch      Branch                  `json:"branch"`
	Script      *script.Result          `json:"script,omitempty"`
	Codes       []string                `json:"codes"`
	Predictions []classifier.Prediction `json:"predictions,omitempty"`
	Backend     string                  `json:"backend,omitempty"`
	Duration    time.Duration           `json:"duration"`
}

// Config configures a Service.
type Config struct {
	// Threshold is the script coverage ratio a class needs to win.
	Threshold float64
	// TestFeaturesPath is the .npy array used when no text is given.
	TestFeaturesPath string
}

// DefaultConfig returns the standard threshold without artifact paths.
func DefaultConfig() Config {
	return Config{Threshold: script.DefaultThreshold}
}

// Validate checks the threshold range.
func (c Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %v", c.Threshold)
	}
	return nil
}

// Service predicts languages. It is safe for concurrent use when its Opener is.
type Service struct {
	cfg     Config
	opener  classifier.Opener
	metrics *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records predictions in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a Service around opener.
func New(cfg Config, opener classifier.Opener, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opener == nil {
		return nil, errors.New("classifier opener cannot be nil")
	}
	s := &Service{cfg: cfg, opener: opener}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the opener and any cached classifiers.
func (s *Service) Close() error {
	return s.opener.Close()
}

// Preprocess routes text to a rule-based label or a feature matrix. Empty text
// loads the fallback feature array without running script detection.
//
// On the alphabet branch the feature row comes from a buffer pool. Callers
// that go on to Predict should call p.Features.Release() once they are done
// with p; Detect does this itself.
func (s *Service) Preprocess(text string) (Preprocessed, error) {
	if text == "" {
		m, err := features.LoadNPY(s.cfg.TestFeaturesPath)
		if err != nil {
			return Preprocessed{}, fmt.Errorf("fallback features: %w", err)
		}
		return Preprocessed{Kind: KindFeatures, Branch: BranchFallback, Features: m}, nil
	}

	res, err := script.Detect(text, s.cfg.Threshold)
	if err != nil {
		return Preprocessed{}, err
	}

	if code, ok := res.Code(); ok {
		branch := BranchJapanese
		if res.Class == script.Hangul {
			branch = BranchKorean
		}
		return Preprocessed{Kind: KindLabel, Branch: branch, Label: code, Script: res, Text: text}, nil
	}

	m, err := features.FromText(res.Alpha)
	if err != nil {
		return Preprocessed{}, err
	}
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		minVal, maxVal, sum := features.Stats(m.Row(0))
		slog.Debug("Built feature vector",
			"alpha_len", res.AlphaCount, "ratio", res.AlphaRatio, "min", minVal, "max", maxVal, "sum", sum)
	}
	return Preprocessed{Kind: KindFeatures, Branch: BranchAlphabet, Features: m, Script: res, Text: text}, nil
}

// Predict resolves a preprocessed value to language codes. Labels are returned
// as-is; features go through a freshly acquired classifier.
func (s *Service) Predict(ctx context.Context, p Preprocessed) ([]string, error) {
	preds, _, err := s.predict(ctx, p)
	if err != nil {
		return nil, err
	}
	return classifier.Codes(preds), nil
}

func (s *Service) predict(ctx context.Context, p Preprocessed) ([]classifier.Prediction, string, error) {
	if p.Kind == KindLabel {
		return []classifier.Prediction{{Code: p.Label, Confidence: 1}}, "", nil
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	c, release, err := s.opener.Acquire(ctx)
	if err != nil {
		s.metrics.RecordError("load")
		return nil, "", fmt.Errorf("failed to load classifier: %w", err)
	}
	defer release()

	in := classifier.Input{Features: p.Features, Alpha: p.Script.Alpha, Text: p.Text}
	preds, err := c.Predict(ctx, in)
	if err != nil {
		s.metrics.RecordError("predict")
		return nil, c.Name(), fmt.Errorf("%s prediction failed: %w", c.Name(), err)
	}
	return preds, c.Name(), nil
}

// PredictMainStream returns the language codes of text: one code for non-empty
// text, one per fallback row for empty text.
func (s *Service) PredictMainStream(ctx context.Context, text string) ([]string, error) {
	d, err := s.Detect(ctx, text)
	if err != nil {
		return nil, err
	}
	return d.Codes, nil
}

// Detect is PredictMainStream with the branch, script measurements, confidences
// and elapsed time.
func (s *Service) Detect(ctx context.Context, text string) (Detection, error) {
	start := time.Now()

	p, err := s.Preprocess(text)
	if err != nil {
		s.metrics.RecordError("preprocess")
		return Detection{}, err
	}
	defer p.Features.Release()

	preds, backend, err := s.predict(ctx, p)
	if err != nil {
		return Detection{}, err
	}

	d := Detection{
		Text:        text,
		Branch:      p.Branch,
		Codes:       classifier.Codes(preds),
		Predictions: preds,
		Backend:     backend,
		Duration:    time.Since(start),
	}
	if p.Branch != BranchFallback {
		res := p.Script
		d.Script = &res
	}

	s.metrics.RecordPrediction(string(d.Branch), d.Codes, utf8.RuneCountInString(text), d.Duration)
	slog.Debug("Detected language", "branch", d.Branch, "codes", d.Codes, "backend", backend, "took", d.Duration)
	return d, nil
}
