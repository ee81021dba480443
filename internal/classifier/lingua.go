package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// LinguaClassifier classifies the alphabet text with lingua's n-gram models
// instead of the code-point histogram. It cannot score bare feature rows.
type LinguaClassifier struct {
	detector lingua.LanguageDetector
	codes    []string
}

// NewLinguaClassifier builds a detector restricted to the given ISO 639-1 codes.
func NewLinguaClassifier(codes []string) (*LinguaClassifier, error) {
	if len(codes) < 2 {
		return nil, fmt.Errorf("lingua needs at least 2 languages, got %d", len(codes))
	}

	all := map[string]lingua.Language{}
	for _, l := range lingua.AllLanguages() {
		all[normalizeCode(l.IsoCode639_1().String())] = l
	}

	langs := make([]lingua.Language, 0, len(codes))
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		c := normalizeCode(code)
		l, ok := all[c]
		if !ok {
			return nil, fmt.Errorf("unsupported language: %s", code)
		}
		langs = append(langs, l)
		normalized = append(normalized, c)
	}

	return &LinguaClassifier{
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(langs...).Build(),
		codes:    normalized,
	}, nil
}

// Name returns the backend name.
func (c *LinguaClassifier) Name() string { return BackendLingua }

// Languages returns the configured codes.
func (c *LinguaClassifier) Languages() []string { return c.codes }

// Close is a no-op.
func (c *LinguaClassifier) Close() error { return nil }

// Predict classifies in.Text, or in.Alpha when the original text is absent.
func (c *LinguaClassifier) Predict(ctx context.Context, in Input) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := in.Text
	if strings.TrimSpace(text) == "" {
		text = in.Alpha
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrTextRequired
	}

	var (
		best lingua.Language
		conf float64
	)
	for _, cv := range c.detector.ComputeLanguageConfidenceValues(text) {
		if cv.Value() > conf {
			best = cv.Language()
			conf = cv.Value()
		}
	}
	if conf == 0 {
		return nil, ErrUndetermined
	}

	return []Prediction{{
		Code:       normalizeCode(best.IsoCode639_1().String()),
		Confidence: conf,
	}}, nil
}
