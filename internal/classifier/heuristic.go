package classifier

import (
	"context"
	"unicode"
)

// HeuristicClassifier guesses a Latin-script language from diacritics. It
// needs no artifacts and is used when the model cannot be loaded.
type HeuristicClassifier struct{}

// NewHeuristicClassifier returns the diacritic heuristic backend.
func NewHeuristicClassifier() *HeuristicClassifier { return &HeuristicClassifier{} }

// Name returns the backend name.
func (*HeuristicClassifier) Name() string { return BackendHeuristic }

// Close is a no-op.
func (*HeuristicClassifier) Close() error { return nil }

// Predict applies GuessLatin to in.Text, or in.Alpha when Text is empty.
func (*HeuristicClassifier) Predict(ctx context.Context, in Input) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := in.Text
	if text == "" {
		text = in.Alpha
	}
	if text == "" {
		return nil, ErrTextRequired
	}
	code, conf := GuessLatin(text)
	if code == "" {
		return nil, ErrUndetermined
	}
	return []Prediction{{Code: code, Confidence: conf}}, nil
}

// GuessLatin returns "de", "fr", "es" when that language's diacritics
// dominate, "en" for mostly plain ASCII letters, and "" otherwise. The second
// value is a rough confidence in [0, 1].
func GuessLatin(s string) (string, float64) {
	var letters, ascii, german, french, spanish int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
		}
		switch {
		case r <= 0x007F:
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				ascii++
			}
		case r >= 0x00C0 && r <= 0x017F:
			switch r {
			case 'ä', 'ö', 'ü', 'Ä', 'Ö', 'Ü', 'ß':
				german++
			case 'è', 'ê', 'à', 'ù', 'ç', 'È', 'À', 'Ç':
				french++
			case 'á', 'í', 'ó', 'ú', 'ñ', 'Á', 'Í', 'Ó', 'Ú', 'Ñ':
				spanish++
			}
		}
	}
	if letters == 0 {
		return "", 0
	}

	marked := german + french + spanish
	share := func(n int) float64 { return float64(n) / float64(marked) }
	switch {
	case german > french && german > spanish:
		return "de", share(german)
	case french > german && french > spanish:
		return "fr", share(french)
	case spanish > german && spanish > french:
		return "es", share(spanish)
	}

	if ascii > 0 && ascii*100/letters > 80 {
		return "en", float64(ascii) / float64(letters)
	}
	return "", 0
}
