package langid

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_CaseInvariance(t *testing.T) {
	s, _ := newService(t, 1)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("upper and lower case texts get the same codes", prop.ForAll(
		func(text string) bool {
			a, errA := s.PredictMainStream(context.Background(), strings.ToUpper(text))
			b, errB := s.PredictMainStream(context.Background(), strings.ToLower(text))
			if errA != nil || errB != nil {
				return false
			}
			return strings.Join(a, ",") == strings.Join(b, ",")
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.TestingRun(t)
}

func TestProperty_RuleBranchesNeverCallClassifier(t *testing.T) {
	s, rec := newService(t, 1)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("hangul-only text is ko", prop.ForAll(
		func(runes []rune) bool {
			codes, err := s.PredictMainStream(context.Background(), string(runes))
			return err == nil && len(codes) == 1 && codes[0] == "ko"
		},
		gen.SliceOf(gen.RuneRange('가', '힣')).SuchThat(func(r []rune) bool { return len(r) > 0 }),
	))

	properties.Property("digit-only text is jp", prop.ForAll(
		func(runes []rune) bool {
			codes, err := s.PredictMainStream(context.Background(), string(runes))
			return err == nil && len(codes) == 1 && codes[0] == "jp"
		},
		gen.SliceOf(gen.RuneRange('0', '9')).SuchThat(func(r []rune) bool { return len(r) > 0 }),
	))

	properties.TestingRun(t)

	if rec.calls() != 0 {
		t.Fatalf("classifier called %d times", rec.calls())
	}
}
