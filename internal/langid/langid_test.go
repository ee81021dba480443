package langid

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/MeKo-Tech/langid/internal/classifier"
	"github.com/MeKo-Tech/langid/internal/features"
	"github.com/MeKo-Tech/langid/internal/metrics"
	"github.com/MeKo-Tech/langid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingClassifier answers code for every row and remembers its inputs.
type recordingClassifier struct {
	code string

	mu     sync.Mutex
	inputs []classifier.Input
}

func (r *recordingClassifier) Predict(_ context.Context, in classifier.Input) ([]classifier.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Detect releases pooled rows once Predict returns.
	in.Features = features.Matrix{Rows: in.Features.Rows, Cols: in.Features.Cols, Data: slices.Clone(in.Features.Data)}
	r.inputs = append(r.inputs, in)
	out := make([]classifier.Prediction, in.Features.Rows)
	for i := range out {
		out[i] = classifier.Prediction{Code: r.code, Confidence: 0.9}
	}
	return out, nil
}

func (r *recordingClassifier) Name() string { return "recording" }
func (r *recordingClassifier) Close() error { return nil }

func (r *recordingClassifier) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inputs)
}

func newService(t *testing.T, rows int, opts ...Option) (*Service, *recordingClassifier) {
	t.Helper()

	dir := testutil.ModelsDir(t, rows, "en", "fr")
	rec := &recordingClassifier{code: "en"}
	opener := classifier.NewDiskOpener(classifier.DefaultConfig(), func(classifier.Config) (classifier.Classifier, error) {
		return rec, nil
	}, nil)

	cfg := DefaultConfig()
	cfg.TestFeaturesPath = filepath.Join(dir, "test_features.npy")
	s, err := New(cfg, opener, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s, rec
}

func TestPredictMainStream_Fixtures(t *testing.T) {
	for _, f := range testutil.SampleFixtures() {
		t.Run(f.Name, func(t *testing.T) {
			s, rec := newService(t, 1)

			d, err := s.Detect(context.Background(), f.Text)
			require.NoError(t, err)
			assert.Equal(t, Branch(f.Branch), d.Branch)

			if f.Codes != nil {
				assert.Equal(t, f.Codes, d.Codes)
				assert.Zero(t, rec.calls(), "rule-based branches never reach the classifier")
			} else {
				assert.Equal(t, []string{"en"}, d.Codes)
				assert.Equal(t, 1, rec.calls())
			}
		})
	}
}

func TestPredictMainStream_ResnikUsesAlphabetText(t *testing.T) {
	s, rec := newService(t, 1)

	codes, err := s.PredictMainStream(context.Background(), testutil.ResnikSample)
	require.NoError(t, err)
	assert.Equal(t, []string{"en"}, codes)

	require.Equal(t, 1, rec.calls())
	in := rec.inputs[0]
	assert.Equal(t, 1, in.Features.Rows)
	assert.Equal(t, features.VectorLen, in.Features.Cols)
	assert.NotContains(t, in.Alpha, " ")
	assert.Equal(t, testutil.ResnikSample, in.Text)
	_, _, sum := features.Stats(in.Features.Row(0))
	assert.InDelta(t, 1.0, sum, 1e-4)
}

func TestPredictMainStream_EmptyTextUsesFallback(t *testing.T) {
	s, rec := newService(t, 3)

	d, err := s.Detect(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, BranchFallback, d.Branch)
	assert.Nil(t, d.Script, "no ratios are computed for the fallback")
	assert.Equal(t, []string{"en", "en", "en"}, d.Codes)

	require.Equal(t, 1, rec.calls())
	assert.Equal(t, 3, rec.inputs[0].Features.Rows)
	assert.Empty(t, rec.inputs[0].Alpha)
}

func TestPreprocess(t *testing.T) {
	s, _ := newService(t, 1)

	p, err := s.Preprocess("안녕하세요")
	require.NoError(t, err)
	assert.Equal(t, KindLabel, p.Kind)
	assert.Equal(t, "ko", p.Label)
	assert.Equal(t, BranchKorean, p.Branch)

	p, err = s.Preprocess("hello")
	require.NoError(t, err)
	assert.Equal(t, KindFeatures, p.Kind)
	assert.Equal(t, "hello", p.Script.Alpha)
	require.NoError(t, p.Features.Validate())

	// Half alphabet is inclusive.
	p, err = s.Preprocess("ab12")
	require.NoError(t, err)
	assert.Equal(t, BranchAlphabet, p.Branch)

	p, err = s.Preprocess("ab123")
	require.NoError(t, err)
	assert.Equal(t, BranchJapanese, p.Branch)
	assert.Equal(t, "jp", p.Label)
}

func TestPreprocess_ReleasedRowIsRebuilt(t *testing.T) {
	s, rec := newService(t, 1)

	p, err := s.Preprocess("hello")
	require.NoError(t, err)
	want := slices.Clone(p.Features.Data)
	codes, err := s.Predict(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []string{"en"}, codes)
	p.Features.Release()

	// A recycled buffer must come back fully rewritten.
	p, err = s.Preprocess("hello")
	require.NoError(t, err)
	defer p.Features.Release()
	assert.Equal(t, want, p.Features.Data)
	assert.Equal(t, 1, rec.calls())
}

func TestPreprocess_MissingFallbackArray(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TestFeaturesPath = filepath.Join(t.TempDir(), "missing.npy")
	s, err := New(cfg, classifier.NewDiskOpener(classifier.DefaultConfig(), nil, nil))
	require.NoError(t, err)

	_, err = s.Preprocess("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback features")
}

func TestPredict_LabelSkipsClassifier(t *testing.T) {
	s, rec := newService(t, 1)

	codes, err := s.Predict(context.Background(), Preprocessed{Kind: KindLabel, Label: "jp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"jp"}, codes)
	assert.Zero(t, rec.calls())
}

func TestPredict_CanceledContext(t *testing.T) {
	s, rec := newService(t, 1)
	p, err := s.Preprocess("hello world")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Predict(ctx, p)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rec.calls())
}

func TestPredict_LoadErrorSurfaces(t *testing.T) {
	cfg := classifier.DefaultConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "ml.onnx")
	cfg.LabelsPath = filepath.Join(t.TempDir(), "labels.txt")
	m := metrics.New()

	s, err := New(DefaultConfig(), classifier.NewDiskOpener(cfg, nil, m.RecordLoad), WithMetrics(m))
	require.NoError(t, err)

	_, err = s.PredictMainStream(context.Background(), "hello world")
	require.ErrorIs(t, err, classifier.ErrModelNotFound)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "langid_artifact_loads_total")
	assert.Contains(t, names, "langid_errors_total")
}

func TestService_Concurrent(t *testing.T) {
	s, rec := newService(t, 1)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text := "hello world"
			if i%2 == 0 {
				text = "안녕하세요"
			}
			_, err := s.PredictMainStream(context.Background(), text)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, rec.calls())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Threshold: 0}, classifier.NewDiskOpener(classifier.DefaultConfig(), nil, nil))
	require.Error(t, err)

	_, err = New(DefaultConfig(), nil)
	require.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "features", KindFeatures.String())
	assert.Equal(t, "label", KindLabel.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}
