package benchmark

import (
	"context"
	"testing"

	"github.com/MeKo-Tech/langid/internal/classifier"
	"github.com/MeKo-Tech/langid/internal/langid"
	"github.com/MeKo-Tech/langid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuiteRun_HeuristicService(t *testing.T) {
	cc := classifier.Config{Backend: classifier.BackendHeuristic}

	reload, err := langid.New(langid.DefaultConfig(), classifier.NewDiskOpener(cc, nil, nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reload.Close() })

	opener, err := classifier.NewCachedOpener(cc, 1, nil, nil)
	require.NoError(t, err)
	cached, err := langid.New(langid.DefaultConfig(), opener)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cached.Close() })

	var texts []string
	for _, f := range testutil.SampleFixtures() {
		texts = append(texts, f.Text)
	}

	s := NewSuite(texts)
	s.Add("reload", reload)
	s.Add("cached", cached)
	results, err := s.Run(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, 2*len(texts), r.Detections+r.Failures, r.Name)
		assert.Equal(t, 2, r.Branches[langid.BranchKorean], r.Name)
		assert.Positive(t, r.Branches[langid.BranchJapanese], r.Name)
	}
	assert.Equal(t, 1, opener.Len())
}
