package testutil

import (
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/langid/internal/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleFixtures(t *testing.T) {
	fixtures := SampleFixtures()
	require.NotEmpty(t, fixtures)
	for _, f := range fixtures {
		ValidateFixture(t, f)
	}
}

func TestSaveFixture(t *testing.T) {
	fixture := SampleFixtures()[2]
	path := SaveFixture(t, t.TempDir(), fixture)
	assert.True(t, FileExists(path))
}

func TestWriteFeatureArray(t *testing.T) {
	path := WriteFeatureArray(t, t.TempDir(), 3)

	m, err := features.LoadNPY(path)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Rows)
	assert.Equal(t, features.VectorLen, m.Cols)
}

func TestModelsDir(t *testing.T) {
	dir := ModelsDir(t, 2, "en", "fr")
	assert.True(t, FileExists(filepath.Join(dir, "labels.txt")))
	assert.True(t, FileExists(filepath.Join(dir, "test_features.npy")))
}

func TestLoadFixture(t *testing.T) {
	for _, name := range []string{"korean", "japanese", "half_hangul"} {
		t.Run(name, func(t *testing.T) {
			fixture := LoadFixture(t, name)
			assert.Equal(t, name, fixture.Name)
			ValidateFixture(t, fixture)
		})
	}
}
