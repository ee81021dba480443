package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadLabels(t *testing.T) {
	p := writeFile(t, "labels.txt", "\uFEFFen\n fr \n\ntl\r\nid\n")

	labels, err := LoadLabels(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr", "tl", "id"}, labels.Codes)
	assert.Equal(t, 4, labels.Size())
	assert.Equal(t, "tl", labels.Code(2))
	assert.Equal(t, 1, labels.Index("fr"))
	assert.Equal(t, -1, labels.Index("de"))
	assert.Empty(t, labels.Code(9))
	assert.Empty(t, labels.Code(-1))
}

func TestLoadLabels_Errors(t *testing.T) {
	_, err := LoadLabels("")
	require.Error(t, err)

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	_, err = LoadLabels(writeFile(t, "empty.txt", "\n  \n"))
	require.ErrorIs(t, err, ErrNoLabels)
}

func TestNewLabels_DuplicatesKeepFirstIndex(t *testing.T) {
	labels := NewLabels([]string{"en", "fr", "en"})
	assert.Equal(t, 0, labels.Index("en"))
	assert.Equal(t, 3, labels.Size())
}

func TestLabels_Nil(t *testing.T) {
	var labels *Labels
	assert.Equal(t, 0, labels.Size())
	assert.Empty(t, labels.Code(0))
	assert.Equal(t, -1, labels.Index("en"))
}
