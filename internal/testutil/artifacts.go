package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/langid/internal/features"
	"github.com/MeKo-Tech/langid/internal/onnx/mock"
	"github.com/stretchr/testify/require"
)

// WriteFeatureArray writes rows random feature rows as a .npy file in dir.
func WriteFeatureArray(t *testing.T, dir string, rows int) string {
	t.Helper()

	m := features.Matrix{
		Rows: rows,
		Cols: features.VectorLen,
		Data: mock.NewRandomFeatures(rows, features.VectorLen, int64(rows)),
	}
	require.NoError(t, EnsureDir(dir))
	path := filepath.Join(dir, "test_features.npy")
	f, err := os.Create(path) //nolint:gosec // G304: test temp dir
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()
	require.NoError(t, features.WriteNPY(f, m))
	return path
}

// WriteLabels writes codes one per line as labels.txt in dir.
func WriteLabels(t *testing.T, dir string, codes ...string) string {
	t.Helper()

	require.NoError(t, EnsureDir(dir))
	path := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(codes, "\n")+"\n"), 0o600))
	return path
}

// ModelsDir creates a models directory with a fallback array of rows rows and
// a label file. No ONNX model is written.
func ModelsDir(t *testing.T, rows int, codes ...string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "models")
	WriteFeatureArray(t, dir, rows)
	WriteLabels(t, dir, codes...)
	return dir
}
