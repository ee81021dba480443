package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRootValidated(t *testing.T) {
	root, err := GetProjectRootValidated()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
	assert.True(t, DirExists(filepath.Join(root, "internal")))
}

func TestTestDataDirs(t *testing.T) {
	assert.Equal(t, "testdata", filepath.Base(GetTestDataDir(t)))
	assert.Equal(t, filepath.Join(GetTestDataDir(t), "fixtures"), GetFixturesDir(t))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(filepath.Join(dir, "missing")))
}

func TestReadModulePath(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadModulePath(dir)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("// c\nmodule example.com/x\n\ngo 1.25\n"), 0o600))
	mod, err := ReadModulePath(dir)
	require.NoError(t, err)
	assert.Equal(t, "example.com/x", mod)
}

func TestValidateProjectRoot(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, ValidateProjectRoot(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/other\n"), 0o600))
	err := ValidateProjectRoot(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not "+ModulePath)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module "+ModulePath+"\n"), 0o600))
	err = ValidateProjectRoot(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry point")
}
