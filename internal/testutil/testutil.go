// Package testutil holds helpers shared by tests: project paths, sample
// texts and on-disk model artifacts.
package testutil

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ModulePath is the module line GetProjectRootValidated expects in go.mod.
const ModulePath = "github.com/MeKo-Tech/langid"

// GetProjectRoot walks up from this source file to the directory holding go.mod.
func GetProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("failed to get caller information")
	}

	for dir := filepath.Dir(filename); ; {
		if FileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find go.mod above %s", filepath.Dir(filename))
		}
		dir = parent
	}
}

// GetTestDataDir returns <root>/testdata.
func GetTestDataDir(t *testing.T) string {
	t.Helper()

	root, err := GetProjectRoot()
	require.NoError(t, err, "Failed to find project root")
	return filepath.Join(root, "testdata")
}

// GetFixturesDir returns <root>/testdata/fixtures.
func GetFixturesDir(t *testing.T) string {
	t.Helper()
	return filepath.Join(GetTestDataDir(t), "fixtures")
}

// EnsureDir creates path and its parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o750)
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// DirExists reports whether path is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ReadModulePath returns the module path declared in dir/go.mod.
func ReadModulePath(dir string) (string, error) {
	f, err := os.Open(filepath.Join(dir, "go.mod")) //nolint:gosec // G304: project file
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	s := bufio.NewScanner(f)
	for s.Scan() {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(s.Text()), "module "); ok {
			return strings.Trim(strings.TrimSpace(rest), `"`), nil
		}
	}
	if err := s.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no module line in %s/go.mod", dir)
}

// ValidateProjectRoot checks that root is this module's checkout: the module
// line matches ModulePath and the CLI entry point exists.
func ValidateProjectRoot(root string) error {
	mod, err := ReadModulePath(root)
	if err != nil {
		return err
	}
	if mod != ModulePath {
		return fmt.Errorf("module %q is not %s", mod, ModulePath)
	}
	if entry := filepath.Join(root, "cmd", "langid", "main.go"); !FileExists(entry) {
		return fmt.Errorf("CLI entry point not found at %s", entry)
	}
	return nil
}

// GetProjectRootValidated returns GetProjectRoot after ValidateProjectRoot.
func GetProjectRootValidated() (string, error) {
	root, err := GetProjectRoot()
	if err != nil {
		return "", err
	}
	if err := ValidateProjectRoot(root); err != nil {
		return "", fmt.Errorf("invalid project root %s: %w", root, err)
	}
	return root, nil
}
