package classifier

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Labels maps classifier output columns to language codes.
type Labels struct {
	Codes []string
	index map[string]int
}

// LoadLabels reads a label file where each non-empty line is a class, in the
// order of the model's output columns. Whitespace and a UTF-8 BOM are trimmed.
func LoadLabels(path string) (*Labels, error) {
	if path == "" {
		return nil, errors.New("labels path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: artifact path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open labels: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing labels file: %v\n", err)
		}
	}()

	scanner := bufio.NewScanner(f)
	codes := make([]string, 0, 16)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		codes = append(codes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading labels: %w", err)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoLabels, path)
	}
	return NewLabels(codes), nil
}

// NewLabels builds Labels from codes. On duplicates the first index wins.
func NewLabels(codes []string) *Labels {
	idx := make(map[string]int, len(codes))
	for i, c := range codes {
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	return &Labels{Codes: codes, index: idx}
}

// Size returns the number of classes.
func (l *Labels) Size() int {
	if l == nil {
		return 0
	}
	return len(l.Codes)
}

// Code returns the code at index i, or "" when out of range.
func (l *Labels) Code(i int) string {
	if l == nil || i < 0 || i >= len(l.Codes) {
		return ""
	}
	return l.Codes[i]
}

// Index returns the column of code, or -1 if unknown.
func (l *Labels) Index(code string) int {
	if l == nil {
		return -1
	}
	if i, ok := l.index[code]; ok {
		return i
	}
	return -1
}
