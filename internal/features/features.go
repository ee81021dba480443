// Package features turns filtered text into the code-point frequency matrix the
// language classifier consumes.
package features

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/langid/internal/mempool"
)

// VectorLen is the number of histogram buckets: one per code point in the
// Basic Multilingual Plane.
const VectorLen = 1 << 16

// MaxCodePoint is the last code point that has a bucket.
const MaxCodePoint = VectorLen - 1

var (
	// ErrNoAlphabet is returned when there are no characters to normalize by.
	ErrNoAlphabet = errors.New("no alphabet characters")
	// ErrBadShape is returned when a matrix does not have VectorLen columns.
	ErrBadShape = errors.New("unexpected feature shape")
)

// Matrix is a row-major float32 feature matrix with one sample per row.
type Matrix struct {
	Rows int
	Cols int
	Data []float32

	pooled bool
}

// Release hands pooled storage back for reuse. The matrix must not be used
// afterwards. It is a no-op for matrices not built by FromText.
func (m Matrix) Release() {
	if m.pooled {
		mempool.PutFloat32(m.Data)
	}
}

// Row returns row i as a slice sharing the matrix storage.
func (m Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Shape returns the matrix shape as ONNX-style dimensions.
func (m Matrix) Shape() []int64 {
	return []int64{int64(m.Rows), int64(m.Cols)}
}

// Validate checks that the matrix is non-empty, VectorLen wide and fully backed.
func (m Matrix) Validate() error {
	if m.Rows <= 0 {
		return fmt.Errorf("%w: %d rows", ErrBadShape, m.Rows)
	}
	if m.Cols != VectorLen {
		return fmt.Errorf("%w: %d columns, want %d", ErrBadShape, m.Cols, VectorLen)
	}
	if len(m.Data)%m.Cols != 0 || len(m.Data)/m.Cols != m.Rows {
		return fmt.Errorf("%w: data length %d != %d*%d", ErrBadShape, len(m.Data), m.Rows, m.Cols)
	}
	return nil
}

// Histogram counts every code point of text into VectorLen buckets. Code points
// above MaxCodePoint are skipped; the number skipped is returned alongside.
func Histogram(text string) ([]float64, int) {
	counts := make([]float64, VectorLen)
	skipped := 0
	for _, r := range text {
		if r > MaxCodePoint {
			skipped++
			continue
		}
		counts[r]++
	}
	return counts, skipped
}

// FromText builds the normalized single-row feature matrix for alpha, the
// alphabet-only text left over from script detection. Each bucket is divided by
// the rune count of alpha, so entries sum to 1 when nothing was skipped. The
// row comes from a buffer pool; call Release when done with it.
func FromText(alpha string) (Matrix, error) {
	total := 0
	for range alpha {
		total++
	}
	if total == 0 {
		return Matrix{}, ErrNoAlphabet
	}

	counts, skipped := Histogram(alpha)
	if skipped > 0 {
		slog.Debug("Dropped code points outside feature range", "skipped", skipped, "max", MaxCodePoint)
	}

	data := mempool.GetZeroedFloat32(VectorLen)
	n := float64(total)
	for i, c := range counts {
		if c != 0 {
			data[i] = float32(c / n)
		}
	}

	return Matrix{Rows: 1, Cols: VectorLen, Data: data, pooled: true}, nil
}

// Stats returns min, max and sum of a row for debug logging.
func Stats(row []float32) (float32, float32, float64) {
	if len(row) == 0 {
		return 0, 0, 0
	}
	minVal, maxVal := row[0], row[0]
	var sum float64
	for _, v := range row {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
		sum += float64(v)
	}
	return minVal, maxVal, sum
}
