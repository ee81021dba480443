// Package mock builds synthetic classifier outputs for tests that run without
// ONNX Runtime or a trained model.
package mock

import "math/rand"

// Scores is a synthetic [N, C] classifier output.
type Scores struct {
	Data  []float32
	Shape []int64
}

// NewArgmaxScores builds scores for len(indices) samples over classes classes
// such that row i peaks at indices[i] with value high and holds low elsewhere.
func NewArgmaxScores(indices []int, classes int, high, low float32) Scores {
	if classes <= 0 || len(indices) == 0 {
		return Scores{Data: nil, Shape: []int64{}}
	}
	n := len(indices)
	data := make([]float32, n*classes)
	for row, c := range indices {
		for cls := range classes {
			v := low
			if cls == c {
				v = high
			}
			data[row*classes+cls] = v
		}
	}
	return Scores{Data: data, Shape: []int64{int64(n), int64(classes)}}
}

// NewRandomFeatures returns rows x cols non-negative values whose rows each sum to 1.
func NewRandomFeatures(rows, cols int, seed int64) []float32 {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic test data
	data := make([]float32, rows*cols)
	for r := range rows {
		row := data[r*cols : (r+1)*cols]
		var sum float32
		for i := range row {
			row[i] = rng.Float32()
			sum += row[i]
		}
		for i := range row {
			row[i] /= sum
		}
	}
	return data
}
