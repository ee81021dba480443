package classifier

import (
	"fmt"
	"math"
)

// DecodeScores turns an [N, C] score matrix into one prediction per row. Rows
// that already form a probability distribution are used as-is; anything else is
// treated as logits and passed through softmax.
func DecodeScores(data []float32, shape []int64, labels *Labels) ([]Prediction, error) {
	if len(shape) != 2 {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}
	rows, cols := int(shape[0]), int(shape[1])
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("output data length %d does not match shape %v", len(data), shape)
	}
	if cols != labels.Size() {
		return nil, fmt.Errorf("model emits %d classes but %d labels are loaded", cols, labels.Size())
	}

	out := make([]Prediction, rows)
	for r := range rows {
		row := data[r*cols : (r+1)*cols]
		probs := toProbabilities(row)
		idx := argmax(probs)
		out[r] = Prediction{Code: labels.Code(idx), Confidence: probs[idx]}
	}
	return out, nil
}

func toProbabilities(row []float32) []float64 {
	var sum float64
	for _, v := range row {
		if v < 0 || v > 1 {
			return softmax(row)
		}
		sum += float64(v)
	}
	if math.Abs(sum-1) > 1e-3 {
		return softmax(row)
	}
	probs := make([]float64, len(row))
	for i, v := range row {
		probs[i] = float64(v)
	}
	return probs
}

func softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}

	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	var sum float64
	probs := make([]float64, len(logits))
	for i, v := range logits {
		e := math.Exp(float64(v - maxLogit))
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func argmax(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	maxIdx := 0
	maxVal := values[0]
	for i, v := range values[1:] {
		if v > maxVal {
			maxVal = v
			maxIdx = i + 1
		}
	}
	return maxIdx
}
