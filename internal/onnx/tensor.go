package onnx

import (
	"errors"
	"fmt"
)

// Tensor represents a float32 tensor prepared for ONNX input.
// Data layout is row-major, [N, F] for feature batches.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// NewFeatureTensor wraps a row-major [rows, cols] matrix.
func NewFeatureTensor(data []float32, rows, cols int) (Tensor, error) {
	if data == nil {
		return Tensor{}, errors.New("nil data")
	}
	if rows <= 0 || cols <= 0 {
		return Tensor{}, fmt.Errorf("invalid shape [%d, %d]", rows, cols)
	}
	if len(data) != rows*cols {
		return Tensor{}, fmt.Errorf("unexpected data length: got %d, want %d", len(data), rows*cols)
	}
	return Tensor{Data: data, Shape: []int64{int64(rows), int64(cols)}}, nil
}

// ValidateNF checks that shape is [N, F] with positive dimensions.
func ValidateNF(shape []int64) error {
	if len(shape) != 2 {
		return fmt.Errorf("shape rank %d != 2", len(shape))
	}
	for i, v := range shape {
		if v <= 0 {
			return fmt.Errorf("dimension %d must be > 0, got %d", i, v)
		}
	}
	return nil
}

// CheckInputWidth compares a tensor against a model input declaration. Dynamic
// model dimensions (<= 0) match anything.
func CheckInputWidth(t Tensor, modelDims []int64) error {
	if err := ValidateNF(t.Shape); err != nil {
		return err
	}
	if len(modelDims) != 2 {
		return fmt.Errorf("model expects rank %d input, want 2", len(modelDims))
	}
	if w := modelDims[1]; w > 0 && w != t.Shape[1] {
		return fmt.Errorf("model expects %d features, got %d", w, t.Shape[1])
	}
	if n := modelDims[0]; n > 0 && n != t.Shape[0] {
		return fmt.Errorf("model expects batch of %d, got %d", n, t.Shape[0])
	}
	return nil
}
