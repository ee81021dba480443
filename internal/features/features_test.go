package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromText(t *testing.T) {
	m, err := FromText("abca")
	require.NoError(t, err)

	assert.Equal(t, 1, m.Rows)
	assert.Equal(t, VectorLen, m.Cols)
	require.Len(t, m.Data, VectorLen)
	assert.Equal(t, []int64{1, VectorLen}, m.Shape())

	assert.InDelta(t, 0.5, m.Data['a'], 1e-6)
	assert.InDelta(t, 0.25, m.Data['b'], 1e-6)
	assert.InDelta(t, 0.25, m.Data['c'], 1e-6)
	assert.Zero(t, m.Data['d'])
	require.NoError(t, m.Validate())
}

func TestFromText_Empty(t *testing.T) {
	_, err := FromText("")
	require.ErrorIs(t, err, ErrNoAlphabet)
}

func TestFromText_SkipsCodePointsOutsideRange(t *testing.T) {
	// the emoji counts towards the divisor but has no bucket
	m, err := FromText("a\U0001F600")
	require.NoError(t, err)

	assert.InDelta(t, 0.5, m.Data['a'], 1e-6)
	_, _, sum := Stats(m.Row(0))
	assert.InDelta(t, 0.5, sum, 1e-6)
}

func TestHistogram(t *testing.T) {
	counts, skipped := Histogram("zz\uFFFF\U00010000")
	assert.Equal(t, 1, skipped)
	assert.InDelta(t, 2, counts['z'], 0)
	assert.InDelta(t, 1, counts[MaxCodePoint], 0)
}

func TestMatrixValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Matrix
		wantErr bool
	}{
		{name: "valid", m: Matrix{Rows: 2, Cols: VectorLen, Data: make([]float32, 2*VectorLen)}},
		{name: "no rows", m: Matrix{Rows: 0, Cols: VectorLen}, wantErr: true},
		{name: "wrong width", m: Matrix{Rows: 1, Cols: 10, Data: make([]float32, 10)}, wantErr: true},
		{name: "short data", m: Matrix{Rows: 2, Cols: VectorLen, Data: make([]float32, VectorLen)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBadShape)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFromText_ReleasedRowIsClearedOnReuse(t *testing.T) {
	first, err := FromText("zzzz")
	require.NoError(t, err)
	first.Release()

	second, err := FromText("ab")
	require.NoError(t, err)
	defer second.Release()

	assert.Zero(t, second.Data['z'])
	_, _, sum := Stats(second.Row(0))
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestMatrixRelease_UnpooledIsNoop(t *testing.T) {
	m := Matrix{Rows: 1, Cols: 2, Data: []float32{1, 2}}
	assert.NotPanics(t, m.Release)
	assert.Equal(t, []float32{1, 2}, m.Data)
}

func TestMatrixRow(t *testing.T) {
	m := Matrix{Rows: 2, Cols: 3, Data: []float32{1, 2, 3, 4, 5, 6}}
	assert.Equal(t, []float32{4, 5, 6}, m.Row(1))
}

func TestStats(t *testing.T) {
	minVal, maxVal, sum := Stats([]float32{0.5, -1, 2})
	assert.InDelta(t, -1, minVal, 0)
	assert.InDelta(t, 2, maxVal, 0)
	assert.InDelta(t, 1.5, sum, 1e-9)

	minVal, maxVal, sum = Stats(nil)
	assert.Zero(t, minVal)
	assert.Zero(t, maxVal)
	assert.Zero(t, sum)
}
