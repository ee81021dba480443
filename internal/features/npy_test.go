package features

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawNPY builds a version 1.0 npy stream by hand.
func rawNPY(t *testing.T, header string, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(header))))
	buf.WriteString(header)
	buf.Write(payload)
	return buf.Bytes()
}

func TestReadNPY_Float64(t *testing.T) {
	payload := make([]byte, 8*4)
	for i, v := range []float64{0.25, 0.75, 1, 0} {
		binary.LittleEndian.PutUint64(payload[i*8:], math.Float64bits(v))
	}
	data := rawNPY(t, "{'descr': '<f8', 'fortran_order': False, 'shape': (2, 2), }\n", payload)

	m, err := ReadNPY(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 2, m.Cols)
	assert.Equal(t, []float32{0.25, 0.75, 1, 0}, m.Data)
}

func TestReadNPY_OneDimensional(t *testing.T) {
	payload := []byte{3, 0, 7}
	data := rawNPY(t, "{'descr': '|u1', 'fortran_order': False, 'shape': (3,), }\n", payload)

	m, err := ReadNPY(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Rows)
	assert.Equal(t, 3, m.Cols)
	assert.Equal(t, []float32{3, 0, 7}, m.Data)
}

func TestReadNPY_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		errMsg string
	}{
		{
			name:   "bad magic",
			data:   []byte("PK\x03\x04 not numpy"),
			errMsg: "not a npy file",
		},
		{
			name:   "fortran order",
			data:   rawNPY(t, "{'descr': '<f4', 'fortran_order': True, 'shape': (1, 1), }\n", make([]byte, 4)),
			errMsg: "fortran",
		},
		{
			name:   "unsupported dtype",
			data:   rawNPY(t, "{'descr': '<c16', 'fortran_order': False, 'shape': (1,), }\n", make([]byte, 16)),
			errMsg: "unsupported npy dtype",
		},
		{
			name:   "rank three",
			data:   rawNPY(t, "{'descr': '<f4', 'fortran_order': False, 'shape': (1, 1, 1), }\n", make([]byte, 4)),
			errMsg: "rank 3",
		},
		{
			name:   "truncated payload",
			data:   rawNPY(t, "{'descr': '<f4', 'fortran_order': False, 'shape': (4,), }\n", make([]byte, 6)),
			errMsg: "read data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadNPY(bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestReadNPY_CorruptShapes(t *testing.T) {
	tests := []struct {
		name  string
		shape string
	}{
		{"product overflows", "(281474976710656, 65536)"},
		{"element bytes overflow", "(1152921504606846976,)"},
		{"more rows than payload", "(100000, 65536)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := rawNPY(t, "{'descr': '<f8', 'fortran_order': False, 'shape': "+tt.shape+", }\n", make([]byte, 64))
			_, err := ReadNPY(bytes.NewReader(data))
			require.Error(t, err)
		})
	}
}

func TestLoadNPY_CorruptShapes(t *testing.T) {
	tests := []struct {
		name  string
		shape string
	}{
		{"product overflows", "(281474976710656, 65536)"},
		{"declared payload beyond file size", "(100000, 65536)"},
		{"one row short", "(2, 65536)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test_features.npy")
			header := "{'descr': '<f4', 'fortran_order': False, 'shape': " + tt.shape + ", }\n"
			require.NoError(t, os.WriteFile(path, rawNPY(t, header, make([]byte, 4*VectorLen)), 0o600))

			m, err := LoadNPY(path)
			require.ErrorIs(t, err, ErrBadShape)
			assert.Zero(t, m.Rows)
		})
	}
}

func TestMatrixValidate_WrappedShape(t *testing.T) {
	m := Matrix{Rows: 281474976710656, Cols: VectorLen}
	require.ErrorIs(t, m.Validate(), ErrBadShape)
}

func TestWriteNPY_HeaderAlignment(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNPY(&buf, Matrix{Rows: 1, Cols: 2, Data: []float32{0.5, 0.5}}))

	headerLen := int(binary.LittleEndian.Uint16(buf.Bytes()[8:10]))
	assert.Zero(t, (10+headerLen)%64)
	assert.True(t, strings.HasSuffix(string(buf.Bytes()[10:10+headerLen]), "\n"))

	m, err := ReadNPY(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, m.Data)
}

func TestLoadNPY(t *testing.T) {
	dir := t.TempDir()

	want, err := FromText("hello")
	require.NoError(t, err)

	path := filepath.Join(dir, "test_features.npy")
	var buf bytes.Buffer
	require.NoError(t, WriteNPY(&buf, want))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	got, err := LoadNPY(path)
	require.NoError(t, err)
	assert.Equal(t, want.Rows, got.Rows)
	assert.Equal(t, want.Cols, got.Cols)
	assert.InDelta(t, 0.4, got.Data['l'], 1e-6)
}

func TestLoadNPY_WrongWidth(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "narrow.npy")

	var buf bytes.Buffer
	require.NoError(t, WriteNPY(&buf, Matrix{Rows: 1, Cols: 4, Data: make([]float32, 4)}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	_, err := LoadNPY(path)
	require.ErrorIs(t, err, ErrBadShape)
}

func TestLoadNPY_MissingFile(t *testing.T) {
	_, err := LoadNPY(filepath.Join(t.TempDir(), "missing.npy"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
