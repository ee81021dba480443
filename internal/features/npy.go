package features

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnsupportedDType is returned for .npy element types LoadNPY cannot read.
var ErrUnsupportedDType = errors.New("unsupported npy dtype")

var npyMagic = []byte("\x93NUMPY")

var (
	descrRe   = regexp.MustCompile(`'descr'\s*:\s*'([^']+)'`)
	fortranRe = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapeRe   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// npyHeader is the parsed .npy header dictionary.
type npyHeader struct {
	descr   string
	fortran bool
	shape   []int
}

// LoadNPY reads a NumPy .npy file holding a 1-D or 2-D feature array. A 1-D
// array is read as a single row. The column count must be VectorLen.
func LoadNPY(path string) (Matrix, error) {
	f, err := os.Open(path) //nolint:gosec // G304: artifact path comes from configuration
	if err != nil {
		return Matrix{}, fmt.Errorf("failed to open feature array: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing feature array: %v\n", err)
		}
	}()

	st, err := f.Stat()
	if err != nil {
		return Matrix{}, fmt.Errorf("failed to stat feature array: %w", err)
	}

	m, err := readNPY(bufio.NewReader(f), st.Size())
	if err != nil {
		return Matrix{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Matrix{}, fmt.Errorf("feature array %s: %w", path, err)
	}
	return m, nil
}

// ReadNPY decodes a .npy stream into a Matrix without checking its width.
// Element storage grows with the bytes actually read, so a header claiming
// more data than the stream holds fails with io.ErrUnexpectedEOF.
func ReadNPY(r io.Reader) (Matrix, error) {
	return readNPY(r, -1)
}

// readNPY decodes a .npy stream of size bytes in total; size < 0 means unknown.
func readNPY(r io.Reader, size int64) (Matrix, error) {
	hdr, headerBytes, err := readNPYHeader(r)
	if err != nil {
		return Matrix{}, err
	}
	if hdr.fortran {
		return Matrix{}, errors.New("fortran-ordered arrays are not supported")
	}

	var rows, cols int
	switch len(hdr.shape) {
	case 1:
		rows, cols = 1, hdr.shape[0]
	case 2:
		rows, cols = hdr.shape[0], hdr.shape[1]
	default:
		return Matrix{}, fmt.Errorf("%w: rank %d", ErrBadShape, len(hdr.shape))
	}

	elemSize, ok := dtypeSizes[hdr.descr]
	if !ok {
		return Matrix{}, fmt.Errorf("%w: %s", ErrUnsupportedDType, hdr.descr)
	}
	if cols > 0 && rows > math.MaxInt/cols {
		return Matrix{}, fmt.Errorf("%w: shape (%d, %d) overflows", ErrBadShape, rows, cols)
	}
	n := rows * cols
	if n > math.MaxInt/elemSize {
		return Matrix{}, fmt.Errorf("%w: shape (%d, %d) overflows", ErrBadShape, rows, cols)
	}
	if size >= 0 {
		if payload := size - headerBytes; int64(n)*int64(elemSize) > payload {
			return Matrix{}, fmt.Errorf("%w: shape (%d, %d) needs %d bytes, file has %d",
				ErrBadShape, rows, cols, int64(n)*int64(elemSize), payload)
		}
	}

	data, err := readElements(r, hdr.descr, n, elemSize)
	if err != nil {
		return Matrix{}, err
	}
	return Matrix{Rows: rows, Cols: cols, Data: data}, nil
}

// maxHeaderLen bounds the header dictionary of version 2/3 files.
const maxHeaderLen = 1 << 20

// readNPYHeader parses the header and returns the number of bytes it spans.
func readNPYHeader(r io.Reader) (npyHeader, int64, error) {
	prefix := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return npyHeader{}, 0, fmt.Errorf("read magic: %w", err)
	}
	if !bytes.Equal(prefix[:len(npyMagic)], npyMagic) {
		return npyHeader{}, 0, errors.New("not a npy file")
	}

	var headerLen, lenBytes int
	switch major := prefix[len(npyMagic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return npyHeader{}, 0, fmt.Errorf("read header length: %w", err)
		}
		headerLen, lenBytes = int(n), 2
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return npyHeader{}, 0, fmt.Errorf("read header length: %w", err)
		}
		if n > maxHeaderLen {
			return npyHeader{}, 0, fmt.Errorf("header length %d exceeds %d", n, maxHeaderLen)
		}
		headerLen, lenBytes = int(n), 4
	default:
		return npyHeader{}, 0, fmt.Errorf("unsupported npy version %d", major)
	}

	raw := make([]byte, headerLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return npyHeader{}, 0, fmt.Errorf("read header: %w", err)
	}
	hdr, err := parseNPYHeader(string(raw))
	return hdr, int64(len(prefix) + lenBytes + headerLen), err
}

func parseNPYHeader(s string) (npyHeader, error) {
	var hdr npyHeader

	m := descrRe.FindStringSubmatch(s)
	if m == nil {
		return hdr, errors.New("header has no descr")
	}
	hdr.descr = m[1]

	if m := fortranRe.FindStringSubmatch(s); m != nil {
		hdr.fortran = m[1] == "True"
	}

	m = shapeRe.FindStringSubmatch(s)
	if m == nil {
		return hdr, errors.New("header has no shape")
	}
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(part, "L"))
		if err != nil || n < 0 {
			return hdr, fmt.Errorf("invalid shape dimension %q", part)
		}
		hdr.shape = append(hdr.shape, n)
	}
	return hdr, nil
}

var dtypeSizes = map[string]int{"<f8": 8, "<f4": 4, "<i8": 8, "<i4": 4, "|u1": 1}

// readElements reads n elements of descr. The payload is read before the
// output is allocated, and only as far as the stream goes.
func readElements(r io.Reader, descr string, n, elemSize int) ([]float32, error) {
	want := int64(n) * int64(elemSize)
	buf, err := io.ReadAll(io.LimitReader(r, want))
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	if int64(len(buf)) != want {
		return nil, fmt.Errorf("read data: %w: got %d of %d bytes", io.ErrUnexpectedEOF, len(buf), want)
	}

	out := make([]float32, n)
	switch descr {
	case "<f8":
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:])))
		}
	case "<f4":
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
	case "<i8":
		for i := range out {
			out[i] = float32(int64(binary.LittleEndian.Uint64(buf[i*8:])))
		}
	case "<i4":
		for i := range out {
			out[i] = float32(int32(binary.LittleEndian.Uint32(buf[i*4:])))
		}
	case "|u1":
		for i := range out {
			out[i] = float32(buf[i])
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, descr)
	}
	return out, nil
}

// WriteNPY encodes m as a version 1.0 little-endian float32 .npy stream.
func WriteNPY(w io.Writer, m Matrix) error {
	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", m.Rows, m.Cols)
	// magic(6) + version(2) + length(2) + header + '\n' must align to 64 bytes
	pad := 64 - (len(npyMagic)+4+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	if _, err := w.Write(npyMagic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	buf := make([]byte, 4*len(m.Data))
	for i, v := range m.Data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	_, err := w.Write(buf)
	return err
}
