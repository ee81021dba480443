package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/MeKo-Tech/langid/internal/langid"
	"github.com/MeKo-Tech/langid/internal/pdf"
	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrEmptyFile is returned for files without any non-space text. Empty text
// means "use the fallback features" to the detector, which is never what a
// file argument asks for.
var ErrEmptyFile = errors.New("file has no text")

// Detector is the part of langid.Service the batch runner needs.
type Detector interface {
	Detect(ctx context.Context, text string) (langid.Detection, error)
}

// FileResult is the outcome for one file.
type FileResult struct {
	File      string            `json:"file"`
	Pages     int               `json:"pages,omitempty"`
	Chars     int               `json:"chars"`
	Detection *langid.Detection `json:"detection,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// loadText reads path as NFC-normalized UTF-8 text. PDFs go through their
// text layer.
func loadText(path string, cfg *Config) (string, int, error) {
	if pdf.IsPDF(path) {
		doc, err := pdf.ExtractText(path, pdf.Options{PageRange: cfg.PageRange, Password: cfg.PDFPassword})
		if err != nil {
			return "", 0, err
		}
		return norm.NFC.String(doc.Text()), len(doc.Pages), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: batch input paths come from the command line
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", 0, fmt.Errorf("%s is not valid UTF-8", path)
	}
	return norm.NFC.String(string(data)), 0, nil
}

// processFile loads and classifies one file.
func processFile(ctx context.Context, det Detector, path string, cfg *Config) (FileResult, error) {
	res := FileResult{File: path}

	text, pages, err := loadText(path, cfg)
	if err != nil {
		return res, err
	}
	res.Pages = pages
	res.Chars = utf8.RuneCountInString(text)
	if strings.TrimSpace(text) == "" {
		return res, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	d, err := det.Detect(ctx, text)
	if err != nil {
		return res, fmt.Errorf("detection failed for %s: %w", path, err)
	}
	res.Detection = &d
	return res, nil
}
