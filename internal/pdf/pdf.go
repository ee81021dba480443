// Package pdf pulls the text layer out of PDF files so its language can be
// detected like any other text.
package pdf

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dslipak/pdf"
)

// ErrNoText is returned when none of the requested pages carries text.
var ErrNoText = errors.New("pdf has no extractable text")

// Page is the text of one page.
type Page struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Document is the extracted text layer of a PDF.
type Document struct {
	Path       string `json:"path"`
	TotalPages int    `json:"total_pages"`
	Pages      []Page `json:"pages"`
}

// Text joins the page texts with newlines.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// Options controls extraction.
type Options struct {
	// PageRange selects pages, e.g. "1-3,5". Empty means all pages.
	PageRange string
	// Password opens encrypted files.
	Password string
}

// ExtractText reads the text layer of filename. Encrypted files are decrypted
// to a temporary copy first.
func ExtractText(filename string, opts Options) (*Document, error) {
	pageNumbers, err := parsePageRange(opts.PageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", opts.PageRange, err)
	}

	source, cleanup, err := Decrypt(filename, opts.Password)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	reader, err := pdf.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", filename, err)
	}

	total := reader.NumPage()
	doc := &Document{Path: filename, TotalPages: total}
	for _, n := range selectPages(pageNumbers, total) {
		text, err := extractPage(reader.Page(n))
		if err != nil {
			slog.Debug("Skipping PDF page", "file", filename, "page", n, "error", err)
			continue
		}
		doc.Pages = append(doc.Pages, Page{Number: n, Text: text})
	}

	if strings.TrimSpace(doc.Text()) == "" {
		return doc, fmt.Errorf("%w: %s", ErrNoText, filename)
	}
	return doc, nil
}

func selectPages(requested []int, total int) []int {
	if len(requested) == 0 {
		out := make([]int, 0, total)
		for i := 1; i <= total; i++ {
			out = append(out, i)
		}
		return out
	}
	out := make([]int, 0, len(requested))
	for _, n := range requested {
		if n >= 1 && n <= total {
			out = append(out, n)
		}
	}
	return out
}

// extractPage rebuilds the lines of a page. Glyph runs on a row are joined,
// with a space wherever the horizontal gap exceeds a fraction of the font size.
func extractPage(page pdf.Page) (string, error) {
	if page.V.IsNull() {
		return "", errors.New("page is null")
	}

	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		var b strings.Builder
		for _, row := range rows {
			var prevEnd float64
			for i, t := range row.Content {
				if i > 0 && t.X-prevEnd > 0.15*t.FontSize {
					b.WriteByte(' ')
				}
				b.WriteString(t.S)
				prevEnd = t.X + t.W
			}
			b.WriteByte('\n')
		}
		return b.String(), nil
	}

	fonts := make(map[string]*pdf.Font)
	text, err := page.GetPlainText(fonts)
	if err != nil {
		return "", fmt.Errorf("plain text: %w", err)
	}
	return text, nil
}

// IsPDF reports whether path has a .pdf extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// parsePageRange parses a page range string like "1-5" or "1,3,5".
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil // Empty means all pages
	}

	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{page}, nil
}
