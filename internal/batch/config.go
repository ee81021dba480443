package batch

import (
	"fmt"
	"io"
	"os"
	"time"
)

// DefaultIncludePatterns are used when no include pattern is configured.
var DefaultIncludePatterns = []string{"*.txt", "*.md", "*.pdf"}

// Config holds all configuration for batch processing.
type Config struct {
	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// PDF settings
	PageRange   string
	PDFPassword string

	// ContinueOnError records failed files instead of aborting.
	ContinueOnError bool

	// Output settings
	Format     string
	OutputFile string
	Quiet      bool
}

// Result holds the result of batch processing.
type Result struct {
	Files    []FileResult
	Duration time.Duration
}

// Failed returns the number of files that could not be classified.
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Error != "" {
			n++
		}
	}
	return n
}

// FormatResults formats the batch processing results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r.Files, format)
}

// SaveResults writes the formatted results to outputFile, or to w when no file
// is given.
func (r *Result) SaveResults(w io.Writer, format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
		}
	} else {
		_, _ = fmt.Fprint(w, output)
	}

	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer, quiet bool) {
	if quiet {
		return
	}
	total := len(r.Files)
	failed := r.Failed()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total files: %d\n", total)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", total-failed)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", failed)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	if total > 0 {
		_, _ = fmt.Fprintf(w, "  Avg per file: %v\n", (r.Duration / time.Duration(total)).Round(time.Microsecond))
	}
	byCode := r.CodeCounts()
	for _, code := range sortedKeys(byCode) {
		_, _ = fmt.Fprintf(w, "  %s: %d\n", code, byCode[code])
	}
}

// CodeCounts counts files per detected language code. A file counts once per
// distinct code.
func (r *Result) CodeCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Files {
		if f.Detection == nil {
			continue
		}
		seen := make(map[string]bool)
		for _, c := range f.Detection.Codes {
			if !seen[c] {
				seen[c] = true
				counts[c]++
			}
		}
	}
	return counts
}
