// Package batch detects the language of many text, Markdown and PDF files in
// one run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/langid/internal/metrics"
)

// ErrNoFiles is returned when discovery finds nothing to process.
var ErrNoFiles = errors.New("no input files found")

// ProcessBatch classifies every file found under paths, one at a time. With
// ContinueOnError a failed file is recorded in its FileResult; otherwise the
// first failure aborts the run. m may be nil.
func ProcessBatch(ctx context.Context, det Detector, paths []string, config *Config,
	m *metrics.Metrics) (*Result, error) {
	files, err := discoverFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	startTime := time.Now()
	results := make([]FileResult, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := processFile(ctx, det, path, config)
		m.RecordFile(err)
		if err != nil {
			if !config.ContinueOnError {
				return nil, fmt.Errorf("batch processing failed: %w", err)
			}
			slog.Warn("Skipping file", "file", path, "error", err)
			res.Error = err.Error()
		}
		results = append(results, res)
	}

	return &Result{Files: results, Duration: time.Since(startTime)}, nil
}
