package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/langid/internal/classifier"
	"github.com/MeKo-Tech/langid/internal/config"
	"github.com/MeKo-Tech/langid/internal/langid"
	"github.com/MeKo-Tech/langid/internal/metrics"
)

const (
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
	outputFormatText = "text"
)

// newService wires the classifier opener and the orchestrator for cfg.
func newService(cfg *config.Config, m *metrics.Metrics) (*langid.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	opener, err := classifier.NewOpener(cfg.ToClassifierConfig(),
		cfg.Classifier.CacheModel, cfg.Classifier.CacheSize, m.RecordLoad)
	if err != nil {
		return nil, err
	}
	svc, err := langid.New(cfg.ToServiceConfig(), opener, langid.WithMetrics(m))
	if err != nil {
		_ = opener.Close()
		return nil, err
	}
	return svc, nil
}

// closeService releases the service and writes metrics when configured.
func closeService(svc *langid.Service, cfg *config.Config, m *metrics.Metrics) {
	if err := svc.Close(); err != nil {
		slog.Warn("Failed to close service", "error", err)
	}
	if cfg.Metrics.File == "" {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.File); err != nil {
		slog.Warn("Failed to write metrics", "file", cfg.Metrics.File, "error", err)
		return
	}
	slog.Debug("Metrics written", "file", cfg.Metrics.File)
}
