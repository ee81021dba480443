package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPrediction(t *testing.T) {
	m := New()
	m.RecordPrediction("alphabet", []string{"en"}, 42, 3*time.Millisecond)
	m.RecordPrediction("fallback", []string{"en", "fr", "en"}, 0, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.predictionsTotal.WithLabelValues("fallback", "en")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.predictionsTotal.WithLabelValues("alphabet", "en")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.predictionsTotal.WithLabelValues("fallback", "fr")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.predictionDuration))
}

func TestRecordLoadAndErrors(t *testing.T) {
	m := New()
	m.RecordLoad("onnx", time.Millisecond, nil)
	m.RecordLoad("onnx", time.Millisecond, errors.New("missing"))
	m.RecordError("load")
	m.RecordFile(nil)

	assert.InDelta(t, 1, testutil.ToFloat64(m.artifactLoads.WithLabelValues("onnx", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.artifactLoads.WithLabelValues("onnx", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.errorsTotal.WithLabelValues("load")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.filesTotal.WithLabelValues("success")), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordPrediction("alphabet", []string{"en"}, 1, time.Second)
		m.RecordError("predict")
		m.RecordLoad("onnx", time.Second, nil)
		m.RecordFile(nil)
	})
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RecordPrediction("korean", []string{"ko"}, 5, time.Millisecond)

	path := filepath.Join(t.TempDir(), "langid.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `langid_predictions_total{branch="korean",code="ko"} 1`)
}

func TestWriteTextfile_BadPath(t *testing.T) {
	err := New().WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
