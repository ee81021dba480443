package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	onnxCfg := DefaultConfig()
	onnxCfg.ModelPath = "ml.onnx"
	onnxCfg.LabelsPath = "labels.txt"

	noLabels := onnxCfg
	noLabels.LabelsPath = ""

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "onnx", cfg: onnxCfg},
		{name: "onnx without model", cfg: DefaultConfig(), wantErr: true},
		{name: "onnx without labels", cfg: noLabels, wantErr: true},
		{name: "lingua", cfg: Config{Backend: BackendLingua, Languages: []string{"en", "fr"}}},
		{name: "lingua single language", cfg: Config{Backend: BackendLingua, Languages: []string{"en"}}, wantErr: true},
		{name: "heuristic", cfg: Config{Backend: BackendHeuristic}},
		{name: "unknown", cfg: Config{Backend: "svm"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig_CopiesLanguages(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Languages[0] = "xx"
	assert.Equal(t, "en", DefaultLanguages[0])
}

func TestCodes(t *testing.T) {
	assert.Equal(t, []string{"en", "tl"}, Codes([]Prediction{{Code: "en"}, {Code: "tl"}}))
	assert.Empty(t, Codes(nil))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "en", normalizeCode(" EN "))
}
