package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/MeKo-Tech/langid/internal/features"
	"github.com/MeKo-Tech/langid/internal/onnx"
	onnxrt "github.com/yalue/onnxruntime_go"
)

// ONNXClassifier runs the exported code-point frequency model with ONNX Runtime.
type ONNXClassifier struct {
	cfg        Config
	labels     *Labels
	session    *onnxrt.DynamicAdvancedSession
	inputInfo  onnxrt.InputOutputInfo
	outputInfo onnxrt.InputOutputInfo
	mu         sync.RWMutex
}

// NewONNXClassifier loads the model and labels named by cfg.
func NewONNXClassifier(cfg Config) (*ONNXClassifier, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("%w: empty model path", ErrModelNotFound)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelNotFound, cfg.ModelPath, err)
	}

	labels, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	if err := onnx.Initialize(cfg.Session.GPU.UseGPU); err != nil {
		return nil, err
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("io info: %w", err)
	}
	in, out, err := selectIO(inputs, outputs, cfg.OutputName)
	if err != nil {
		return nil, err
	}

	opts, err := onnx.NewSessionOptions(cfg.Session)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying session options: %v\n", err)
		}
	}()

	sess, err := onnxrt.NewDynamicAdvancedSession(cfg.ModelPath, []string{in.Name}, []string{out.Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	slog.Debug("Loaded classifier model",
		"model", cfg.ModelPath, "input", in.Name, "output", out.Name, "classes", labels.Size())

	return &ONNXClassifier{
		cfg:        cfg,
		labels:     labels,
		session:    sess,
		inputInfo:  in,
		outputInfo: out,
	}, nil
}

// selectIO picks the single 2-D input and the float score output. A named
// output wins; otherwise the only output, or the first float tensor output.
func selectIO(inputs, outputs []onnxrt.InputOutputInfo, outputName string) (
	onnxrt.InputOutputInfo, onnxrt.InputOutputInfo, error,
) {
	var none onnxrt.InputOutputInfo
	if len(inputs) != 1 {
		return none, none, fmt.Errorf("expected 1 input, got %d", len(inputs))
	}
	in := inputs[0]
	if len(in.Dimensions) != 2 {
		return none, none, fmt.Errorf("expected 2D input tensor, got %dD", len(in.Dimensions))
	}
	if w := in.Dimensions[1]; w > 0 && w != features.VectorLen {
		return none, none, fmt.Errorf("model expects %d features, want %d", w, features.VectorLen)
	}
	if len(outputs) == 0 {
		return none, none, fmt.Errorf("model has no outputs")
	}

	if outputName != "" {
		for _, o := range outputs {
			if o.Name == outputName {
				return in, o, nil
			}
		}
	}
	if len(outputs) == 1 {
		return in, outputs[0], nil
	}
	for _, o := range outputs {
		if o.OrtValueType == onnxrt.ONNXTypeTensor && o.DataType == onnxrt.TensorElementDataTypeFloat {
			return in, o, nil
		}
	}
	return none, none, fmt.Errorf("no float score output among %d outputs", len(outputs))
}

// Name returns the backend name.
func (c *ONNXClassifier) Name() string { return BackendONNX }

// Labels returns the loaded label set.
func (c *ONNXClassifier) Labels() *Labels { return c.labels }

// Close releases the ONNX session.
func (c *ONNXClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		if err := c.session.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying session: %v\n", err)
		}
		c.session = nil
	}
	return nil
}

// Predict runs the model over every row of in.Features.
func (c *ONNXClassifier) Predict(ctx context.Context, in Input) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := in.Features.Validate(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil, ErrClosed
	}

	input, cleanupInput, err := c.prepareInputTensor(in.Features)
	if err != nil {
		return nil, err
	}
	defer cleanupInput()

	outputs, cleanupOutputs, err := c.runInference(input)
	if err != nil {
		return nil, err
	}
	defer cleanupOutputs()

	t, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	return DecodeScores(t.GetData(), []int64(t.GetShape()), c.labels)
}

func (c *ONNXClassifier) prepareInputTensor(m features.Matrix) (*onnxrt.Tensor[float32], func(), error) {
	tensor, err := onnx.NewFeatureTensor(m.Data, m.Rows, m.Cols)
	if err != nil {
		return nil, nil, err
	}
	if err := onnx.CheckInputWidth(tensor, []int64(c.inputInfo.Dimensions)); err != nil {
		return nil, nil, err
	}

	input, err := onnxrt.NewTensor(onnxrt.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("tensor: %w", err)
	}
	cleanup := func() {
		if err := input.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying input tensor: %v\n", err)
		}
	}
	return input, cleanup, nil
}

func (c *ONNXClassifier) runInference(input *onnxrt.Tensor[float32]) ([]onnxrt.Value, func(), error) {
	outputs := []onnxrt.Value{nil}
	if err := c.session.Run([]onnxrt.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("run: %w", err)
	}
	cleanup := func() {
		for _, o := range outputs {
			if o != nil {
				if err := o.Destroy(); err != nil {
					fmt.Fprintf(os.Stderr, "Error destroying output tensor: %v\n", err)
				}
			}
		}
	}
	return outputs, cleanup, nil
}
