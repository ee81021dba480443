package onnx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	onnxrt "github.com/yalue/onnxruntime_go"
)

const (
	osLinux    = "linux"
	osDarwin   = "darwin"
	osWindows  = "windows"
	libLinux   = "libonnxruntime.so"
	libDarwin  = "libonnxruntime.dylib"
	libWindows = "onnxruntime.dll"
)

// EnvLibraryPath points directly at the ONNX Runtime shared library.
const EnvLibraryPath = "LANGID_ONNXRUNTIME_LIB"

// GPUConfig holds configuration for CUDA acceleration.
type GPUConfig struct {
	UseGPU   bool // Enable GPU acceleration
	DeviceID int  // CUDA device ID
}

// SessionConfig controls how inference sessions are created.
type SessionConfig struct {
	NumThreads int // Intra-op threads (0 for runtime default)
	GPU        GPUConfig
}

// DefaultSessionConfig returns a CPU-only session configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{}
}

// Validate checks the session configuration.
func (c SessionConfig) Validate() error {
	if c.NumThreads < 0 {
		return fmt.Errorf("num threads must be non-negative, got %d", c.NumThreads)
	}
	if c.GPU.UseGPU && c.GPU.DeviceID < 0 {
		return fmt.Errorf("device ID must be non-negative, got %d", c.GPU.DeviceID)
	}
	return nil
}

var initMu sync.Mutex

// Initialize locates the shared library and initializes the ONNX Runtime
// environment once per process.
func Initialize(useGPU bool) error {
	initMu.Lock()
	defer initMu.Unlock()

	if onnxrt.IsInitialized() {
		return nil
	}
	if err := SetONNXLibraryPath(useGPU); err != nil {
		return fmt.Errorf("onnx lib path: %w", err)
	}
	if err := onnxrt.InitializeEnvironment(); err != nil {
		return fmt.Errorf("init onnx: %w", err)
	}
	return nil
}

// NewSessionOptions builds session options for cfg. The caller destroys them.
func NewSessionOptions(cfg SessionConfig) (*onnxrt.SessionOptions, error) {
	opts, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session opts: %w", err)
	}

	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			_ = opts.Destroy()
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	if err := configureCUDA(opts, cfg.GPU); err != nil {
		_ = opts.Destroy()
		return nil, fmt.Errorf("failed to configure GPU: %w", err)
	}

	return opts, nil
}

func configureCUDA(opts *onnxrt.SessionOptions, gpu GPUConfig) error {
	if !gpu.UseGPU {
		return nil
	}

	cudaOpts, err := onnxrt.NewCUDAProviderOptions()
	if err != nil {
		return fmt.Errorf("failed to create CUDA provider options (GPU may not be available): %w", err)
	}
	defer func() {
		if err := cudaOpts.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to destroy CUDA provider options: %v\n", err)
		}
	}()

	if err := cudaOpts.Update(map[string]string{"device_id": strconv.Itoa(gpu.DeviceID)}); err != nil {
		return fmt.Errorf("failed to update CUDA provider options: %w", err)
	}
	return opts.AppendExecutionProviderCUDA(cudaOpts)
}

// getSystemLibraryPaths returns system library paths to try, GPU builds first when requested.
func getSystemLibraryPaths(useGPU bool) []string {
	paths := []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
	if useGPU {
		return append([]string{"/opt/onnxruntime/gpu/lib/libonnxruntime.so"}, paths...)
	}
	return paths
}

// findProjectRoot finds the project root directory by looking for go.mod.
func findProjectRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find project root")
		}
		dir = parent
	}
}

// getLibraryName returns the library filename for the current OS.
func getLibraryName() (string, error) {
	switch runtime.GOOS {
	case osLinux:
		return libLinux, nil
	case osDarwin:
		return libDarwin, nil
	case osWindows:
		return libWindows, nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// FindLibrary returns the first ONNX Runtime library found. The search order is
// the env override, system paths, then <project>/onnxruntime/{gpu/,}lib.
func FindLibrary(useGPU bool) (string, error) {
	if p := os.Getenv(EnvLibraryPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s: %w", EnvLibraryPath, err)
		}
		return p, nil
	}

	for _, p := range getSystemLibraryPaths(useGPU) {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	root, err := findProjectRoot(cwd)
	if err != nil {
		return "", err
	}
	libName, err := getLibraryName()
	if err != nil {
		return "", err
	}

	candidates := []string{filepath.Join(root, "onnxruntime", "lib", libName)}
	if useGPU {
		candidates = append([]string{filepath.Join(root, "onnxruntime", "gpu", "lib", libName)}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("ONNX Runtime library not found at %s", candidates[len(candidates)-1])
}

// SetONNXLibraryPath points onnxruntime_go at the library found by FindLibrary.
func SetONNXLibraryPath(useGPU bool) error {
	p, err := FindLibrary(useGPU)
	if err != nil {
		return err
	}
	onnxrt.SetSharedLibraryPath(p)
	return nil
}

// CheckRuntime verifies that ONNX Runtime can be loaded and reports progress to out.
func CheckRuntime(out io.Writer) error {
	libPath, err := FindLibrary(false)
	if err != nil {
		return fmt.Errorf("failed to find ONNX Runtime library: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Using ONNX Runtime library: %s\n", libPath)

	if err := Initialize(false); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✓ ONNX Runtime initialized (version %s)\n", onnxrt.GetVersion())
	return nil
}
