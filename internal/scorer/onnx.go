package scorer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig ONNX 模型相关配置
type ONNXConfig struct {
	SharedLibrary string `koanf:"shared_library"` // onnxruntime 动态库路径
	InputName     string `koanf:"input_name"`
	OutputName    string `koanf:"output_name"` // 概率输出，形状 [N, classes]
	Classes       int    `koanf:"classes"`
	PositiveClass int    `koanf:"positive_class"`
}

func (c *ONNXConfig) applyDefaults() {
	if c.InputName == "" {
		c.InputName = "float_input"
	}
	if c.OutputName == "" {
		c.OutputName = "probabilities"
	}
	if c.Classes <= 0 {
		c.Classes = 2
	}
	if c.PositiveClass <= 0 {
		c.PositiveClass = 1
	}
}

var (
	envOnce sync.Once
	envErr  error
)

func initEnvironment(lib string) error {
	envOnce.Do(func() {
		if lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		envErr = ort.InitializeEnvironment()
	})
	return envErr
}

// ONNX 通过 onnxruntime 调用导出的分类器 (例如 onnxmltools 导出的 XGBoost 模型)
type ONNX struct {
	cfg      ONNXConfig
	features int
	session  *ort.DynamicAdvancedSession
	mu       sync.Mutex // 会话调用串行化
}

// NewONNX 加载模型并创建动态批大小的会话
func NewONNX(path string, features int, cfg ONNXConfig) (*ONNX, error) {
	cfg.applyDefaults()
	if cfg.PositiveClass >= cfg.Classes {
		return nil, fmt.Errorf("positive class %d out of range for %d classes", cfg.PositiveClass, cfg.Classes)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat model: %w", err)
	}
	if err := initEnvironment(cfg.SharedLibrary); err != nil {
		return nil, fmt.Errorf("init onnxruntime: %w", err)
	}
	session, err := ort.NewDynamicAdvancedSession(path, []string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &ONNX{cfg: cfg, features: features, session: session}, nil
}

func (o *ONNX) Name() string { return "onnx" }

func (o *ONNX) Score(ctx context.Context, rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flat := make([]float32, 0, len(rows)*o.features)
	for i, row := range rows {
		if len(row) != o.features {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), o.features)
		}
		for _, v := range row {
			flat = append(flat, float32(v))
		}
	}

	n := int64(len(rows))
	input, err := ort.NewTensor(ort.NewShape(n, int64(o.features)), flat)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(n, int64(o.cfg.Classes)))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer output.Destroy()

	o.mu.Lock()
	if o.session == nil {
		o.mu.Unlock()
		return nil, errors.New("onnx session is closed")
	}
	err = o.session.Run([]ort.Value{input}, []ort.Value{output})
	o.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run onnx session: %w", err)
	}

	probs := output.GetData()
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = float64(probs[i*o.cfg.Classes+o.cfg.PositiveClass])
	}
	return out, nil
}

// Close 释放会话，环境在进程退出时由 Shutdown 释放
func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}

// Shutdown 销毁 onnxruntime 环境
func Shutdown() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}
