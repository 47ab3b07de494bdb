package scorer

import (
	"context"
	"fmt"
	"math"
	"os"

	"addon_engine/internal/features"

	"github.com/goccy/go-json"
)

// logisticArtifact 是逻辑回归模型的 JSON 格式
type logisticArtifact struct {
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

// Logistic 是一个逻辑回归打分器，权重按特征契约的顺序展开
type Logistic struct {
	bias    float64
	weights []float64
}

// LoadLogistic 读取 JSON 模型文件
func LoadLogistic(path string, contract *features.Contract) (*Logistic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var art logisticArtifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	return NewLogistic(art.Bias, art.Weights, contract)
}

// NewLogistic 构造逻辑回归打分器，权重中出现契约外的列视为错误
// 契约中没有权重的列权重为 0
func NewLogistic(bias float64, weights map[string]float64, contract *features.Contract) (*Logistic, error) {
	w := make([]float64, contract.Len())
	for col, v := range weights {
		i, ok := contract.Index(col)
		if !ok {
			return nil, fmt.Errorf("model weight %q is not in the feature contract", col)
		}
		w[i] = v
	}
	return &Logistic{bias: bias, weights: w}, nil
}

func (l *Logistic) Name() string { return "logistic" }

func (l *Logistic) Score(ctx context.Context, rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(row) != len(l.weights) {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), len(l.weights))
		}
		z := l.bias
		for j, x := range row {
			z += l.weights[j] * x
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

func (l *Logistic) Close() error { return nil }

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
