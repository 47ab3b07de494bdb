package scorer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"addon_engine/internal/features"
)

var (
	// ErrScoreCount 打分结果数量与输入行数不一致
	ErrScoreCount = errors.New("scorer returned wrong number of scores")
	// ErrScoreRange 打分结果不在 [0,1] 内
	ErrScoreRange = errors.New("score out of range [0,1]")
)

// Scorer 是预训练分类器的边界：输入按特征契约投影后的行，输出每行正类概率
// 实现必须返回与输入等长、同顺序的结果
type Scorer interface {
	Name() string
	Score(ctx context.Context, rows [][]float64) ([]float64, error)
	Close() error
}

// Config 模型配置
type Config struct {
	Path    string        `koanf:"path"`
	Format  string        `koanf:"format"` // "auto", "onnx", "logistic"
	ONNX    ONNXConfig    `koanf:"onnx"`
	Breaker BreakerConfig `koanf:"breaker"`
}

// Open 按配置加载模型，契约用于校验模型与特征列的一致性
func Open(cfg Config, contract *features.Contract) (Scorer, error) {
	if cfg.Path == "" {
		return nil, errors.New("model path is empty")
	}
	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		switch strings.ToLower(filepath.Ext(cfg.Path)) {
		case ".onnx":
			format = "onnx"
		default:
			format = "logistic"
		}
	}

	var (
		s   Scorer
		err error
	)
	switch format {
	case "logistic":
		s, err = LoadLogistic(cfg.Path, contract)
	case "onnx":
		s, err = NewONNX(cfg.Path, contract.Len(), cfg.ONNX)
	default:
		return nil, fmt.Errorf("unknown model format %q", cfg.Format)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Breaker.Enabled {
		s = NewBreaker(s, cfg.Breaker)
	}
	return s, nil
}

// Validate 检查打分结果是否满足与 Scorer 的约定
func Validate(rows [][]float64, scores []float64) error {
	if len(scores) != len(rows) {
		return fmt.Errorf("%w: got %d for %d rows", ErrScoreCount, len(scores), len(rows))
	}
	for i, s := range scores {
		if math.IsNaN(s) || s < 0 || s > 1 {
			return fmt.Errorf("%w: row %d scored %v", ErrScoreRange, i, s)
		}
	}
	return nil
}

// Func 把普通函数适配成 Scorer，主要用于测试和演示
type Func func(row []float64) float64

func (f Func) Name() string { return "func" }

func (f Func) Score(_ context.Context, rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = f(r)
	}
	return out, nil
}

func (f Func) Close() error { return nil }
