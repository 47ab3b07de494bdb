package scorer

import (
	"context"
	"errors"
	"time"

	"addon_engine/internal/logger"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig 模型调用熔断配置
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	FailureThreshold uint32        `koanf:"failure_threshold"` // 连续失败多少次后熔断
	Timeout          time.Duration `koanf:"timeout"`           // 熔断后多久进入半开状态
}

// Breaker 在底层模型连续失败时快速失败，避免每次请求都等待一个坏掉的模型
type Breaker struct {
	inner Scorer
	cb    *gobreaker.CircuitBreaker[[]float64]
}

// NewBreaker 用熔断器包装 Scorer
func NewBreaker(inner Scorer, cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	log := logger.With("scorer")

	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// 调用方取消不算模型故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("scorer", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &Breaker{inner: inner, cb: gobreaker.NewCircuitBreaker[[]float64](settings)}
}

func (b *Breaker) Name() string { return b.inner.Name() }

func (b *Breaker) Score(ctx context.Context, rows [][]float64) ([]float64, error) {
	return b.cb.Execute(func() ([]float64, error) {
		return b.inner.Score(ctx, rows)
	})
}

func (b *Breaker) Close() error { return b.inner.Close() }

// State 返回熔断器当前状态
func (b *Breaker) State() gobreaker.State { return b.cb.State() }
