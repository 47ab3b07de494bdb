package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"addon_engine/internal/cart"
	"addon_engine/internal/catalog"
	"addon_engine/internal/history"
	"addon_engine/internal/logger"
	"addon_engine/internal/metrics"
	"addon_engine/internal/model"
	"addon_engine/internal/nodes"
	"addon_engine/internal/situation"
	"addon_engine/internal/workflow"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	StatusOK        = "ok"
	StatusEmptyCart = "empty_cart"
)

// Result 一次推荐调用的结果
type Result struct {
	Status    string                 `json:"status"`
	Items     []model.Recommendation `json:"items"`
	CartSize  int                    `json:"cart_size"`
	CartValue float64                `json:"cart_value"`
	Situation situation.Situation    `json:"situation"`
	Trace     []string               `json:"trace,omitempty"`
}

// Impressions 把推荐结果转换成曝光记录
func (r *Result) Impressions(sessionID string) []history.Record {
	out := make([]history.Record, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, history.Record{
			SessionID: sessionID,
			Step:      r.CartSize,
			Category:  it.Category,
			Price:     it.Price,
			Rank:      it.Rank,
			Score:     it.Score,
		})
	}
	return out
}

// Options 推荐服务的运行参数
type Options struct {
	Scene   string        `koanf:"scene"`
	Timeout time.Duration `koanf:"timeout"`
	Locale  string        `koanf:"locale"` // 价格展示的语言，如 "en"
	Trace   bool          `koanf:"trace"`  // 在结果中附带 pipeline 执行日志

	// Currency 价格前的货币符号，默认 ₹
	Currency      string `koanf:"currency"`
	// PriceDecimals 价格小数位，0 表示截断为整数
	PriceDecimals int    `koanf:"price_decimals"`
}

// DefaultCurrency 默认货币符号
const DefaultCurrency = "₹"

// Service 把购物车、情境和 pipeline 串起来
type Service struct {
	artifacts *Artifacts
	situation situation.Provider
	opts      Options
	printer   *message.Printer
	log       zerolog.Logger
}

// NewService 创建推荐服务，场景必须存在于 pipeline 配置中
func NewService(a *Artifacts, sp situation.Provider, opts Options) (*Service, error) {
	if a == nil || a.Engine == nil {
		return nil, errors.New("recommend: artifacts are required")
	}
	if sp == nil {
		sp = situation.DefaultFixed()
	}
	if opts.Scene == "" {
		opts.Scene = nodes.SceneAddon
	}
	if opts.Currency == "" {
		opts.Currency = DefaultCurrency
	}
	if opts.PriceDecimals < 0 {
		return nil, fmt.Errorf("price decimals must be >= 0, got %d", opts.PriceDecimals)
	}
	if !a.Engine.Has(opts.Scene) {
		return nil, fmt.Errorf("%w: %s", workflow.ErrPipelineNotFound, opts.Scene)
	}
	tag := language.English
	if opts.Locale != "" {
		t, err := language.Parse(opts.Locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale: %w", err)
		}
		tag = t
	}
	return &Service{
		artifacts: a,
		situation: sp,
		opts:      opts,
		printer:   message.NewPrinter(tag),
		log:       logger.With("recommend"),
	}, nil
}

// Artifacts 返回共享资源
func (s *Service) Artifacts() *Artifacts { return s.artifacts }

// Recommend 为当前购物车生成加购推荐
// 购物车为空时直接返回 empty_cart；计算在快照上进行，不会修改购物车
func (s *Service) Recommend(ctx context.Context, sessionID string, c *cart.Cart) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}()

	step := c.Size()
	sit := s.situation.Situation(step)
	res := &Result{
		Items:     []model.Recommendation{},
		CartSize:  step,
		CartValue: c.TotalValue(),
		Situation: sit,
	}
	if step == 0 {
		res.Status = StatusEmptyCart
		metrics.RecommendRequests.WithLabelValues(StatusEmptyCart).Inc()
		return res, nil
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	wf := workflow.NewContext(ctx, sessionID, c.Snapshot(), sit)
	if err := s.artifacts.Engine.Run(wf, s.opts.Scene); err != nil {
		metrics.RecommendRequests.WithLabelValues("error").Inc()
		s.log.Error().Err(err).
			Str("session", sessionID).
			Int("cart_size", step).
			Msg("recommendation pipeline failed")
		return nil, err
	}

	for i, cand := range wf.GetCandidates() {
		res.Items = append(res.Items, s.decorate(i+1, cand))
	}
	res.Status = StatusOK
	if s.opts.Trace {
		res.Trace = wf.Trace()
	}
	metrics.RecommendRequests.WithLabelValues(StatusOK).Inc()
	s.log.Debug().
		Str("session", sessionID).
		Int("cart_size", step).
		Int("items", len(res.Items)).
		Dur("took", time.Since(start)).
		Msg("recommendation served")
	return res, nil
}

func (s *Service) decorate(rank int, cand *model.Candidate) model.Recommendation {
	name := s.artifacts.Labels.Name(cand.Item.Category)
	return model.Recommendation{
		Rank:         rank,
		Category:     cand.Item.Category,
		CategoryName: name,
		Price:        cand.Item.Price,
		Score:        cand.Score,
		Display:      s.display(name, cand.Item.Price),
	}
}

func (s *Service) display(name string, price float64) string {
	if s.opts.PriceDecimals == 0 {
		return s.printer.Sprintf("%s %s%d", name, s.opts.Currency, int(price))
	}
	return s.printer.Sprintf("%s %s%.*f", name, s.opts.Currency, s.opts.PriceDecimals, price)
}

// AddToCart 从目录中为品类采样一个价格并加入购物车
// 品类没有商品或购物车已满时返回错误，购物车保持不变
func (s *Service) AddToCart(c *cart.Cart, category int, rng *rand.Rand) (model.CartEntry, error) {
	price, err := s.artifacts.Store.SamplePrice(category, rng)
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyCategory) {
			metrics.CartAdds.WithLabelValues("empty_category").Inc()
		}
		return model.CartEntry{}, err
	}
	if err := c.Add(category, price); err != nil {
		if errors.Is(err, cart.ErrCartFull) {
			metrics.CartAdds.WithLabelValues("cart_full").Inc()
		}
		return model.CartEntry{}, err
	}
	metrics.CartAdds.WithLabelValues("ok").Inc()
	return model.CartEntry{Category: category, Price: price}, nil
}
