package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendRequests 推荐请求数，outcome: ok / empty_cart / error
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addon_recommend_requests_total",
			Help: "Total number of add-on recommendation requests",
		},
		[]string{"outcome"},
	)

	// RecommendDuration 整个推荐 pipeline 的耗时
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "addon_recommend_duration_seconds",
			Help:    "Duration of the recommendation pipeline in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// NodeDuration 单个节点耗时
	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "addon_pipeline_node_duration_seconds",
			Help:    "Duration of individual pipeline nodes in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"node"},
	)

	// CandidatesScored 被打分的候选数量
	CandidatesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addon_candidates_scored_total",
			Help: "Total number of candidate rows scored",
		},
		[]string{"scorer"},
	)

	// CartAdds 加购操作，outcome: ok / empty_category / cart_full
	CartAdds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "addon_cart_adds_total",
			Help: "Total number of add-to-cart attempts",
		},
		[]string{"outcome"},
	)

	// ActiveSessions 当前活跃会话数
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "addon_active_sessions",
			Help: "Current number of open cart sessions",
		},
	)
)
