package nodes

import (
	"addon_engine/internal/rank"
	"addon_engine/internal/workflow"
)

// DefaultTopK 默认返回的推荐数量
const DefaultTopK = 5

type TopKRankNode struct {
	name string
	k    int
}

func NewTopKRankNode(cfg workflow.NodeConfig) (workflow.Node, error) {
	k, ok := cfg.Config["k"].(float64)
	if !ok {
		k = DefaultTopK
	}
	if k < 0 {
		return nil, errInvalid(cfg, "k must be >= 0")
	}

	return &TopKRankNode{
		name: cfg.Name,
		k:    int(k),
	}, nil
}

func (n *TopKRankNode) Name() string { return n.name }
func (n *TopKRankNode) Type() string { return "rank_topk" }

func (n *TopKRankNode) Execute(ctx *workflow.Context) error {
	candidates := rank.TopK(ctx.GetCandidates(), n.k)

	ctx.UpdateCandidates(candidates)
	ctx.AddLog("Rank (%s) completed. k=%d, Result count: %d", n.name, n.k, len(candidates))
	return nil
}
