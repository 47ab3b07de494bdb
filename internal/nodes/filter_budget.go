package nodes

import (
	"addon_engine/internal/features"
	"addon_engine/internal/model"
	"addon_engine/internal/workflow"
)

// BudgetFilterNode 过滤掉价格超过剩余预算的候选
// 默认 pipeline 不包含该节点
type BudgetFilterNode struct {
	name      string
	maxBudget float64
}

func NewBudgetFilterNode(cfg workflow.NodeConfig) (workflow.Node, error) {
	budget, ok := cfg.Config["max_budget"].(float64)
	if !ok {
		budget = features.DefaultMaxBudget
	}
	if budget <= 0 {
		return nil, errInvalid(cfg, "max_budget must be > 0")
	}
	return &BudgetFilterNode{name: cfg.Name, maxBudget: budget}, nil
}

func (n *BudgetFilterNode) Name() string { return n.name }
func (n *BudgetFilterNode) Type() string { return "filter_budget" }

func (n *BudgetFilterNode) Execute(ctx *workflow.Context) error {
	candidates := ctx.GetCandidates()
	if len(candidates) == 0 {
		return nil
	}

	remaining := n.maxBudget - ctx.Cart.TotalValue()
	kept := make([]*model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Item.Price <= remaining {
			kept = append(kept, c)
		}
	}

	ctx.UpdateCandidates(kept)
	ctx.AddLog("Budget filter (%s) removed %d items, kept %d", n.name, len(candidates)-len(kept), len(kept))
	return nil
}
