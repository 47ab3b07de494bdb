package nodes

import (
	"addon_engine/internal/features"
	"addon_engine/internal/workflow"
)

// ContextBuildNode 为每个候选合并商品列、购物车聚合值和情境特征
type ContextBuildNode struct {
	name    string
	builder *features.Builder
}

func NewContextBuildNode(cfg workflow.NodeConfig) (workflow.Node, error) {
	// 未配置时使用默认预算
	var budget float64
	if raw, ok := cfg.Config["max_budget"]; ok {
		v, isNum := raw.(float64)
		if !isNum || v <= 0 {
			return nil, errInvalid(cfg, "max_budget must be > 0")
		}
		budget = v
	}

	var drop []string
	if raw, ok := cfg.Config["drop_columns"].([]interface{}); ok {
		drop = make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				drop = append(drop, s)
			}
		}
	}

	return &ContextBuildNode{
		name:    cfg.Name,
		builder: features.NewBuilder(budget, drop),
	}, nil
}

func (n *ContextBuildNode) Name() string { return n.name }
func (n *ContextBuildNode) Type() string { return "build_context" }

func (n *ContextBuildNode) Execute(ctx *workflow.Context) error {
	candidates := ctx.GetCandidates()
	if len(candidates) == 0 {
		return nil
	}

	derived := n.builder.Derive(ctx.Cart, ctx.Situation)
	for _, c := range candidates {
		c.Row = n.builder.Row(c.Item, derived)
	}

	ctx.UpdateCandidates(candidates)
	ctx.AddLog("Context build (%s): cart_size=%d total=%.2f budget_utilization=%.4f",
		n.name, derived.CartSize, derived.CartTotalValue, derived.BudgetUtilization)
	return nil
}
