package nodes

import (
	"fmt"

	"addon_engine/internal/features"
	"addon_engine/internal/workflow"
)

// ProjectNode 按特征契约投影每一行，任何一行不符合即整体失败，不做补值
type ProjectNode struct {
	name     string
	contract *features.Contract
}

func NewProjectNode(cfg workflow.NodeConfig, contract *features.Contract) (workflow.Node, error) {
	return &ProjectNode{name: cfg.Name, contract: contract}, nil
}

func (n *ProjectNode) Name() string { return n.name }
func (n *ProjectNode) Type() string { return "project_features" }

func (n *ProjectNode) Execute(ctx *workflow.Context) error {
	candidates := ctx.GetCandidates()
	for _, c := range candidates {
		vec, err := n.contract.Project(c.Row)
		if err != nil {
			return fmt.Errorf("candidate %d (catalog row %d): %w", c.Order, c.Item.Index, err)
		}
		c.Vector = vec
	}

	ctx.UpdateCandidates(candidates)
	ctx.AddLog("Projection (%s) produced %d rows x %d features", n.name, len(candidates), n.contract.Len())
	return nil
}
