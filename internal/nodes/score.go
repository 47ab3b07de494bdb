package nodes

import (
	"fmt"

	"addon_engine/internal/metrics"
	"addon_engine/internal/scorer"
	"addon_engine/internal/workflow"
)

// ScoreNode 批量调用模型打分
type ScoreNode struct {
	name   string
	scorer scorer.Scorer
}

func NewScoreNode(cfg workflow.NodeConfig, s scorer.Scorer) (workflow.Node, error) {
	return &ScoreNode{name: cfg.Name, scorer: s}, nil
}

func (n *ScoreNode) Name() string { return n.name }
func (n *ScoreNode) Type() string { return "score" }

func (n *ScoreNode) Execute(ctx *workflow.Context) error {
	candidates := ctx.GetCandidates()
	if len(candidates) == 0 {
		return nil
	}

	rows := make([][]float64, len(candidates))
	for i, c := range candidates {
		if c.Vector == nil {
			return fmt.Errorf("candidate %d has not been projected", c.Order)
		}
		rows[i] = c.Vector
	}

	scores, err := n.scorer.Score(ctx.Ctx, rows)
	if err != nil {
		return fmt.Errorf("%s scorer: %w", n.scorer.Name(), err)
	}
	if err := scorer.Validate(rows, scores); err != nil {
		return err
	}
	for i, c := range candidates {
		c.Score = scores[i]
	}
	metrics.CandidatesScored.WithLabelValues(n.scorer.Name()).Add(float64(len(rows)))

	ctx.UpdateCandidates(candidates)
	ctx.AddLog("Score (%s) scored %d candidates with %s", n.name, len(candidates), n.scorer.Name())
	return nil
}
