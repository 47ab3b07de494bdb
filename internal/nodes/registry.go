package nodes

import (
	_ "embed"
	"errors"
	"fmt"

	"addon_engine/internal/catalog"
	"addon_engine/internal/features"
	"addon_engine/internal/scorer"
	"addon_engine/internal/workflow"
)

// SceneAddon 默认的加购推荐场景
const SceneAddon = "addon"

// DefaultPipelines 内置的 pipeline 配置，未指定配置文件时使用
//
//go:embed pipelines.json
var DefaultPipelines []byte

// Deps 节点依赖的只读资源，在启动时加载一次
type Deps struct {
	Store    *catalog.Store
	Contract *features.Contract
	Scorer   scorer.Scorer
}

// NewRegistry 注册所有可用的 Workflow 节点
func NewRegistry(deps Deps) (*workflow.Registry, error) {
	if deps.Store == nil || deps.Contract == nil || deps.Scorer == nil {
		return nil, errors.New("nodes: store, contract and scorer are required")
	}
	registry := workflow.NewRegistry()

	// 使用闭包注入只读依赖
	registry.Register("recall_catalog", func(cfg workflow.NodeConfig) (workflow.Node, error) {
		return NewCatalogRecallNode(cfg, deps.Store)
	})
	registry.Register("build_context", NewContextBuildNode)
	registry.Register("filter_budget", NewBudgetFilterNode)
	registry.Register("project_features", func(cfg workflow.NodeConfig) (workflow.Node, error) {
		return NewProjectNode(cfg, deps.Contract)
	})
	registry.Register("score", func(cfg workflow.NodeConfig) (workflow.Node, error) {
		return NewScoreNode(cfg, deps.Scorer)
	})
	registry.Register("rank_topk", NewTopKRankNode)

	return registry, nil
}

func errInvalid(cfg workflow.NodeConfig, msg string) error {
	return fmt.Errorf("%s node '%s': %s", cfg.Type, cfg.Name, msg)
}
