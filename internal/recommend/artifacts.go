package recommend

import (
	"fmt"

	"addon_engine/internal/catalog"
	"addon_engine/internal/features"
	"addon_engine/internal/labels"
	"addon_engine/internal/nodes"
	"addon_engine/internal/scorer"
	"addon_engine/internal/workflow"
)

// Config 启动时加载的离线产物路径
type Config struct {
	Catalog   string        `koanf:"catalog"`
	Contract  string        `koanf:"contract"`
	Model     scorer.Config `koanf:"model"`
	Labels    string        `koanf:"labels"`    // 为空时使用内置品类名
	Pipelines string        `koanf:"pipelines"` // 为空时使用内置 pipeline
}

// Artifacts 所有会话共享的只读资源
type Artifacts struct {
	Store    *catalog.Store
	Contract *features.Contract
	Scorer   scorer.Scorer
	Labels   labels.Provider
	Engine   *workflow.Engine
}

// LoadArtifacts 加载目录、特征契约、模型、品类名和 pipeline
// 任一必需产物缺失或无效都会返回错误，调用方应直接退出
func LoadArtifacts(cfg Config) (*Artifacts, error) {
	store, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	contract, err := features.LoadContract(cfg.Contract)
	if err != nil {
		return nil, err
	}
	model, err := scorer.Open(cfg.Model, contract)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	var names labels.Provider = labels.Default()
	if cfg.Labels != "" {
		p, err := labels.Load(cfg.Labels)
		if err != nil {
			model.Close()
			return nil, err
		}
		names = p
	}

	a, err := newArtifacts(store, contract, model, names, cfg.Pipelines)
	if err != nil {
		model.Close()
		return nil, err
	}
	return a, nil
}

// NewArtifacts 用已加载的资源和 pipeline JSON 组装，pipelines 为空时使用内置配置
func NewArtifacts(store *catalog.Store, contract *features.Contract, s scorer.Scorer, names labels.Provider, pipelines []byte) (*Artifacts, error) {
	deps := nodes.Deps{Store: store, Contract: contract, Scorer: s}
	registry, err := nodes.NewRegistry(deps)
	if err != nil {
		return nil, err
	}
	if len(pipelines) == 0 {
		pipelines = nodes.DefaultPipelines
	}
	engine, err := workflow.NewEngineFromJSON(pipelines, registry)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = labels.Default()
	}
	return &Artifacts{Store: store, Contract: contract, Scorer: s, Labels: names, Engine: engine}, nil
}

func newArtifacts(store *catalog.Store, contract *features.Contract, s scorer.Scorer, names labels.Provider, pipelinePath string) (*Artifacts, error) {
	if pipelinePath == "" {
		return NewArtifacts(store, contract, s, names, nil)
	}
	registry, err := nodes.NewRegistry(nodes.Deps{Store: store, Contract: contract, Scorer: s})
	if err != nil {
		return nil, err
	}
	engine, err := workflow.NewEngine(pipelinePath, registry)
	if err != nil {
		return nil, err
	}
	return &Artifacts{Store: store, Contract: contract, Scorer: s, Labels: names, Engine: engine}, nil
}

// Close 释放模型资源
func (a *Artifacts) Close() error {
	if a == nil || a.Scorer == nil {
		return nil
	}
	return a.Scorer.Close()
}
