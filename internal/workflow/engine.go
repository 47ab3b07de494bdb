package workflow

import (
	"errors"
	"fmt"
	"os"
	"time"

	"addon_engine/internal/metrics"

	"github.com/goccy/go-json"
)

// ErrPipelineNotFound 场景没有对应的 pipeline
var ErrPipelineNotFound = errors.New("pipeline not found")

// PipelineConfig 单个 Pipeline 的配置
type PipelineConfig struct {
	Description string       `json:"description"`
	Nodes       []NodeConfig `json:"nodes"`
}

// NodeConfig 节点的配置片段
type NodeConfig struct {
	Name   string                 `json:"name"`
	Type   string                 `json:"type"`
	Config map[string]interface{} `json:"config"`
}

// GlobalConfig 整个配置文件的结构
type GlobalConfig struct {
	Pipelines map[string]PipelineConfig `json:"pipelines"`
}

// NodeFactory 创建 Node 的函数签名
type NodeFactory func(config NodeConfig) (Node, error)

// Registry 节点注册表
type Registry struct {
	factories map[string]NodeFactory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]NodeFactory),
	}
}

// Register 注册一个新的节点类型
func (r *Registry) Register(nodeType string, factory NodeFactory) {
	r.factories[nodeType] = factory
}

// CreateNode 根据配置创建节点实例
func (r *Registry) CreateNode(cfg NodeConfig) (Node, error) {
	factory, ok := r.factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", cfg.Type)
	}
	if cfg.Config == nil {
		cfg.Config = map[string]interface{}{}
	}
	return factory(cfg)
}

// Engine 流程引擎
type Engine struct {
	pipelines map[string][]Node // scene -> nodes
	registry  *Registry
}

// NewEngine 创建引擎并从文件加载配置
func NewEngine(configPath string, registry *Registry) (*Engine, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}
	return NewEngineFromJSON(data, registry)
}

// NewEngineFromJSON 从 JSON 内容创建引擎
func NewEngineFromJSON(data []byte, registry *Registry) (*Engine, error) {
	var globalCfg GlobalConfig
	if err := json.Unmarshal(data, &globalCfg); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config: %w", err)
	}
	if len(globalCfg.Pipelines) == 0 {
		return nil, fmt.Errorf("pipeline config defines no pipelines")
	}

	engine := &Engine{
		pipelines: make(map[string][]Node),
		registry:  registry,
	}

	for scene, pipeCfg := range globalCfg.Pipelines {
		var nodes []Node
		for _, nodeCfg := range pipeCfg.Nodes {
			node, err := registry.CreateNode(nodeCfg)
			if err != nil {
				return nil, fmt.Errorf("failed to create node '%s' in pipeline '%s': %w", nodeCfg.Name, scene, err)
			}
			nodes = append(nodes, node)
		}
		engine.pipelines[scene] = nodes
	}

	return engine, nil
}

// Has 判断场景是否存在
func (e *Engine) Has(scene string) bool {
	_, ok := e.pipelines[scene]
	return ok
}

// Run 顺序执行指定场景的推荐流程，遇到第一个错误即停止
func (e *Engine) Run(ctx *Context, scene string) error {
	nodes, ok := e.pipelines[scene]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPipelineNotFound, scene)
	}

	ctx.AddLog("Starting pipeline execution for scene: %s", scene)

	for _, node := range nodes {
		if err := ctx.Ctx.Err(); err != nil {
			ctx.AddLog("Pipeline aborted before node %s: %v", node.Name(), err)
			return err
		}
		ctx.AddLog("Executing node: %s (%s)", node.Name(), node.Type())
		start := time.Now()
		err := node.Execute(ctx)
		metrics.NodeDuration.WithLabelValues(node.Type()).Observe(time.Since(start).Seconds())
		if err != nil {
			ctx.AddLog("Node execution failed: %v", err)
			return fmt.Errorf("node %s: %w", node.Name(), err)
		}
	}

	ctx.AddLog("Pipeline execution completed")
	return nil
}
