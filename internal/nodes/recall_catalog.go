package nodes

import (
	"sync"

	"addon_engine/internal/catalog"
	"addon_engine/internal/model"
	"addon_engine/internal/workflow"
)

// DefaultPoolSize 默认候选池大小
const (
	DefaultPoolSize = 30
	DefaultPoolSeed = 42
)

// CatalogRecallNode 从静态目录中按固定种子抽取候选
// 目录只读且采样结果只取决于种子，因此采样结果在节点内缓存
type CatalogRecallNode struct {
	name  string
	store *catalog.Store
	size  int
	seed  int64

	once  sync.Once
	items []*model.CatalogItem
}

// NewCatalogRecallNode 工厂函数
func NewCatalogRecallNode(cfg workflow.NodeConfig, store *catalog.Store) (workflow.Node, error) {
	size, ok := cfg.Config["size"].(float64)
	if !ok {
		size = DefaultPoolSize
	}
	seed, ok := cfg.Config["seed"].(float64)
	if !ok {
		seed = DefaultPoolSeed
	}
	if size < 0 {
		return nil, errInvalid(cfg, "size must be >= 0")
	}

	return &CatalogRecallNode{
		name:  cfg.Name,
		store: store,
		size:  int(size),
		seed:  int64(seed),
	}, nil
}

func (n *CatalogRecallNode) Name() string { return n.name }
func (n *CatalogRecallNode) Type() string { return "recall_catalog" }

func (n *CatalogRecallNode) Execute(ctx *workflow.Context) error {
	n.once.Do(func() {
		n.items = n.store.SampleCandidates(n.size, n.seed)
	})

	candidates := make([]*model.Candidate, len(n.items))
	for i, it := range n.items {
		candidates[i] = &model.Candidate{Item: it, Order: i}
	}

	ctx.UpdateCandidates(candidates)
	ctx.AddLog("Catalog recall (%s) sampled %d items (seed %d)", n.name, len(candidates), n.seed)
	return nil
}
