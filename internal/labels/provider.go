package labels

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Unknown 未配置的品类显示名
const Unknown = "Item"

// Category 品类编码与显示名称
type Category struct {
	Code int    `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// Provider 定义了品类显示名称的获取接口，仅用于展示，不参与打分
type Provider interface {
	Name(code int) string
	Categories() []Category
}

// StaticProvider 基于静态配置文件实现的品类名称提供者，创建后只读
type StaticProvider struct {
	names map[int]string
}

type staticConfig struct {
	Categories []Category `yaml:"categories"`
}

// Default 返回内置的品类映射
func Default() *StaticProvider {
	return NewStaticProvider([]Category{
		{Code: 1, Name: "Snacks"},
		{Code: 2, Name: "Beverages"},
		{Code: 3, Name: "Desserts"},
		{Code: 4, Name: "Meals"},
	})
}

// NewStaticProvider 从内存中的列表创建
func NewStaticProvider(categories []Category) *StaticProvider {
	names := make(map[int]string, len(categories))
	for _, c := range categories {
		names[c.Code] = c.Name
	}
	return &StaticProvider{names: names}
}

// Load 从 yaml 文件加载品类映射
func Load(configPath string) (*StaticProvider, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read category config file: %w", err)
	}

	var config staticConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse category config: %w", err)
	}

	seen := make(map[int]struct{}, len(config.Categories))
	for _, c := range config.Categories {
		if c.Code <= 0 {
			return nil, fmt.Errorf("invalid category code %d", c.Code)
		}
		if _, dup := seen[c.Code]; dup {
			return nil, fmt.Errorf("duplicate category code %d", c.Code)
		}
		seen[c.Code] = struct{}{}
	}

	return NewStaticProvider(config.Categories), nil
}

// Name 返回品类显示名称，未配置时返回 Unknown
func (p *StaticProvider) Name(code int) string {
	if n, ok := p.names[code]; ok && n != "" {
		return n
	}
	return Unknown
}

// Categories 返回按编码排序的品类列表
func (p *StaticProvider) Categories() []Category {
	out := make([]Category, 0, len(p.names))
	for code, name := range p.names {
		out = append(out, Category{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
