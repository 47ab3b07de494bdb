package model

// 目录静态数据中的固定列名
const (
	ColItemCategory = "item_category"
	ColItemPrice    = "item_price"
)

// CatalogItem 代表静态目录数据中的一行商品
// 加载后只读，可以在多个会话间共享
type CatalogItem struct {
	Index    int                `json:"index"` // 在源文件中的行号 (从 0 开始，不含表头)
	Category int                `json:"category"`
	Price    float64            `json:"price"`
	Features map[string]float64 `json:"features,omitempty"` // 其余的数值列，空值或非数值不出现在 map 中
}

// Column 返回商品自身的某一列，包括 item_category / item_price
func (it *CatalogItem) Column(name string) (float64, bool) {
	switch name {
	case ColItemCategory:
		return float64(it.Category), true
	case ColItemPrice:
		return it.Price, true
	}
	v, ok := it.Features[name]
	return v, ok
}

// CartEntry 代表购物车中的一个条目
type CartEntry struct {
	Category int     `json:"item_category"`
	Price    float64 `json:"item_price"`
}

// Candidate 代表一次推荐计算中的一个候选商品
// Row 由 Context Builder 填充，Vector 由 Feature Projector 填充，Score 由 Scorer 填充
type Candidate struct {
	Item   *CatalogItem       `json:"-"`
	Order  int                `json:"order"` // 候选采样时的顺序，用于同分时保持稳定
	Row    map[string]float64 `json:"-"`
	Vector []float64          `json:"-"`
	Score  float64            `json:"score"`
}

// Recommendation 是最终展示给调用方的推荐条目
type Recommendation struct {
	Rank         int     `json:"rank"`
	Category     int     `json:"item_category"`
	CategoryName string  `json:"category_name"`
	Price        float64 `json:"item_price"`
	Score        float64 `json:"score"`
	Display      string  `json:"display"`
}
