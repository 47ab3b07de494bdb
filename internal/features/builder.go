package features

import (
	"addon_engine/internal/cart"
	"addon_engine/internal/model"
	"addon_engine/internal/situation"
)

// 购物车与情境派生的特征列
const (
	ColCartSize          = "cart_size"
	ColCartTotalValue    = "cart_total_value"
	ColLastItemCategory  = "last_item_category"
	ColLastItemPrice     = "last_item_price"
	ColHour              = "hour"
	ColWeekend           = "weekend"
	ColMealSlot          = "meal_slot_encoded"
	ColStepNumber        = "step_number"
	ColBudgetUtilization = "budget_utilization"
	ColRemainingBudget   = "remaining_budget"
)

// DefaultMaxBudget 默认预算上限
const DefaultMaxBudget = 500.0

// DefaultDropColumns 默认剔除的标签列，防止真实结果泄漏到打分
var DefaultDropColumns = []string{"label"}

// Builder 把候选商品与购物车、情境合并成特征行
type Builder struct {
	MaxBudget   float64
	DropColumns []string
}

// NewBuilder 创建 Builder，maxBudget <= 0 时使用默认值
func NewBuilder(maxBudget float64, drop []string) *Builder {
	if maxBudget <= 0 {
		maxBudget = DefaultMaxBudget
	}
	if drop == nil {
		drop = DefaultDropColumns
	}
	return &Builder{MaxBudget: maxBudget, DropColumns: drop}
}

// Context 是每次推荐重新计算的派生上下文
type Context struct {
	CartSize          int
	CartTotalValue    float64
	LastItemCategory  int
	LastItemPrice     float64
	Situation         situation.Situation
	BudgetUtilization float64
	RemainingBudget   float64
}

// Derive 从购物车和情境计算上下文
// 空购物车时 last_item_* 为 0 (推荐服务会提前返回，不会走到这里)
func (b *Builder) Derive(c *cart.Cart, s situation.Situation) Context {
	total := c.TotalValue()
	ctx := Context{
		CartSize:          c.Size(),
		CartTotalValue:    total,
		Situation:         s,
		BudgetUtilization: total / b.MaxBudget,
		RemainingBudget:   b.MaxBudget - total,
	}
	if last, ok := c.Last(); ok {
		ctx.LastItemCategory = last.Category
		ctx.LastItemPrice = last.Price
	}
	return ctx
}

// Apply 把上下文写入一行特征，覆盖同名列
func (ctx Context) Apply(row map[string]float64) {
	row[ColCartSize] = float64(ctx.CartSize)
	row[ColCartTotalValue] = ctx.CartTotalValue
	row[ColLastItemCategory] = float64(ctx.LastItemCategory)
	row[ColLastItemPrice] = ctx.LastItemPrice
	row[ColHour] = float64(ctx.Situation.Hour)
	row[ColWeekend] = boolToFloat(ctx.Situation.Weekend)
	row[ColMealSlot] = float64(ctx.Situation.MealSlot)
	row[ColStepNumber] = float64(ctx.Situation.StepNumber)
	row[ColBudgetUtilization] = ctx.BudgetUtilization
	row[ColRemainingBudget] = ctx.RemainingBudget
}

// Build 为每个候选构造特征行，返回顺序与 items 一致
func (b *Builder) Build(c *cart.Cart, items []*model.CatalogItem, s situation.Situation) []*model.Candidate {
	ctx := b.Derive(c, s)
	out := make([]*model.Candidate, len(items))
	for i, it := range items {
		out[i] = &model.Candidate{Item: it, Order: i, Row: b.Row(it, ctx)}
	}
	return out
}

// Row 构造单个候选的特征行
func (b *Builder) Row(it *model.CatalogItem, ctx Context) map[string]float64 {
	row := make(map[string]float64, len(it.Features)+12)
	for k, v := range it.Features {
		row[k] = v
	}
	row[model.ColItemCategory] = float64(it.Category)
	row[model.ColItemPrice] = it.Price
	ctx.Apply(row)
	for _, col := range b.DropColumns {
		delete(row, col)
	}
	return row
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
