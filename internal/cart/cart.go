package cart

import (
	"errors"

	"addon_engine/internal/model"
)

// ErrCartFull 在设置了容量上限且已满时返回
var ErrCartFull = errors.New("cart is full")

// Cart 是一个会话内只追加的购物车，保持插入顺序
// 不是并发安全的：同一会话的访问由 session.Manager 串行化
type Cart struct {
	entries  []model.CartEntry
	maxItems int // 0 表示不限制
}

// New 创建空购物车，maxItems <= 0 表示不限制数量
func New(maxItems int) *Cart {
	if maxItems < 0 {
		maxItems = 0
	}
	return &Cart{maxItems: maxItems}
}

// Add 追加一个条目
func (c *Cart) Add(category int, price float64) error {
	if c.maxItems > 0 && len(c.entries) >= c.maxItems {
		return ErrCartFull
	}
	c.entries = append(c.entries, model.CartEntry{Category: category, Price: price})
	return nil
}

// Size 返回条目数量
func (c *Cart) Size() int { return len(c.entries) }

// TotalValue 返回所有条目价格之和
func (c *Cart) TotalValue() float64 {
	var total float64
	for _, e := range c.entries {
		total += e.Price
	}
	return total
}

// Last 返回最近加入的条目，空车返回 false
func (c *Cart) Last() (model.CartEntry, bool) {
	if len(c.entries) == 0 {
		return model.CartEntry{}, false
	}
	return c.entries[len(c.entries)-1], true
}

// Entries 返回条目副本
func (c *Cart) Entries() []model.CartEntry {
	out := make([]model.CartEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Snapshot 返回一个独立的副本，供单次推荐计算使用
func (c *Cart) Snapshot() *Cart {
	return &Cart{entries: c.Entries(), maxItems: c.maxItems}
}

// Clear 清空购物车，仅在会话结束时使用
func (c *Cart) Clear() {
	c.entries = nil
}
