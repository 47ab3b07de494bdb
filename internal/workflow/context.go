package workflow

import (
	"context"
	"fmt"
	"sync"

	"addon_engine/internal/cart"
	"addon_engine/internal/model"
	"addon_engine/internal/situation"
)

// Context 承载一次推荐计算的全部状态，计算结束后即丢弃
type Context struct {
	Ctx       context.Context
	SessionID string
	Cart      *cart.Cart // 购物车快照，节点只读
	Situation situation.Situation

	// 数据流转区 (需要锁保护)
	mu         sync.RWMutex
	Candidates []*model.Candidate // 当前的候选集
	TraceLog   []string           // 执行日志
}

// NewContext 创建一个新的工作流上下文
func NewContext(ctx context.Context, sessionID string, c *cart.Cart, s situation.Situation) *Context {
	return &Context{
		Ctx:        ctx,
		SessionID:  sessionID,
		Cart:       c,
		Situation:  s,
		Candidates: make([]*model.Candidate, 0),
		TraceLog:   make([]string, 0),
	}
}

// GetCandidates 获取当前候选集的副本
func (c *Context) GetCandidates() []*model.Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]*model.Candidate, len(c.Candidates))
	copy(result, c.Candidates)
	return result
}

// UpdateCandidates 更新整个候选集
func (c *Context) UpdateCandidates(items []*model.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Candidates = items
}

// AddLog 添加追踪日志
func (c *Context) AddLog(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TraceLog = append(c.TraceLog, fmt.Sprintf(format, args...))
}

// Trace 返回追踪日志副本
func (c *Context) Trace() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.TraceLog))
	copy(out, c.TraceLog)
	return out
}

// Node 定义工作流中的执行节点
type Node interface {
	Name() string
	Type() string // e.g., "recall_catalog", "build_context", "score", "rank_topk"
	Execute(ctx *Context) error
}
