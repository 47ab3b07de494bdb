package nodes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"addon_engine/internal/cart"
	"addon_engine/internal/catalog"
	"addon_engine/internal/features"
	"addon_engine/internal/scorer"
	"addon_engine/internal/situation"
	"addon_engine/internal/workflow"
)

const testCatalog = `item_category,item_price,popularity,label
1,10,0.9,1
2,40,0.1,0
3,80,0.5,1
4,200,0.5,0
1,15,0.3,1
`

func testDeps(t *testing.T, contractCols []string, s scorer.Scorer) Deps {
	t.Helper()
	store, err := catalog.Parse(strings.NewReader(testCatalog), "test.csv")
	if err != nil {
		t.Fatal(err)
	}
	contract, err := features.NewContract(contractCols)
	if err != nil {
		t.Fatal(err)
	}
	return Deps{Store: store, Contract: contract, Scorer: s}
}

var defaultCols = []string{"item_category", "item_price", "popularity", "cart_size", "cart_total_value",
	"last_item_category", "last_item_price", "hour", "weekend", "meal_slot_encoded",
	"step_number", "budget_utilization", "remaining_budget"}

// popularity 是第 3 列
var byPopularity = scorer.Func(func(row []float64) float64 { return row[2] })

func newEngine(t *testing.T, deps Deps, cfg []byte) *workflow.Engine {
	t.Helper()
	registry, err := NewRegistry(deps)
	if err != nil {
		t.Fatal(err)
	}
	engine, err := workflow.NewEngineFromJSON(cfg, registry)
	if err != nil {
		t.Fatalf("NewEngineFromJSON failed: %v", err)
	}
	return engine
}

func runPipeline(t *testing.T, engine *workflow.Engine, c *cart.Cart) (*workflow.Context, error) {
	t.Helper()
	wf := workflow.NewContext(context.Background(), "s1", c, situation.DefaultFixed().Situation(c.Size()))
	return wf, engine.Run(wf, SceneAddon)
}

func oneItemCart() *cart.Cart {
	c := cart.New(0)
	_ = c.Add(2, 50)
	return c
}

func TestDefaultPipeline(t *testing.T) {
	engine := newEngine(t, testDeps(t, defaultCols, byPopularity), DefaultPipelines)

	wf, err := runPipeline(t, engine, oneItemCart())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got := wf.GetCandidates()
	// 目录只有 5 个商品，少于候选池大小
	if len(got) != 5 {
		t.Fatalf("expected 5 recommendations, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Errorf("not sorted at %d", i)
		}
		if got[i-1].Score == got[i].Score && got[i-1].Order > got[i].Order {
			t.Errorf("tie not stable at %d", i)
		}
	}
	if got[0].Item.Price != 10 {
		t.Errorf("expected most popular item first, got %+v", got[0].Item)
	}
	for _, c := range got {
		if _, ok := c.Row["label"]; ok {
			t.Error("label leaked into feature row")
		}
		if c.Row[features.ColRemainingBudget] != 450 {
			t.Errorf("remaining budget %v", c.Row[features.ColRemainingBudget])
		}
	}
}

func TestPipelineDeterministic(t *testing.T) {
	engine := newEngine(t, testDeps(t, defaultCols, byPopularity), DefaultPipelines)
	a, err := runPipeline(t, engine, oneItemCart())
	if err != nil {
		t.Fatal(err)
	}
	b, err := runPipeline(t, engine, oneItemCart())
	if err != nil {
		t.Fatal(err)
	}
	ca, cb := a.GetCandidates(), b.GetCandidates()
	for i := range ca {
		if ca[i].Item != cb[i].Item || ca[i].Score != cb[i].Score {
			t.Fatalf("position %d differs between runs", i)
		}
	}
}

func TestPipelineSchemaMismatch(t *testing.T) {
	cols := append([]string{"freshness"}, defaultCols...)
	engine := newEngine(t, testDeps(t, cols, byPopularity), DefaultPipelines)

	_, err := runPipeline(t, engine, oneItemCart())
	if !errors.Is(err, features.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestPipelineRejectsBadScores(t *testing.T) {
	bad := scorer.Func(func([]float64) float64 { return 2 })
	engine := newEngine(t, testDeps(t, defaultCols, bad), DefaultPipelines)
	if _, err := runPipeline(t, engine, oneItemCart()); !errors.Is(err, scorer.ErrScoreRange) {
		t.Fatalf("expected ErrScoreRange, got %v", err)
	}
}

func TestTopKFewerCandidates(t *testing.T) {
	cfg := []byte(`{"pipelines":{"addon":{"nodes":[
		{"name":"pool","type":"recall_catalog","config":{"size":3,"seed":7}},
		{"name":"ctx","type":"build_context"},
		{"name":"proj","type":"project_features"},
		{"name":"model","type":"score"},
		{"name":"top","type":"rank_topk","config":{"k":5}}]}}}`)
	engine := newEngine(t, testDeps(t, defaultCols, byPopularity), cfg)
	wf, err := runPipeline(t, engine, oneItemCart())
	if err != nil {
		t.Fatal(err)
	}
	if n := len(wf.GetCandidates()); n != 3 {
		t.Errorf("expected 3 ranked candidates, got %d", n)
	}
}

func TestBudgetFilter(t *testing.T) {
	cfg := []byte(`{"pipelines":{"addon":{"nodes":[
		{"name":"pool","type":"recall_catalog"},
		{"name":"budget","type":"filter_budget","config":{"max_budget":150}},
		{"name":"ctx","type":"build_context","config":{"max_budget":150}},
		{"name":"proj","type":"project_features"},
		{"name":"model","type":"score"},
		{"name":"top","type":"rank_topk","config":{"k":10}}]}}}`)
	engine := newEngine(t, testDeps(t, defaultCols, byPopularity), cfg)
	wf, err := runPipeline(t, engine, oneItemCart())
	if err != nil {
		t.Fatal(err)
	}
	got := wf.GetCandidates()
	// 剩余预算 100：价格 200 的商品被过滤
	if len(got) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(got))
	}
	for _, c := range got {
		if c.Item.Price > 100 {
			t.Errorf("item over budget kept: %+v", c.Item)
		}
	}
}

func TestInvalidNodeConfig(t *testing.T) {
	deps := testDeps(t, defaultCols, byPopularity)
	registry, err := NewRegistry(deps)
	if err != nil {
		t.Fatal(err)
	}
	for _, cfg := range []string{
		`{"pipelines":{"addon":{"nodes":[{"name":"top","type":"rank_topk","config":{"k":-1}}]}}}`,
		`{"pipelines":{"addon":{"nodes":[{"name":"pool","type":"recall_catalog","config":{"size":-3}}]}}}`,
		`{"pipelines":{"addon":{"nodes":[{"name":"b","type":"filter_budget","config":{"max_budget":0}}]}}}`,
		`{"pipelines":{"addon":{"nodes":[{"name":"c","type":"build_context","config":{"max_budget":0}}]}}}`,
		`{"pipelines":{"addon":{"nodes":[{"name":"c","type":"build_context","config":{"max_budget":"lots"}}]}}}`,
	} {
		if _, err := workflow.NewEngineFromJSON([]byte(cfg), registry); err == nil {
			t.Errorf("expected error for %s", cfg)
		}
	}

	if _, err := NewRegistry(Deps{}); err == nil {
		t.Error("expected error for missing deps")
	}
}
