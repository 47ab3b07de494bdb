package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"addon_engine/internal/cart"
	"addon_engine/internal/model"
	"addon_engine/internal/situation"
)

type stubNode struct {
	name  string
	err   error
	calls *[]string
}

func (n *stubNode) Name() string { return n.name }
func (n *stubNode) Type() string { return "stub" }
func (n *stubNode) Execute(ctx *Context) error {
	*n.calls = append(*n.calls, n.name)
	if n.err != nil {
		return n.err
	}
	ctx.UpdateCandidates(append(ctx.GetCandidates(), &model.Candidate{Order: len(*n.calls)}))
	return nil
}

func stubRegistry(calls *[]string) *Registry {
	r := NewRegistry()
	r.Register("stub", func(cfg NodeConfig) (Node, error) {
		var err error
		if msg, ok := cfg.Config["fail"].(string); ok {
			err = errors.New(msg)
		}
		return &stubNode{name: cfg.Name, err: err, calls: calls}, nil
	})
	return r
}

func newTestContext(ctx context.Context) *Context {
	return NewContext(ctx, "s1", cart.New(0), situation.DefaultFixed().Situation(0))
}

func TestEngineRunsNodesInOrder(t *testing.T) {
	var calls []string
	cfg := `{"pipelines":{"addon":{"nodes":[{"name":"a","type":"stub"},{"name":"b","type":"stub"}]}}}`
	engine, err := NewEngineFromJSON([]byte(cfg), stubRegistry(&calls))
	if err != nil {
		t.Fatalf("NewEngineFromJSON failed: %v", err)
	}

	wf := newTestContext(context.Background())
	if err := engine.Run(wf, "addon"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Errorf("unexpected call order: %v", calls)
	}
	if len(wf.GetCandidates()) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(wf.GetCandidates()))
	}
	if len(wf.Trace()) == 0 {
		t.Error("expected trace log")
	}
}

func TestEngineStopsAtFirstError(t *testing.T) {
	var calls []string
	cfg := `{"pipelines":{"addon":{"nodes":[{"name":"a","type":"stub","config":{"fail":"boom"}},{"name":"b","type":"stub"}]}}}`
	engine, err := NewEngineFromJSON([]byte(cfg), stubRegistry(&calls))
	if err != nil {
		t.Fatal(err)
	}
	err = engine.Run(newTestContext(context.Background()), "addon")
	if err == nil || len(calls) != 1 {
		t.Fatalf("expected failure after first node, err=%v calls=%v", err, calls)
	}
}

func TestEngineUnknownSceneAndType(t *testing.T) {
	var calls []string
	engine, err := NewEngineFromJSON([]byte(`{"pipelines":{"addon":{"nodes":[]}}}`), stubRegistry(&calls))
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Run(newTestContext(context.Background()), "music"); !errors.Is(err, ErrPipelineNotFound) {
		t.Errorf("expected ErrPipelineNotFound, got %v", err)
	}

	_, err = NewEngineFromJSON([]byte(`{"pipelines":{"addon":{"nodes":[{"name":"x","type":"nope"}]}}}`), stubRegistry(&calls))
	if err == nil {
		t.Error("expected error for unknown node type")
	}
	if _, err := NewEngineFromJSON([]byte(`{}`), stubRegistry(&calls)); err == nil {
		t.Error("expected error for empty config")
	}
}

func TestEngineHonorsCancellation(t *testing.T) {
	var calls []string
	engine, err := NewEngineFromJSON([]byte(`{"pipelines":{"addon":{"nodes":[{"name":"a","type":"stub"}]}}}`), stubRegistry(&calls))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := engine.Run(newTestContext(ctx), "addon"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("no node should run after cancellation, got %v", calls)
	}
}

func TestNewEngineFromFile(t *testing.T) {
	var calls []string
	path := filepath.Join(t.TempDir(), "pipelines.json")
	if err := os.WriteFile(path, []byte(`{"pipelines":{"addon":{"nodes":[{"name":"a","type":"stub"}]}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	engine, err := NewEngine(path, stubRegistry(&calls))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if !engine.Has("addon") {
		t.Error("expected addon pipeline")
	}
	if _, err := NewEngine(filepath.Join(t.TempDir(), "missing.json"), stubRegistry(&calls)); err == nil {
		t.Error("expected error for missing file")
	}
}
