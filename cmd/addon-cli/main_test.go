package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"addon_engine/internal/catalog"
	"addon_engine/internal/recommend"
	"addon_engine/internal/scorer"
)

func testArtifacts(t *testing.T) recommend.Config {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"catalog.csv":  "item_category,item_price,popularity\n1,10,0.9\n2,40,0.1\n3,80,0.5\n",
		"features.txt": "# contract\nitem_category\nitem_price\npopularity\ncart_size\n",
		"model.json":   `{"bias":0,"weights":{"popularity":3}}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return recommend.Config{
		Catalog:  filepath.Join(dir, "catalog.csv"),
		Contract: filepath.Join(dir, "features.txt"),
		Model:    scorer.Config{Path: filepath.Join(dir, "model.json")},
	}
}

func TestRunWithArgs(t *testing.T) {
	var out bytes.Buffer
	opts := cliOptions{artifacts: testArtifacts(t), seed: 1, items: []int{2}}
	if err := run(opts, strings.NewReader(""), &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Added Beverages (2) at 40.00") {
		t.Errorf("missing add line:\n%s", got)
	}
	if !strings.Contains(got, "RANK") || !strings.Contains(got, "Snacks (1)") {
		t.Errorf("missing recommendations:\n%s", got)
	}

	opts.items = []int{7}
	if err := run(opts, strings.NewReader(""), &out); !errors.Is(err, catalog.ErrEmptyCategory) {
		t.Errorf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestRunInteractive(t *testing.T) {
	var out bytes.Buffer
	opts := cliOptions{artifacts: testArtifacts(t), seed: 1}
	in := strings.NewReader("\n7\nabc\n1\nq\n3\n")
	if err := run(opts, in, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Cart is empty", "cannot add", `invalid category "abc"`, "Added Snacks (1)"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	// q 之后的输入不再处理
	if strings.Contains(got, "Added Desserts") {
		t.Error("input after q was processed")
	}
}
