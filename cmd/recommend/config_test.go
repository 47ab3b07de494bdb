package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitServerConfigDefaults(t *testing.T) {
	cfg, err := InitServerConfig([]string{"-config", filepath.Join(t.TempDir(), "none.yaml")})
	if err == nil {
		t.Fatalf("expected error for explicit missing config, got %+v", cfg)
	}

	t.Chdir(t.TempDir())
	cfg, err = InitServerConfig(nil)
	if err != nil {
		t.Fatalf("InitServerConfig failed: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Situation.Mode != "fixed" || cfg.Session.TTL != 30*time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Artifacts.Model.Path != "data/model_logistic.json" {
		t.Errorf("unexpected model path %q", cfg.Artifacts.Model.Path)
	}
}

func TestInitServerConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	yml := `server:
  port: "9000"
  debug: true
session:
  max_cart_items: 20
  ttl: 5m
artifacts:
  catalog: file.csv
recommend:
  timeout: 250ms
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ADDON_SESSION__MAX_CART_ITEMS", "7")
	t.Setenv("ADDON_ARTIFACTS__CATALOG", "env.csv")

	cfg, err := InitServerConfig([]string{"-config", path, "-catalog", "flag.csv", "-clock"})
	if err != nil {
		t.Fatalf("InitServerConfig failed: %v", err)
	}
	if cfg.Server.Port != "9000" || !cfg.Server.Debug {
		t.Errorf("file values not applied: %+v", cfg.Server)
	}
	if cfg.Session.MaxCartItems != 7 {
		t.Errorf("env should override file, got %d", cfg.Session.MaxCartItems)
	}
	if cfg.Session.TTL != 5*time.Minute || cfg.Recommend.Timeout != 250*time.Millisecond {
		t.Errorf("durations not parsed: %v %v", cfg.Session.TTL, cfg.Recommend.Timeout)
	}
	if cfg.Artifacts.Catalog != "flag.csv" {
		t.Errorf("flag should override env, got %q", cfg.Artifacts.Catalog)
	}
	if cfg.Situation.Mode != "clock" {
		t.Errorf("expected clock mode, got %q", cfg.Situation.Mode)
	}
	// 未覆盖的值保留默认
	if cfg.Artifacts.Contract != "data/feature_cols.json" {
		t.Errorf("unexpected contract %q", cfg.Artifacts.Contract)
	}
}

func TestEnvTransform(t *testing.T) {
	if got := envTransform("ADDON_ARTIFACTS__MODEL__PATH"); got != "artifacts.model.path" {
		t.Errorf("got %q", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaultServerConfig()
	cfg.Server.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown log format")
	}

	cfg = defaultServerConfig()
	cfg.Server.Port = "http"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-numeric port")
	}

	cfg = defaultServerConfig()
	cfg.History.Backend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown history backend")
	}

	cfg = defaultServerConfig()
	cfg.Artifacts.Model.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing model path")
	}

	if err := defaultServerConfig().Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}
