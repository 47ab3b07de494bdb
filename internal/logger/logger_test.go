package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestDebugToggle(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Config{Format: "console"}) })

	Debug("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected no debug output, got %q", buf.String())
	}

	SetDebug(true)
	Debug("visible %d", 2)
	if !strings.Contains(buf.String(), "visible 2") {
		t.Errorf("expected debug line, got %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Config{Format: "console"}) })

	l := With("catalog")
	l.Info().Msg("loaded")

	out := buf.String()
	if !strings.Contains(out, `"component":"catalog"`) {
		t.Errorf("missing component field: %s", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("missing level field: %s", out)
	}
}
