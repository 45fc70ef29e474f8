package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("ACP_LOG_LEVEL", "")
	t.Setenv("ACP_LOG_FORMAT", "")
	t.Setenv("ACP_TRANSPORT", "")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" || cfg.Transport != "stdio" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("ACP_LOG_LEVEL", "debug")
	t.Setenv("ACP_LOG_FORMAT", "json")
	t.Setenv("ACP_TRANSPORT", "redis")
	t.Setenv("ACP_CHANNEL", "demo")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" || cfg.Transport != "redis" || cfg.Channel != "demo" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestConfigFromEnv_RejectsUnknownTransport(t *testing.T) {
	t.Setenv("ACP_TRANSPORT", "carrier-pigeon")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLogger_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := Config{LogLevel: "warn", LogFormat: "json"}.Logger(&buf)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("quiet")
	log.Warn("agent.loud", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec["msg"] != "agent.loud" || rec["k"] != "v" {
		t.Fatalf("record = %v", rec)
	}
}

func TestLogger_TextWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	log, err := Config{LogLevel: "info", LogFormat: "text", NoColor: true}.Logger(&buf)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("agent.start", "name", "echo")
	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("unexpected colour codes: %q", out)
	}
	if !strings.Contains(out, "agent.start") || !strings.Contains(out, "name=echo") {
		t.Fatalf("output = %q", out)
	}
}

func TestLogger_RejectsBadLevel(t *testing.T) {
	if _, err := (Config{LogLevel: "chatty"}).Logger(&bytes.Buffer{}); err == nil {
		t.Fatal("expected error")
	}
}
