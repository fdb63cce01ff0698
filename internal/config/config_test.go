package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AI_BASE_URL", "")
	t.Setenv("AI_API_KEY", "")
	t.Setenv("AI_MODEL", "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if !cfg.Watch {
		t.Error("expected watch to be true")
	}
	if !cfg.InMemory() {
		t.Error("expected in-memory workspace by default")
	}
	if cfg.Assistant.MaxTokens != 16000 {
		t.Errorf("expected max tokens 16000, got %d", cfg.Assistant.MaxTokens)
	}
}

func TestLoadArgs_Flags(t *testing.T) {
	isolate(t)
	root := t.TempDir()

	cfg, err := LoadArgs([]string{"serve", "-root", root, "-port", "9090", "-git-ref", "main", "-watch=false", "-log-level", "debug"})
	if err != nil {
		t.Fatalf("LoadArgs failed: %v", err)
	}
	if cfg.Root != root {
		t.Errorf("expected root %s, got %s", root, cfg.Root)
	}
	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if !cfg.ReadOnly() {
		t.Error("expected read-only workspace with git ref")
	}
	if cfg.Watch {
		t.Error("expected watch disabled")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
}

func TestLoadArgs_FileThenFlags(t *testing.T) {
	isolate(t)
	file := filepath.Join(t.TempDir(), "codehub.yaml")
	yaml := "port: 7000\nwatch: false\ntheme: light\nassistant:\n  model: file-model\n  temperature: 0.2\n"
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadArgs([]string{"-config", file, "-port", "7001"})
	if err != nil {
		t.Fatalf("LoadArgs failed: %v", err)
	}
	if cfg.Port != 7001 {
		t.Errorf("flag should override file port, got %d", cfg.Port)
	}
	if cfg.Watch {
		t.Error("unset -watch flag must not override the file")
	}
	if cfg.Theme != "light" || cfg.Assistant.Model != "file-model" || cfg.Assistant.Temperature != 0.2 {
		t.Errorf("file values not loaded: %+v", cfg)
	}
	if cfg.GetConfigFilePath() != file {
		t.Errorf("expected config path %s, got %s", file, cfg.GetConfigFilePath())
	}
}

func TestLoadArgs_MissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := LoadArgs([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadArgs_Env(t *testing.T) {
	isolate(t)
	t.Setenv("AI_BASE_URL", "http://localhost:11434/v1/chat/completions")
	t.Setenv("AI_API_KEY", "k")
	t.Setenv("AI_MODEL", "llama")

	cfg, err := LoadArgs(nil)
	if err != nil {
		t.Fatalf("LoadArgs failed: %v", err)
	}
	if cfg.Assistant.BaseURL != "http://localhost:11434/v1/chat/completions" || cfg.Assistant.APIKey != "k" || cfg.Assistant.Model != "llama" {
		t.Errorf("env not applied: %+v", cfg.Assistant)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.configPath = tmpFile
	cfg.Port = 9999
	cfg.Root = "/tmp/ws"
	cfg.Assistant.APIKey = "secret"
	cfg.Assistant.Model = "m"

	err := cfg.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("API key must not be saved")
	}
	if cfg.Assistant.APIKey != "secret" {
		t.Error("Save must not clear the in-memory key")
	}

	// Manual load to verify
	cfg2 := &Config{}
	err = cfg2.loadFromFile(tmpFile)
	if err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if cfg2.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg2.Port)
	}
	if cfg2.Root != "/tmp/ws" || cfg2.Assistant.Model != "m" {
		t.Errorf("config loading failed: %+v", cfg2)
	}
}
