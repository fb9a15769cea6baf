package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load("/nonexistent/path/treestore.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}
	// Load with empty path uses default search (may use defaults if no config file)
	cfg, _ := Load("")
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr: got %s", cfg.Server.Addr)
	}
	if cfg.Server.TCPAddr != ":9090" {
		t.Errorf("default tcp_addr: got %s", cfg.Server.TCPAddr)
	}
	if cfg.Source.Kind != "json" {
		t.Errorf("default source kind: got %s", cfg.Source.Kind)
	}
	if cfg.Source.Table != "records" {
		t.Errorf("default source table: got %s", cfg.Source.Table)
	}
	if cfg.Index.CycleGuard {
		t.Error("cycle guard should be off by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
server:
  addr: ":9000"
  tcp_addr: ":9001"
source:
  kind: "sqlite"
  path: "tree.db"
index:
  cycle_guard: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr: got %s", cfg.Server.Addr)
	}
	if cfg.Source.Kind != "sqlite" {
		t.Errorf("source kind: got %s", cfg.Source.Kind)
	}
	if cfg.Source.Path != "tree.db" {
		t.Errorf("source path: got %s", cfg.Source.Path)
	}
	if cfg.Source.Table != "records" {
		t.Errorf("source table should fall back to default, got %s", cfg.Source.Table)
	}
	if !cfg.Index.CycleGuard {
		t.Error("cycle_guard: expected true")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
