package config

import (
	"os"
	"path/filepath"
	"testing"
)

func appendGarbage(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString("\nthis = is = not = valid = toml\n")
	return err
}

func TestLoadWritesDefaultOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embedding.Model != "openai:text-embedding-3-small" {
		t.Fatalf("unexpected default model: %q", cfg.Embedding.Model)
	}
	if !cfg.Search.Hybrid.Enabled {
		t.Fatalf("expected hybrid search enabled by default")
	}
	if cfg.Search.Hybrid.KeywordTitleWeight != 3.0 {
		t.Fatalf("expected title weight 3.0, got %v", cfg.Search.Hybrid.KeywordTitleWeight)
	}

	// Second load should read the persisted file, not rewrite it.
	cfg2, err := Load(path)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if cfg2.Memory.AutoCleanupDays == nil || *cfg2.Memory.AutoCleanupDays != 365 {
		t.Fatalf("unexpected auto_cleanup_days: %+v", cfg2.Memory.AutoCleanupDays)
	}
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := writeDefault(path); err != nil {
		t.Fatalf("writeDefault: %v", err)
	}
	if err := appendGarbage(path); err != nil {
		t.Fatalf("appendGarbage: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a parse error")
	}
}
