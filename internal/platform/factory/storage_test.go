package factory

import (
	"path/filepath"
	"testing"

	"github.com/mwort/grass/internal/config"
)

func TestNewStore_SQLite(t *testing.T) {
	cfg := &config.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "temporal.db"),
	}
	st, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore returned error for sqlite: %v", err)
	}
	if st == nil {
		t.Fatalf("Expected store instance, got nil")
	}
}

func TestNewStore_Unsupported(t *testing.T) {
	cfg := &config.Config{DBDriver: "spanner"}
	if _, err := NewStore(cfg); err == nil {
		t.Fatalf("Expected error for unknown driver")
	}
}
