package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"budgetvoice/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataDirectory: "d"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.DataDirectory != "d" {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestCreateStore_SQLite(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.CreateStore(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	defer res.Store.Close()

	if res.Type != SQLiteBackend || res.Warning != nil {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestCreateStore_SQLiteFallsBackToMemory(t *testing.T) {
	dir := t.TempDir()
	// a regular file where the database directory should be
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	f := NewFactory(nil)
	res, err := f.CreateStore(context.Background(), Config{
		Type:          SQLiteBackend,
		SQLiteDBPath:  filepath.Join(blocker, "ledger.db"),
		DataDirectory: dir,
	})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if res.Type != MemoryBackend {
		t.Errorf("Type = %s, want memory", res.Type)
	}
	if res.Warning == nil {
		t.Error("fallback must surface a warning")
	}

	if _, err := res.Store.LoadCategories(context.Background()); err != nil {
		t.Fatalf("fallback store should be usable: %v", err)
	}
}

func TestCreateStore_InvalidType(t *testing.T) {
	if _, err := NewFactory(nil).CreateStore(context.Background(), Config{Type: "sheets"}); err == nil {
		t.Fatal("expected error")
	}
}
