package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budgetvoice/internal/assistant/remote"
	"budgetvoice/internal/config"
	"budgetvoice/internal/core"

	"github.com/shopspring/decimal"
)

func TestOpenLedger_Memory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("Rent\nUtilities\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{DataBackend: "memory", DataDirectory: dir, BudgetBase: "250"}

	l, err := OpenLedger(context.Background(), cfg, SetupLogger("error"))
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	defer l.Close()

	if l.Warning() != nil {
		t.Errorf("unexpected warning: %v", l.Warning())
	}
	if !l.Base().Equal(decimal.NewFromInt(250)) {
		t.Errorf("base = %s, want 250", l.Base())
	}
	if cats := l.Categories(); len(cats) != 2 || cats[0] != "Rent" {
		t.Errorf("categories = %v", cats)
	}
}

func TestOpenLedger_SQLiteFallback(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		DataBackend:   "sqlite",
		SQLiteDBPath:  filepath.Join(blocker, "ledger.db"),
		DataDirectory: dir,
		BudgetBase:    "100",
	}

	l, err := OpenLedger(context.Background(), cfg, SetupLogger("error"))
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	if l.Warning() == nil {
		t.Fatal("expected fallback warning")
	}
	if _, err := l.AddExpense(context.Background(), core.Expense{Amount: decimal.NewFromInt(5), Category: "food"}); err != nil {
		t.Errorf("degraded ledger should still accept expenses: %v", err)
	}
}

func TestOpenLedger_InvalidBackend(t *testing.T) {
	if _, err := OpenLedger(context.Background(), &config.Config{DataBackend: "sheets"}, SetupLogger("error")); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewAssistant(t *testing.T) {
	ctx := context.Background()

	a, err := NewAssistant(ctx, &config.Config{AssistantBackend: "none"})
	if err != nil || a != nil {
		t.Errorf("none = %v, %v", a, err)
	}

	a, err = NewAssistant(ctx, &config.Config{AssistantBackend: "remote", AssistantURL: "http://localhost:9/chat", AssistantTimeout: time.Second})
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	if _, ok := a.(*remote.Client); !ok {
		t.Errorf("remote backend = %T", a)
	}

	if _, err := NewAssistant(ctx, &config.Config{AssistantBackend: "ark"}); err == nil {
		t.Error("ark without credentials should fail")
	}
	if _, err := NewAssistant(ctx, &config.Config{AssistantBackend: "carrier-pigeon"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestShutdownContext_ParentCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := ShutdownContext(parent, SetupLogger("error"))
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with parent")
	}
}
