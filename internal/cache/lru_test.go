package cache

import (
	"testing"
	"time"
)

func TestLRU_EvictsOldest(t *testing.T) {
	c := NewLRU[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be present")
	}
	c.Set("c", 3)

	if c.Contains("b") {
		t.Error("b was least recently used and should be evicted")
	}
	if !c.Contains("a") || !c.Contains("c") {
		t.Error("a and c should remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestLRU_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[string](10, time.Minute).WithClock(func() time.Time { return now })
	c.Set("x", "1")
	c.Set("y", "2")

	now = now.Add(30 * time.Second)
	c.Set("y", "3")
	if v, ok := c.Get("x"); !ok || v != "1" {
		t.Fatalf("x should be live, got %q %v", v, ok)
	}

	now = now.Add(45 * time.Second)
	if c.Contains("x") {
		t.Error("x should have expired")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Errorf("CleanExpired removed %d, want 0 (x already dropped by Get)", n)
	}
	now = now.Add(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired removed %d, want 1", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestLRU_Delete(t *testing.T) {
	c := NewLRU[bool](0, time.Hour)
	c.Set("k", true)
	c.Delete("k")
	c.Delete("missing")
	if c.Contains("k") {
		t.Error("k should be deleted")
	}
}
