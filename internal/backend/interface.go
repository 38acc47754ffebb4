// Package backend selects and opens the ledger store.
package backend

import (
	"context"

	"budgetvoice/internal/ledger"
)

// Result holds the opened store. Warning is set when the requested
// backend could not be opened and a memory store was substituted.
type Result struct {
	Store   ledger.Store
	Type    BackendType
	Warning error
}

// Factory creates stores based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for store creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific: seed_categories.txt is read from here
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
