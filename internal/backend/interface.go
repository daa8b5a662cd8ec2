package backend

import (
	"context"

	"zeendr/internal/ledger"
)

// CleanupFunc releases resources held by a ledger backend.
type CleanupFunc func() error

// BackendResult contains the ledger writer and an optional cleanup function
type BackendResult struct {
	Ledger  ledger.Writer
	Cleanup CleanupFunc
}

// Factory creates ledger backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for ledger backend creation
type Config struct {
	Type BackendType

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleOrdersSheet        string
	GoogleExpensesSheet      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType selects where the ledger is mirrored.
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
