package backend

import (
	"context"

	"ledgerbook/internal/ledger"
	"ledgerbook/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the ledger, the service built on it and a cleanup function
type Result struct {
	Ledger  ledger.Ledger
	Service *services.LedgerService
	Cleanup CleanupFunc
}

// Factory creates ledgers based on configuration
type Factory interface {
	// CreateLedger opens the configured ledger and wires the optional event publisher
	CreateLedger(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for ledger creation
type Config struct {
	// Backend type
	Type BackendType

	// File backends
	CSVPath  string
	TextPath string

	// SQLite specific
	SQLiteDBPath string

	// Ledger events (empty URL disables them)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	TextBackend   BackendType = "text"
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
	case CSVBackend, TextBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
