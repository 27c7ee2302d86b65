package sheets

import (
	"context"

	"ledgerbook/internal/core"
)

// Ports for outbound adapters.
type (
	// Mirror keeps a remote copy of the whole ledger.
	Mirror interface {
		// ReplaceAll overwrites the remote copy with entries, in ledger order.
		ReplaceAll(ctx context.Context, entries []core.Entry) error
	}
)
