// Package ledger stores the ordered sequence of expense entries.
//
// The file (or table) behind a Ledger is the only source of truth: adapters
// never keep entries in memory between calls, every operation re-reads the
// storage or rewrites it entirely. An entry has no identity other than its
// position.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"ledgerbook/internal/core"
)

// Ledger is the port every storage adapter implements.
type Ledger interface {
	// Append writes one entry after the last one.
	Append(ctx context.Context, e core.Entry) error
	// ReadAll returns every entry in storage order. A single malformed row fails the whole read.
	ReadAll(ctx context.Context) ([]core.Entry, error)
	// RewriteAll replaces the stored sequence with entries.
	RewriteAll(ctx context.Context, entries []core.Entry) error
}

var (
	ErrNotFound        = errors.New("ledger not found")
	ErrMalformedRow    = errors.New("malformed row")
	ErrInvalidField    = errors.New("field cannot be stored")
	ErrIndexOutOfRange = errors.New("entry index out of range")
)

// DeleteAt removes the entry at position index and rewrites the rest in order.
func DeleteAt(ctx context.Context, l Ledger, index int) (core.Entry, error) {
	entries, err := l.ReadAll(ctx)
	if err != nil {
		return core.Entry{}, fmt.Errorf("read ledger: %w", err)
	}
	if index < 0 || index >= len(entries) {
		return core.Entry{}, fmt.Errorf("delete %d of %d: %w", index, len(entries), ErrIndexOutOfRange)
	}
	removed := entries[index]
	remaining := make([]core.Entry, 0, len(entries)-1)
	remaining = append(remaining, entries[:index]...)
	remaining = append(remaining, entries[index+1:]...)
	if err := l.RewriteAll(ctx, remaining); err != nil {
		return core.Entry{}, fmt.Errorf("rewrite ledger: %w", err)
	}
	return removed, nil
}

func malformed(line int, reason string) error {
	return fmt.Errorf("line %d: %s: %w", line, reason, ErrMalformedRow)
}
