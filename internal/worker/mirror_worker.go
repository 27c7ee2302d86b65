package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledgerbook/internal/amqp"
	"ledgerbook/internal/ledger"
	"ledgerbook/internal/sheets"
)

// MirrorWorker copies the whole ledger into a remote sheet. Events only
// trigger a copy; the ledger is always re-read.
type MirrorWorker struct {
	ledger ledger.Ledger
	mirror sheets.Mirror

	// serializes copies coming from the consumer and the ticker
	mu sync.Mutex
}

func NewMirrorWorker(l ledger.Ledger, mirror sheets.Mirror) *MirrorWorker {
	return &MirrorWorker{
		ledger: l,
		mirror: mirror,
	}
}

// HandleEvent processes a single ledger event from AMQP
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Mirroring ledger after event",
		"event_id", ev.ID,
		"kind", ev.Kind,
		"entry_index", ev.Index)

	if err := w.Resync(ctx); err != nil {
		return fmt.Errorf("mirror after %s event: %w", ev.Kind, err)
	}
	return nil
}

// Resync mirrors the current ledger. A missing ledger is mirrored as empty.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries, err := w.ledger.ReadAll(ctx)
	if errors.Is(err, ledger.ErrNotFound) {
		entries, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}

	start := time.Now()
	if err := w.mirror.ReplaceAll(ctx, entries); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}

	slog.DebugContext(ctx, "Ledger mirror refreshed",
		"entries", len(entries),
		"duration", time.Since(start))
	return nil
}

// Run resyncs once, then on every tick until ctx is done. Failed resyncs are
// logged and retried on the next tick.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.Resync(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial mirror resync failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Resync(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic mirror resync failed", "error", err)
			}
		}
	}
}
