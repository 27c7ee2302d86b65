package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/amqp"
	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
	"ledgerbook/internal/report"
)

// EventPublisher announces ledger changes. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
	Close() error
}

// LedgerService is what both front ends call. It writes to the ledger first
// and only then announces the change; a failed announcement never undoes a write.
type LedgerService struct {
	ledger    ledger.Ledger
	publisher EventPublisher
}

// NewLedgerService wires a ledger and an optional publisher (nil disables events).
func NewLedgerService(l ledger.Ledger, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		ledger:    l,
		publisher: publisher,
	}
}

// Add appends an entry and returns its position.
func (s *LedgerService) Add(ctx context.Context, e core.Entry) (int, error) {
	if err := s.ledger.Append(ctx, e); err != nil {
		return -1, fmt.Errorf("append entry: %w", err)
	}

	entries, err := s.ledger.ReadAll(ctx)
	if err != nil {
		// The entry is stored; only its position is unknown.
		slog.WarnContext(ctx, "Entry appended but ledger re-read failed", "error", err)
		return -1, nil
	}
	index := len(entries) - 1

	slog.InfoContext(ctx, "Expense added",
		"entry_index", index,
		"amount", e.Amount.String(),
		"category", e.Category)

	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventAppended, index, len(entries)))
	return index, nil
}

// Delete removes the entry at index, keeping the others in order.
func (s *LedgerService) Delete(ctx context.Context, index int) (core.Entry, error) {
	removed, err := ledger.DeleteAt(ctx, s.ledger, index)
	if err != nil {
		return core.Entry{}, err
	}

	slog.InfoContext(ctx, "Expense deleted",
		"entry_index", index,
		"amount", removed.Amount.String(),
		"category", removed.Category)

	count := -1
	if entries, err := s.ledger.ReadAll(ctx); err == nil {
		count = len(entries)
	}
	s.publish(ctx, amqp.NewLedgerEvent(amqp.EventDeleted, index, count))
	return removed, nil
}

// List returns every entry in ledger order.
func (s *LedgerService) List(ctx context.Context) ([]core.Entry, error) {
	return s.ledger.ReadAll(ctx)
}

// Summary aggregates the ledger. An empty ledger yields report.ErrNoData.
func (s *LedgerService) Summary(ctx context.Context) (core.Summary, error) {
	entries, err := s.ledger.ReadAll(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	if len(entries) == 0 {
		return core.Summary{}, report.ErrNoData
	}
	return report.Summarize(entries), nil
}

// CategoryTotal sums the entries of one category, ignoring case.
func (s *LedgerService) CategoryTotal(ctx context.Context, category string) (decimal.Decimal, int, error) {
	entries, err := s.ledger.ReadAll(ctx)
	if err != nil {
		return decimal.Zero, 0, err
	}
	total, n := report.CategoryTotal(entries, category)
	return total, n, nil
}

func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping ledger event", "kind", ev.Kind)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		// Don't fail the request - the ledger is already updated
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", ev.Kind,
			"entry_index", ev.Index,
			"error", err)
	}
}

// Close closes the publisher and, when it holds resources, the ledger.
func (s *LedgerService) Close() error {
	var errs []error

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if c, ok := s.ledger.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("ledger: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
