package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"ledgerbook/internal/amqp"
	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
	"ledgerbook/internal/ledger/memory"
	"ledgerbook/internal/report"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
	closed bool
}

func (f *fakePublisher) PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func mustEntry(t *testing.T, date, amount, category, desc string) core.Entry {
	t.Helper()
	e, err := core.NewEntry(date, amount, category, desc)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	return e
}

func TestLedgerService_AddPublishesAppended(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewLedgerService(memory.New(), pub)

	for i, e := range []core.Entry{
		mustEntry(t, "01-01-2024", "100", "Food", "Lunch"),
		mustEntry(t, "02-01-2024", "50", "Travel", "Bus"),
	} {
		idx, err := svc.Add(ctx, e)
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if idx != i {
			t.Errorf("Add index = %d, want %d", idx, i)
		}
	}

	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	last := pub.events[1]
	if last.Kind != amqp.EventAppended || last.Index != 1 || last.Count != 2 {
		t.Errorf("unexpected event %+v", last)
	}

	sum, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total.String() != "150" {
		t.Errorf("Total = %s, want 150", sum.Total)
	}
	if len(sum.ByCategory) != 2 || sum.ByCategory[0].Amount.String() != "100" || sum.ByCategory[1].Amount.String() != "50" {
		t.Errorf("ByCategory = %+v", sum.ByCategory)
	}
}

func TestLedgerService_PublishFailureDoesNotFailAdd(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewLedgerService(store, &fakePublisher{err: errors.New("broker down")})

	if _, err := svc.Add(ctx, mustEntry(t, "d", "1", "Food", "x")); err != nil {
		t.Fatalf("Add should succeed when publishing fails: %v", err)
	}
	entries, _ := store.ReadAll(ctx)
	if len(entries) != 1 {
		t.Errorf("expected entry to be stored, got %d", len(entries))
	}
}

func TestLedgerService_Delete(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewLedgerService(memory.New(
		mustEntry(t, "a", "1", "A", "first"),
		mustEntry(t, "b", "2", "B", "second"),
		mustEntry(t, "c", "3", "C", "third"),
	), pub)

	removed, err := svc.Delete(ctx, 1)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.Description != "second" {
		t.Errorf("removed %+v", removed)
	}

	entries, _ := svc.List(ctx)
	if len(entries) != 2 || entries[0].Date != "a" || entries[1].Date != "c" {
		t.Errorf("remaining entries %+v", entries)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != amqp.EventDeleted || pub.events[0].Count != 2 {
		t.Errorf("unexpected events %+v", pub.events)
	}

	if _, err := svc.Delete(ctx, 5); !errors.Is(err, ledger.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if len(pub.events) != 1 {
		t.Error("failed delete must not publish")
	}
}

func TestLedgerService_EmptyAndMissing(t *testing.T) {
	ctx := context.Background()

	svc := NewLedgerService(memory.New(), nil)
	if _, err := svc.Summary(ctx); !errors.Is(err, report.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}

	missing := NewLedgerService(ledger.NewTextFile(filepath.Join(t.TempDir(), "expenses.txt")), nil)
	if _, err := missing.List(ctx); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := missing.CategoryTotal(ctx, "food"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerService_CategoryTotal(t *testing.T) {
	svc := NewLedgerService(memory.New(
		mustEntry(t, "a", "100", "Food", "Lunch"),
		mustEntry(t, "b", "50", "Travel", "Bus"),
	), nil)

	total, n, err := svc.CategoryTotal(context.Background(), "food")
	if err != nil {
		t.Fatalf("CategoryTotal: %v", err)
	}
	if n != 1 || total.String() != "100" {
		t.Errorf("got %s over %d entries, want 100 over 1", total, n)
	}
}

func TestLedgerService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := NewLedgerService(memory.New(), nil)
		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil publisher: %v", err)
		}
	})

	t.Run("closes publisher", func(t *testing.T) {
		pub := &fakePublisher{}
		if err := NewLedgerService(memory.New(), pub).Close(); err != nil {
			t.Fatal(err)
		}
		if !pub.closed {
			t.Error("publisher should be closed")
		}
	})
}
