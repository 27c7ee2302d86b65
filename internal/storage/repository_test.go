package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
)

func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	l, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "data", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func mustEntry(t *testing.T, date, amount, cat, desc string) core.Entry {
	t.Helper()
	e, err := core.NewEntry(date, amount, cat, desc)
	require.NoError(t, err)
	return e
}

func TestSQLiteLedger_AppendReadAll(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	got, err := l.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	want := []core.Entry{
		mustEntry(t, "01-01-2024", "100", "Food", "Lunch"),
		mustEntry(t, "02-01-2024", "50", "Travel", "Bus"),
		mustEntry(t, "03-01-2024", "0.10", "Other", "Gum, mint"),
	}
	for _, e := range want {
		require.NoError(t, l.Append(ctx, e))
	}

	got, err = l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Truef(t, want[i].Equal(got[i]), "entry %d: want %+v got %+v", i, want[i], got[i])
	}
}

func TestSQLiteLedger_DeleteAt(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	for _, d := range []string{"a", "b", "c"} {
		require.NoError(t, l.Append(ctx, mustEntry(t, d, "1", "Food", d)))
	}

	_, err := ledger.DeleteAt(ctx, l, 0)
	require.NoError(t, err)

	got, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Date)
	assert.Equal(t, "c", got[1].Date)

	// New rows keep landing after the rewritten ones.
	require.NoError(t, l.Append(ctx, mustEntry(t, "d", "1", "Food", "d")))
	got, err = l.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "d", got[2].Date)
}

func TestSQLiteLedger_ReopenRunsMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := NewSQLiteLedger(path)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, mustEntry(t, "a", "2.5", "Food", "x")))
	require.NoError(t, l.Close())

	l, err = NewSQLiteLedger(path)
	require.NoError(t, err)
	defer l.Close()
	got, err := l.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2.5", got[0].Amount.String())
}
