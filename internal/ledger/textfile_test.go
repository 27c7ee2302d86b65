package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbook/internal/core"
)

func TestTextFile_MissingFile(t *testing.T) {
	_, err := NewTextFile(filepath.Join(t.TempDir(), "expenses.txt")).ReadAll(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTextFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := NewTextFile(filepath.Join(t.TempDir(), "expenses.txt"))

	want := []core.Entry{
		entry(t, "2024-01-01 12:00:00", "100", "Food", "Lunch"),
		entry(t, "2024-01-02 08:30:00", "50.5", "Travel", "Bus"),
	}
	for _, e := range want {
		require.NoError(t, f.Append(ctx, e))
	}

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 12:00:00,100,Food,Lunch\n2024-01-02 08:30:00,50.5,Travel,Bus\n", string(data))

	got, err := f.ReadAll(ctx)
	require.NoError(t, err)
	requireSameEntries(t, want, got)
}

func TestTextFile_RejectsSeparators(t *testing.T) {
	ctx := context.Background()
	f := NewTextFile(filepath.Join(t.TempDir(), "expenses.txt"))

	err := f.Append(ctx, entry(t, "2024-01-01", "1", "Food", "bread, milk"))
	assert.ErrorIs(t, err, ErrInvalidField)
	err = f.Append(ctx, entry(t, "2024-01-01", "1", "Fo\nod", "bread"))
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = os.Stat(f.Path())
	assert.True(t, os.IsNotExist(err), "rejected appends must not create the file")
}

func TestTextFile_MalformedLine(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"missing field": "2024-01-01,100,Food\n",
		"extra comma":   "2024-01-01,100,Food,Lunch,late\n",
		"bad amount":    "2024-01-01,100,Food,Lunch\n2024-01-02,abc,Food,Dinner\n",
		"blank line":    "2024-01-01,100,Food,Lunch\n\n2024-01-02,5,Food,Dinner\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			f := NewTextFile(filepath.Join(t.TempDir(), "expenses.txt"))
			require.NoError(t, os.WriteFile(f.Path(), []byte(content), 0o644))
			_, err := f.ReadAll(ctx)
			assert.ErrorIs(t, err, ErrMalformedRow)
		})
	}
}

func TestTextFile_RewriteAll(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewTextFile(filepath.Join(dir, "expenses.txt"))
	for _, e := range []core.Entry{
		entry(t, "a", "1", "A", "x"),
		entry(t, "b", "2", "B", "y"),
	} {
		require.NoError(t, f.Append(ctx, e))
	}

	_, err := DeleteAt(ctx, f, 0)
	require.NoError(t, err)
	got, err := f.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Date)

	// A rejected rewrite leaves the old content in place.
	err = f.RewriteAll(ctx, []core.Entry{entry(t, "c", "3", "C", "with,comma")})
	assert.ErrorIs(t, err, ErrInvalidField)
	got, err = f.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestTextFile_LongLines(t *testing.T) {
	ctx := context.Background()
	f := NewTextFile(filepath.Join(t.TempDir(), "expenses.txt"))

	long := entry(t, "2024-01-01 12:00:00", "10", "Food", strings.Repeat("x", 70_000))
	require.NoError(t, f.Append(ctx, long))
	require.NoError(t, f.Append(ctx, entry(t, "2024-01-02 12:00:00", "5", "Travel", "Bus")))

	got, err := f.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Description, 70_000)

	tooLong := entry(t, "2024-01-03 12:00:00", "1", "Food", strings.Repeat("y", MaxLineBytes))
	assert.ErrorIs(t, f.Append(ctx, tooLong), ErrInvalidField)
	got, err = f.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
