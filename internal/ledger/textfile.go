package ledger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"ledgerbook/internal/core"
)

const textSeparator = ","

// MaxLineBytes caps one stored line, newline included.
const MaxLineBytes = 1 << 20

// TextFile is the ledger used by the console front end: one
// "date,amount,category,description" line per entry, no header.
type TextFile struct {
	path string
}

var _ Ledger = (*TextFile)(nil)

func NewTextFile(path string) *TextFile {
	return &TextFile{path: path}
}

// Path returns the backing file path.
func (f *TextFile) Path() string { return f.path }

func (f *TextFile) Append(_ context.Context, e core.Entry) error {
	line, err := formatLine(e)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	if _, err := io.WriteString(file, line); err != nil {
		file.Close()
		return fmt.Errorf("write line: %w", err)
	}
	return file.Close()
}

func (f *TextFile) ReadAll(_ context.Context) ([]core.Entry, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", f.path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	var out []core.Entry
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		parts := strings.Split(text, textSeparator)
		if len(parts) != 4 {
			return nil, malformed(line, fmt.Sprintf("expected 4 fields, got %d", len(parts)))
		}
		amount, err := core.ParseAmount(parts[1])
		if err != nil {
			return nil, malformed(line, fmt.Sprintf("amount %q: %v", parts[1], err))
		}
		out = append(out, core.Entry{
			Date:        parts[0],
			Amount:      amount,
			Category:    parts[2],
			Description: parts[3],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", f.path, err)
	}
	return out, nil
}

func (f *TextFile) RewriteAll(_ context.Context, entries []core.Entry) error {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line, err := formatLine(e)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	return WriteFileAtomic(f.path, func(w io.Writer) error {
		for _, l := range lines {
			if _, err := io.WriteString(w, l); err != nil {
				return fmt.Errorf("write line: %w", err)
			}
		}
		return nil
	})
}

func formatLine(e core.Entry) (string, error) {
	fields := []string{e.Date, e.Amount.String(), e.Category, e.Description}
	names := []string{"date", "amount", "category", "description"}
	for i, v := range fields {
		if strings.ContainsAny(v, ",\r\n") {
			return "", fmt.Errorf("%s %q contains a separator: %w", names[i], v, ErrInvalidField)
		}
	}
	line := strings.Join(fields, textSeparator) + "\n"
	if len(line) > MaxLineBytes {
		return "", fmt.Errorf("entry is %d bytes, limit %d: %w", len(line), MaxLineBytes, ErrInvalidField)
	}
	return line, nil
}
