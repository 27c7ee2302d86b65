package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"ledgerbook/internal/core"
)

// CSVHeader is the first row of every CSV ledger.
var CSVHeader = []string{"Date", "Amount", "Category", "Description"}

// CSVFile is the ledger used by the form front end: a CSV file with a header row.
type CSVFile struct {
	path string
}

var _ Ledger = (*CSVFile)(nil)

func NewCSVFile(path string) *CSVFile {
	return &CSVFile{path: path}
}

// Path returns the backing file path.
func (f *CSVFile) Path() string { return f.path }

// EnsureHeader creates the file holding only the header if it does not exist yet.
func (f *CSVFile) EnsureHeader() error {
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", f.path, err)
	}
	w := csv.NewWriter(file)
	if err := w.Write(CSVHeader); err != nil {
		file.Close()
		return fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return fmt.Errorf("flush header: %w", err)
	}
	return file.Close()
}

func (f *CSVFile) Append(_ context.Context, e core.Entry) error {
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat %s: %w", f.path, err)
	}
	w := csv.NewWriter(file)
	// ReadAll always skips the first row, so a new file starts with the header.
	if info.Size() == 0 {
		if err := w.Write(CSVHeader); err != nil {
			file.Close()
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(toRecord(e)); err != nil {
		file.Close()
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return fmt.Errorf("flush row: %w", err)
	}
	return file.Close()
}

func (f *CSVFile) ReadAll(_ context.Context) ([]core.Entry, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", f.path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(CSVHeader)

	// The first row is the header and is skipped whatever it contains.
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, csvError(err)
	}

	var out []core.Entry
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := r.FieldPos(0)
		e, err := fromRecord(rec)
		if err != nil {
			return nil, malformed(line, err.Error())
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *CSVFile) RewriteAll(_ context.Context, entries []core.Entry) error {
	return WriteFileAtomic(f.path, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := w.Write(CSVHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for _, e := range entries {
			if err := w.Write(toRecord(e)); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
		w.Flush()
		return w.Error()
	})
}

func csvError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return malformed(perr.Line, perr.Err.Error())
	}
	return fmt.Errorf("read csv: %w", err)
}

func toRecord(e core.Entry) []string {
	return []string{e.Date, e.Amount.String(), e.Category, e.Description}
}

func fromRecord(rec []string) (core.Entry, error) {
	amount, err := core.ParseAmount(rec[1])
	if err != nil {
		return core.Entry{}, fmt.Errorf("amount %q: %w", rec[1], err)
	}
	return core.Entry{
		Date:        rec[0],
		Amount:      amount,
		Category:    rec[2],
		Description: rec[3],
	}, nil
}
