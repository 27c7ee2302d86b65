// Package export writes the ledger to an .xlsx workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
	"ledgerbook/internal/report"
)

const (
	DefaultSheet        = "Expenses"
	DefaultSummarySheet = "Summary"
	chartTitle          = "Expense Distribution"
)

var header = []interface{}{"Date", "Amount", "Category", "Description"}

// Options names the workbook sheets. Zero values fall back to the defaults.
type Options struct {
	Sheet        string
	SummarySheet string
}

func (o Options) withDefaults() Options {
	if o.Sheet == "" {
		o.Sheet = DefaultSheet
	}
	if o.SummarySheet == "" {
		o.SummarySheet = DefaultSummarySheet
	}
	return o
}

// WriteWorkbook streams a workbook with one row per entry and, when there is
// anything to chart, a summary sheet holding category subtotals and a pie chart.
func WriteWorkbook(w io.Writer, entries []core.Entry, opts Options) error {
	opts = opts.withDefaults()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", opts.Sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, opts.Sheet, 1, header); err != nil {
		return err
	}
	for i, e := range entries {
		row := []interface{}{e.Date, e.Amount.InexactFloat64(), e.Category, e.Description}
		if err := writeRow(f, opts.Sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(opts.Sheet, "A", "A", 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(opts.Sheet, "D", "D", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	sum := report.Summarize(entries)
	if len(report.PieSlices(sum)) > 0 {
		if err := writeSummary(f, opts.SummarySheet, sum); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes the workbook to path, replacing any existing file.
func SaveWorkbook(path string, entries []core.Entry, opts Options) error {
	return ledger.WriteFileAtomic(path, func(w io.Writer) error {
		return WriteWorkbook(w, entries, opts)
	})
}

func writeSummary(f *excelize.File, sheet string, sum core.Summary) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if err := writeRow(f, sheet, 1, []interface{}{"Category", "Amount"}); err != nil {
		return err
	}
	for i, c := range sum.ByCategory {
		if err := writeRow(f, sheet, i+2, []interface{}{c.Name, c.Amount.InexactFloat64()}); err != nil {
			return err
		}
	}
	last := len(sum.ByCategory) + 1
	if err := writeRow(f, sheet, last+1, []interface{}{"Total", sum.Total.InexactFloat64()}); err != nil {
		return err
	}

	chart := &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", sheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheet, last),
		}},
		Title:    []excelize.RichTextRun{{Text: chartTitle}},
		PlotArea: excelize.ChartPlotArea{ShowPercent: true},
	}
	if err := f.AddChart(sheet, "D2", chart); err != nil {
		return fmt.Errorf("add pie chart: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
