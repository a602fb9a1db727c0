package tables

// Table is the in-memory form of every result the tracker shows or saves:
// a header row plus string cells, in display order.
// Saving goes through WriteFile, which picks the format from the extension.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyReport is returned when there is nothing to export.
// Callers surface it as a warning, not a failure.
var ErrEmptyReport = errors.New("nothing to export")

// WriteError wraps a failure to create or write the destination file.
// A partially written file is left in place.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

type Table struct {
	Headers []string
	Rows    [][]string
}

func New(headers ...string) *Table {
	return &Table{Headers: headers}
}

// Append adds a row. Short rows are padded with empty cells so every row matches the header.
func (t *Table) Append(cells ...string) {
	row := make([]string, len(t.Headers))
	copy(row, cells)
	if len(cells) > len(row) {
		row = append(row, cells[len(row):]...)
	}
	t.Rows = append(t.Rows, row)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the values of the named column, or nil if there is no such header.
func (t *Table) Column(name string) []string {
	idx := -1
	for i, h := range t.Headers {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		} else {
			out = append(out, "")
		}
	}
	return out
}

// Render prints the table aligned for a terminal.
func (t *Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// WriteCSV writes the header and rows as comma-delimited UTF-8.
func (t *Table) WriteCSV(w io.Writer) error {
	if t.Len() == 0 {
		return ErrEmptyReport
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile saves the table to path. ".xlsx" produces a workbook with a single sheet,
// anything else is written as CSV.
func (t *Table) WriteFile(path string) error {
	if t.Len() == 0 {
		return ErrEmptyReport
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return t.writeXLSX(path)
	}

	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func (t *Table) writeXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := t.FillSheet(f, sheet); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := f.SaveAs(path); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// FillSheet writes the header into row 1 and the rows below it.
func (t *Table) FillSheet(f *excelize.File, sheet string) error {
	if err := f.SetSheetRow(sheet, "A1", &t.Headers); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
