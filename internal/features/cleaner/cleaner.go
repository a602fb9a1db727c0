package cleaner

import (
	"fmt"

	"wallet-tracker/internal/features/duplicates"
	"wallet-tracker/internal/features/tables"
	logging "wallet-tracker/internal/infra/log"

	"go.uber.org/zap"
)

// Result is the cleaned table and how many rows were dropped.
type Result struct {
	Table   *tables.Table
	Removed int
}

// RemoveDuplicates loads one csv/xlsx/xls file and keeps only the first row for
// every distinct value of column. All columns and the original row order are kept.
// Values compare by exact string equality, empty cells included.
func RemoveDuplicates(path, column string) (*Result, error) {
	src, err := tables.Load(path)
	if err != nil {
		return nil, &duplicates.FileError{Path: path, Err: err}
	}
	return Dedupe(src, column, path)
}

// Dedupe is RemoveDuplicates over an already loaded table. path is only used in errors.
func Dedupe(src *tables.Table, column, path string) (*Result, error) {
	idx := -1
	for i, h := range src.Headers {
		if h == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &duplicates.FileError{
			Path: path,
			Err:  fmt.Errorf("%w: %q", duplicates.ErrMissingColumn, column),
		}
	}

	out := tables.New(src.Headers...)
	seen := make(map[string]struct{}, len(src.Rows))
	removed := 0
	for _, row := range src.Rows {
		var key string
		if idx < len(row) {
			key = row[idx]
		}
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out.Append(row...)
	}

	logging.LogInfo("Removed duplicate rows",
		zap.String("file", path),
		zap.String("column", column),
		zap.Int("kept", out.Len()),
		zap.Int("removed", removed))

	return &Result{Table: out, Removed: removed}, nil
}
