package duplicates

import (
	"errors"
	"fmt"

	"wallet-tracker/internal/features/tables"
	logging "wallet-tracker/internal/infra/log"

	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = tables.ErrUnsupportedFormat
	ErrMissingColumn     = errors.New("identifier column not found")
)

// FileError is a per-file failure. It never aborts a batch.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ReadResult is the Row Collection plus the files that were skipped.
type ReadResult struct {
	Values   []string
	Failures []*FileError
	Files    int // files that contributed rows
}

// ReadIdentifiers collects the values of column from every file, in file-then-row order.
// Empty cells are dropped; nothing else is normalised. Files with an unsupported
// extension, a missing column or a read error are reported once each in Failures.
func ReadIdentifiers(paths []string, column string) ReadResult {
	var res ReadResult

	for _, path := range paths {
		values, err := readFile(path, column)
		if err != nil {
			fe := &FileError{Path: path, Err: err}
			res.Failures = append(res.Failures, fe)
			logging.LogWarn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		res.Values = append(res.Values, values...)
		res.Files++
		logging.LogDebug("Read identifiers",
			zap.String("file", path),
			zap.Int("values", len(values)))
	}

	return res
}

func readFile(path, column string) ([]string, error) {
	tbl, err := tables.Load(path)
	if err != nil {
		return nil, err
	}

	cells := tbl.Column(column)
	if cells == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}

	values := make([]string, 0, len(cells))
	for _, v := range cells {
		if v == "" {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}
