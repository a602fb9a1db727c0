package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"wallet-tracker/internal/features/tables"
	logging "wallet-tracker/internal/infra/log"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	DefaultFileName  = "output.xlsx"
	TopProjectsSheet = "Top Projects"

	maxSheetNameLen = 31
)

var ProjectHeaders = []string{"Token Name", "Contract Address", "Pair Address"}

// ProjectsTable is the content of the "Top Projects" sheet.
func ProjectsTable(projects []Project) *tables.Table {
	t := tables.New(ProjectHeaders...)
	for _, p := range projects {
		t.Append(p.TokenName, p.ContractAddress, p.PairAddress)
	}
	return t
}

// Write saves the collection as a workbook: the project list first, then one sheet
// per token with its trader wallets in column A, no header.
func Write(path string, col *Collection) error {
	if col == nil || len(col.Projects) == 0 {
		return tables.ErrEmptyReport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TopProjectsSheet); err != nil {
		return &tables.WriteError{Path: path, Err: err}
	}
	if err := ProjectsTable(col.Projects).FillSheet(f, TopProjectsSheet); err != nil {
		return &tables.WriteError{Path: path, Err: err}
	}

	used := map[string]bool{strings.ToLower(TopProjectsSheet): true}
	for i, p := range col.Projects {
		sheet := SheetName(p.TokenName, used)
		if _, err := f.NewSheet(sheet); err != nil {
			return &tables.WriteError{Path: path, Err: fmt.Errorf("sheet %q: %w", sheet, err)}
		}
		for row, owner := range col.Traders[i] {
			cell, _ := excelize.CoordinatesToCellName(1, row+1)
			if err := f.SetCellStr(sheet, cell, owner); err != nil {
				return &tables.WriteError{Path: path, Err: err}
			}
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &tables.WriteError{Path: path, Err: err}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return &tables.WriteError{Path: path, Err: err}
	}

	logging.LogSuccess("Workbook saved",
		zap.String("file", path),
		zap.Int("sheets", len(col.Projects)+1))
	return nil
}

// SheetName makes name a valid, unused Excel sheet name and marks it used.
// Excel compares sheet names case-insensitively.
func SheetName(name string, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	base = strings.Trim(base, "'")
	if base == "" {
		base = "Sheet"
	}
	base = truncate(base, maxSheetNameLen)

	candidate := base
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncate(base, maxSheetNameLen-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
