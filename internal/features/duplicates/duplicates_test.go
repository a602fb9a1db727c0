package duplicates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wallet-tracker/internal/features/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const column = "Wallet Address"

func writeCSV(t *testing.T, dir, name string, header []string, values ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(header, ",") + "\n")
	for i, v := range values {
		row := make([]string, len(header))
		row[0] = v
		if len(header) > 1 {
			row[1] = string(rune('1' + i%9))
		}
		b.WriteString(strings.Join(row, ",") + "\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func writeXLSX(t *testing.T, dir, name string, header string, values ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", header))
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExtractScenario(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", []string{column, "Rank"}, "w1", "w2", "w1")
	b := writeXLSX(t, dir, "b.xlsx", column, "w2", "w3", "w2", "w2")

	report, res := Extract([]string{a, b}, column)

	assert.Empty(t, res.Failures)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, Report{{"w2", 4}, {"w1", 2}}, report)

	ft := Count(res.Values)
	assert.Equal(t, 2, ft.Get("w1"))
	assert.Equal(t, 4, ft.Get("w2"))
	assert.Equal(t, 1, ft.Get("w3"))
}

func TestExportScenario(t *testing.T) {
	report := Report{{"w2", 4}, {"w1", 2}}
	path := filepath.Join(t.TempDir(), "duplicated_data.csv")

	require.NoError(t, report.Table().WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Trader,Duplicated count\nw2,4\nw1,2\n", string(data))
}

func TestMissingColumnSkipsFile(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "good.csv", []string{column}, "w1", "w1")
	bad := writeCSV(t, dir, "bad.csv", []string{"wallet address"}, "w1", "w1", "w9", "w9")

	report, res := Extract([]string{good, bad}, column)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, bad, res.Failures[0].Path)
	assert.ErrorIs(t, res.Failures[0], ErrMissingColumn)
	assert.Equal(t, Report{{"w1", 2}}, report)
	assert.Equal(t, 0, Count(res.Values).Get("w9"))
}

func TestUnsupportedFormatDoesNotAbortBatch(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "wallets.txt")
	require.NoError(t, os.WriteFile(txt, []byte("Wallet Address\nw1\nw1\n"), 0644))
	good := writeCSV(t, dir, "good.CSV", []string{column}, "w5", "w5", "w5")

	report, res := Extract([]string{txt, good}, column)

	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0], ErrUnsupportedFormat)
	assert.Equal(t, Report{{"w5", 3}}, report)
}

func TestUnreadableFileIsReported(t *testing.T) {
	report, res := Extract([]string{filepath.Join(t.TempDir(), "gone.csv")}, column)

	require.Len(t, res.Failures, 1)
	assert.Empty(t, report)
}

// testdata/wallets.xls is a BIFF8 workbook: header row, w1, an empty wallet
// cell, a row with no cells at all, w2, w1.
func TestReadLegacyXLS(t *testing.T) {
	res := ReadIdentifiers([]string{filepath.Join("testdata", "wallets.xls")}, column)

	assert.Empty(t, res.Failures)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, []string{"w1", "w2", "w1"}, res.Values)
}

func TestBrokenXLSDoesNotAbortBatch(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.xls")
	require.NoError(t, os.WriteFile(broken, []byte("Wallet Address\nw1\nw1\n"), 0644))
	good := writeCSV(t, dir, "good.csv", []string{column}, "w2", "w2")
	legacy := filepath.Join("testdata", "wallets.xls")

	report, res := Extract([]string{broken, good, legacy}, column)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, broken, res.Failures[0].Path)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, Report{{"w2", 3}, {"w1", 2}}, report)
}

func TestEmptyCellsDropped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gaps.csv")
	require.NoError(t, os.WriteFile(path, []byte("Rank,Wallet Address\n1,w1\n2,\n3\n4,w1\n"), 0644))

	res := ReadIdentifiers([]string{path}, column)

	assert.Equal(t, []string{"w1", "w1"}, res.Values)
}

func TestNoNormalisation(t *testing.T) {
	ft := Count([]string{"W1", "w1", "w1 ", "w1"})

	assert.Equal(t, 3, ft.Len())
	assert.Equal(t, 2, ft.Get("w1"))
	assert.Equal(t, 1, ft.Get("W1"))
	assert.Equal(t, 1, ft.Get("w1 "))
}

func TestConservation(t *testing.T) {
	values := []string{"a", "b", "a", "c", "c", "c", "d"}
	ft := Count(values)
	report := Rank(ft)

	assert.Equal(t, len(values), ft.Total())

	singles := 0
	for _, k := range ft.Keys() {
		if ft.Get(k) == 1 {
			singles++
		}
	}
	dupRows := 0
	for _, e := range report {
		dupRows += e.Count
	}
	assert.Equal(t, len(values), singles+dupRows)
}

func TestRankRoundTrip(t *testing.T) {
	ft := Count([]string{"x", "y", "x", "z", "y", "x", "q"})
	report := Rank(ft)

	for id, c := range report.Counts() {
		assert.Greater(t, c, 1)
		assert.Equal(t, ft.Get(id), c)
	}
	for _, k := range ft.Keys() {
		_, inReport := report.Counts()[k]
		assert.Equal(t, ft.Get(k) > 1, inReport, k)
	}
}

func TestRankTieBreakFirstSeen(t *testing.T) {
	report := Rank(Count([]string{"b", "a", "c", "a", "b", "c", "d", "d", "d"}))

	assert.Equal(t, Report{{"d", 3}, {"b", 2}, {"a", 2}, {"c", 2}}, report)
}

func TestIdempotent(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", []string{column}, "w1", "w2", "w1", "w2", "w3")

	first, _ := Extract([]string{a}, column)
	second, _ := Extract([]string{a}, column)

	assert.Equal(t, first, second)
}

func TestEmptyInputExportsNothing(t *testing.T) {
	report, res := Extract(nil, column)

	assert.Empty(t, report)
	assert.Zero(t, res.Files)

	err := report.Table().WriteFile(filepath.Join(t.TempDir(), "out.csv"))
	assert.ErrorIs(t, err, tables.ErrEmptyReport)
}
