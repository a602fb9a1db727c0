package tables

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() *Table {
	t := New("Trader", "Duplicated count")
	t.Append("w2", "4")
	t.Append("w1", "2")
	return t
}

func TestWriteFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "duplicated_data.csv")

	require.NoError(t, sampleTable().WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Trader,Duplicated count\nw2,4\nw1,2\n", string(data))
}

func TestWriteFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duplicated_data.xlsx")

	require.NoError(t, sampleTable().WriteFile(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Trader", "Duplicated count"},
		{"w2", "4"},
		{"w1", "2"},
	}, rows)
}

func TestWriteFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	err := New("Trader", "Duplicated count").WriteFile(path)

	assert.ErrorIs(t, err, ErrEmptyReport)
	assert.NoFileExists(t, path)
}

func TestWriteFileUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := sampleTable().WriteFile(filepath.Join(blocker, "out.csv"))

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Contains(t, we.Path, "out.csv")
}

func TestAppendPadsShortRows(t *testing.T) {
	tbl := New("a", "b", "c")
	tbl.Append("1")

	assert.Equal(t, []string{"1", "", ""}, tbl.Rows[0])
	assert.Equal(t, []string{"1"}, tbl.Column("a"))
	assert.Nil(t, tbl.Column("missing"))
}

func TestCSVQuoting(t *testing.T) {
	tbl := New("Name", "Volume")
	tbl.Append("Doge, the coin", "1")

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&buf))
	assert.Equal(t, "Name,Volume\n\"Doge, the coin\",1\n", buf.String())
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().Render(&buf))
	assert.Contains(t, buf.String(), "Trader")
	assert.Contains(t, buf.String(), "w2")
}
