package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"resale/pkg/records"
)

func cleanedTable(t *testing.T) *records.Table {
	t.Helper()
	tbl := records.MustTable(
		records.Column{Name: "month", Kind: records.KindDate},
		records.Column{Name: "town", Kind: records.KindText},
		records.Column{Name: "floor_area_sqm", Kind: records.KindFloat},
		records.Column{Name: "resale_price", Kind: records.KindInt},
		records.Column{Name: "remaining_lease", Kind: records.KindFloat},
	)
	require.NoError(t, tbl.AppendRow(
		records.Date(time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)),
		records.Text("ANG MO KIO"), records.Float(44), records.Int(232000), records.Float(61.3),
	))
	require.NoError(t, tbl.AppendRow(
		records.Date(time.Date(2017, 2, 1, 0, 0, 0, 0, time.UTC)),
		records.Text("BEDOK, NORTH"), records.Float(67.5), records.Int(262000), records.Null(),
	))
	return tbl
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatCSV, "CSV": FormatCSV, " xlsx ": FormatXLSX, "none": FormatNone}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("parquet")
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, cleanedTable(t)))

	assert.Equal(t,
		"month,town,floor_area_sqm,resale_price,remaining_lease\n"+
			"2017-01-01,ANG MO KIO,44,232000,61.3\n"+
			"2017-02-01,\"BEDOK, NORTH\",67.5,262000,\n",
		buf.String())
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	tbl := cleanedTable(t)
	num, err := tbl.Select("floor_area_sqm", "resale_price")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Part{"cleaned", tbl}, Part{"numerical", num}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"cleaned", "numerical"}, f.GetSheetList())

	rows, err := f.GetRows("cleaned")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"month", "town", "floor_area_sqm", "resale_price", "remaining_lease"}, rows[0])
	assert.Equal(t, []string{"2017-01-01", "ANG MO KIO", "44", "232000", "61.3"}, rows[1])
	assert.Equal(t, []string{"2017-02-01", "BEDOK, NORTH", "67.5", "262000"}, rows[2], "trailing null cell is empty")

	price, err := f.GetCellValue("numerical", "B3")
	require.NoError(t, err)
	assert.Equal(t, "262000", price)

	require.Error(t, WriteXLSX(&buf))
}

func TestFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	tbl := cleanedTable(t)

	paths, err := Files(dir, "resale_2017", FormatCSV, Part{"cleaned", tbl}, Part{"numerical", tbl})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "resale_2017_cleaned.csv"),
		filepath.Join(dir, "resale_2017_numerical.csv"),
	}, paths)
	b, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), "ANG MO KIO")

	paths, err = Files(dir, "resale_2017", FormatXLSX, Part{"cleaned", tbl})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "resale_2017.xlsx")}, paths)

	paths, err = Files(dir, "resale_2017", FormatNone, Part{"cleaned", tbl})
	require.NoError(t, err)
	assert.Empty(t, paths)
}
