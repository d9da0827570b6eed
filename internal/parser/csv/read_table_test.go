package csv

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resale/pkg/records"
)

const sample = "\uFEFFmonth,town,flat_type,block,street_name,storey_range,floor_area_sqm,flat_model,lease_commence_date,remaining_lease,resale_price\n" +
	"2017-01,ANG MO KIO,2 ROOM,406,ANG MO KIO AVE 10,10 TO 12,44,Improved ,1979,61 years 04 months,232000\n" +
	"2017-01,ANG MO KIO,3 ROOM,108,ANG MO KIO AVE 4,01 TO 03,67,New Generation,1978,60 years 07 months,250000\n" +
	"2017-01,BEDOK,3 ROOM,10A,BEDOK NTH RD,04 TO 06,67.5,,1980,,262000\n"

func TestReadTable_ResaleSample(t *testing.T) {
	t.Parallel()

	tbl, err := ReadTable(context.Background(), strings.NewReader(sample), Options{TrimSpace: true}, nil)
	require.NoError(t, err)

	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "month", tbl.Names()[0], "BOM must not leak into the first header")

	kinds := map[string]records.Kind{}
	for _, c := range tbl.Columns() {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, records.KindText, kinds["month"])
	assert.Equal(t, records.KindText, kinds["block"])
	assert.Equal(t, records.KindFloat, kinds["floor_area_sqm"])
	assert.Equal(t, records.KindInt, kinds["lease_commence_date"])
	assert.Equal(t, records.KindText, kinds["remaining_lease"])
	assert.Equal(t, records.KindInt, kinds["resale_price"])

	assert.Equal(t, records.Text("Improved"), tbl.Get(0, "flat_model"))
	assert.True(t, tbl.Get(2, "flat_model").IsNull())
	assert.True(t, tbl.Get(2, "remaining_lease").IsNull())
	assert.Equal(t, records.Float(67.5), tbl.Get(2, "floor_area_sqm"))
}

func TestReadTable_HeaderMapAndDelimiter(t *testing.T) {
	t.Parallel()

	in := "Month;Town Name;Price\n2000-01;YISHUN;150000\n"
	tbl, err := ReadTable(context.Background(), strings.NewReader(in), Options{
		Comma:     ';',
		HeaderMap: map[string]string{"Town Name": "town"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"month", "town", "price"}, tbl.Names())
	assert.Equal(t, records.Int(150000), tbl.Get(0, "price"))
}

func TestReadTable_NoHeaderAndShortRows(t *testing.T) {
	t.Parallel()

	in := "a,1\nb\n"
	tbl, err := ReadTable(context.Background(), strings.NewReader(in), Options{NoHeader: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"col_1", "col_2"}, tbl.Names())
	assert.True(t, tbl.Get(1, "col_2").IsNull())
}

func TestReadTable_BadRecordReportedAndSkipped(t *testing.T) {
	t.Parallel()

	in := "town,block\nBEDOK,\"10\"A\nYISHUN,202\n"
	var lines []int
	tbl, err := ReadTable(context.Background(), strings.NewReader(in), Options{}, func(line int, _ error) {
		lines = append(lines, line)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, lines)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, records.Text("YISHUN"), tbl.Get(0, "town"))
}

func TestReadTable_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := ReadTable(context.Background(), strings.NewReader(""), Options{}, nil)
	require.Error(t, err)
}

func TestReadTable_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var b strings.Builder
	b.WriteString("town\n")
	for i := 0; i < 3000; i++ {
		b.WriteString("BEDOK\n")
	}
	_, err := ReadTable(ctx, strings.NewReader(b.String()), Options{}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHeaderNames_Duplicates(t *testing.T) {
	t.Parallel()

	got := headerNames([]string{"Town", "town", "", "Block"}, nil)
	assert.Equal(t, []string{"town", "town_2", "col_3", "block"}, got)
}

func TestReadTable_BlankCellsAreNullWithoutTrim(t *testing.T) {
	t.Parallel()

	in := "floor_area_sqm,lease_commence_date\n44,1979\n  ,\t\n67.5,1980\n"
	tbl, err := ReadTable(context.Background(), strings.NewReader(in), Options{}, nil)
	require.NoError(t, err)

	c, _ := tbl.Column("floor_area_sqm")
	assert.Equal(t, records.KindFloat, c.Kind)
	c, _ = tbl.Column("lease_commence_date")
	assert.Equal(t, records.KindInt, c.Kind)
	assert.True(t, tbl.Get(1, "floor_area_sqm").IsNull())
	assert.True(t, tbl.Get(1, "lease_commence_date").IsNull())
}
