package mssql

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resale/internal/storage"
)

type fakeResult int64

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

type fakeDB struct {
	queries []string
	args    [][]any
}

func (f *fakeDB) ExecContext(_ context.Context, q string, args ...any) (sql.Result, error) {
	f.queries = append(f.queries, q)
	f.args = append(f.args, args)
	return fakeResult(1), nil
}

func TestDedupeRowsByColumns_KeepsFirst(t *testing.T) {
	t.Parallel()

	columns := []string{"town", "resale_price", "row_hash"}
	rows := [][]any{
		{"BEDOK", int64(1), "h1"},
		{"BEDOK", int64(2), "h1"},
		{"YISHUN", int64(3), "h2"},
		{"BEDOK", int64(4), "h1"},
	}

	got, err := dedupeRowsByColumns(rows, columns, []string{"row_hash"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0][1])
	assert.Equal(t, "YISHUN", got[1][0])

	_, err = dedupeRowsByColumns(rows, columns, []string{"missing"})
	require.Error(t, err)
}

func TestBuildCreateSQL(t *testing.T) {
	t.Parallel()

	ddl, err := buildCreateSQL(storage.TableSpec{
		Name: "dbo.resale",
		Columns: []storage.ColumnSpec{
			{Name: "town", Type: storage.TypeText, Nullable: true},
			{Name: "row_hash", Type: storage.TypeHash},
		},
		Unique: []string{"row_hash"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"IF OBJECT_ID(N'[dbo].[resale]', N'U') IS NULL BEGIN CREATE TABLE [dbo].[resale] "+
			"([town] NVARCHAR(MAX) NULL, [row_hash] CHAR(64) NOT NULL, "+
			"CONSTRAINT [uq_dbo_resale_row_hash] UNIQUE ([row_hash])); END;",
		ddl)
}

func TestBuildInsertNotExistsSQL(t *testing.T) {
	t.Parallel()

	q, args := buildInsertNotExistsSQL("resale", []string{"town", "row_hash"}, [][]any{{"BEDOK", "h1"}}, []string{"row_hash"})
	assert.Equal(t,
		"INSERT INTO [resale] ([town], [row_hash]) SELECT v.[town], v.[row_hash] FROM (VALUES (@p1, @p2)) "+
			"AS v([town], [row_hash]) WHERE NOT EXISTS (SELECT 1 FROM [resale] t WHERE t.[row_hash] = v.[row_hash])",
		q)
	assert.Equal(t, []any{"BEDOK", "h1"}, args)
}

func TestInsertRows_ChunksUnderParamLimit(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	s := &Sink{db: db}

	columns := make([]string, 10)
	for i := range columns {
		columns[i] = "c" + strings.Repeat("x", i)
	}
	rows := make([][]any, 450)
	for i := range rows {
		row := make([]any, len(columns))
		row[0] = i
		rows[i] = row
	}

	n, err := s.InsertRows(context.Background(), "resale", columns, rows, nil)
	require.NoError(t, err)
	require.Len(t, db.queries, 3)
	assert.Equal(t, int64(3), n)
	for _, a := range db.args {
		assert.LessOrEqual(t, len(a), maxParams)
	}
	assert.True(t, strings.HasPrefix(db.queries[0], "INSERT INTO [resale] ("))
}
