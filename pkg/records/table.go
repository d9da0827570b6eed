package records

import "fmt"

// Column is a named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Row is the by-name view of one table row.
type Row map[string]Value

// Table is an ordered set of columns and positional rows.
//
// Invariant: every row holds exactly len(Columns()) values. Methods that
// add a column extend every existing row with null.
type Table struct {
	cols  []Column
	index map[string]int
	rows  [][]Value
}

// NewTable builds an empty table. Duplicate column names are an error.
func NewTable(cols ...Column) (*Table, error) {
	t := &Table{
		cols:  make([]Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for _, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("records: duplicate column %q", c.Name)
		}
		t.index[c.Name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustTable is NewTable for literals in tests and fixtures.
func MustTable(cols ...Column) *Table {
	t, err := NewTable(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// AppendRow appends one row in column order.
func (t *Table) AppendRow(vals ...Value) error {
	if len(vals) != len(t.cols) {
		return fmt.Errorf("records: row has %d values, table has %d columns", len(vals), len(t.cols))
	}
	row := make([]Value, len(vals))
	copy(row, vals)
	t.rows = append(t.rows, row)
	return nil
}

func (t *Table) Len() int { return len(t.rows) }

// Columns returns a copy of the column list.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of a column, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Column looks a column up by name.
func (t *Table) Column(name string) (Column, bool) {
	i := t.Index(name)
	if i < 0 {
		return Column{}, false
	}
	return t.cols[i], true
}

// At returns the value at (row, col position).
func (t *Table) At(row, col int) Value { return t.rows[row][col] }

// Get returns the value of a named column in a row; missing columns read as null.
func (t *Table) Get(row int, name string) Value {
	i := t.Index(name)
	if i < 0 {
		return Null()
	}
	return t.rows[row][i]
}

// Set replaces the value at (row, col position).
func (t *Table) Set(row, col int, v Value) { t.rows[row][col] = v }

// RowValues returns the positional values of a row. The slice is shared.
func (t *Table) RowValues(row int) []Value { return t.rows[row] }

// Row returns a by-name copy of a row.
func (t *Table) Row(row int) Row {
	out := make(Row, len(t.cols))
	for i, c := range t.cols {
		out[c.Name] = t.rows[row][i]
	}
	return out
}

// ColumnValues returns a copy of one column's values.
func (t *Table) ColumnValues(col int) []Value {
	out := make([]Value, len(t.rows))
	for r := range t.rows {
		out[r] = t.rows[r][col]
	}
	return out
}

// Clone deep-copies the table so the copy can be edited freely.
func (t *Table) Clone() *Table {
	c := &Table{
		cols:  make([]Column, len(t.cols)),
		index: make(map[string]int, len(t.index)),
		rows:  make([][]Value, len(t.rows)),
	}
	copy(c.cols, t.cols)
	for k, v := range t.index {
		c.index[k] = v
	}
	for i, r := range t.rows {
		row := make([]Value, len(r))
		copy(row, r)
		c.rows[i] = row
	}
	return c
}

// WithColumn returns the position of the named column, adding it (null in
// every row) when absent. An existing column is retyped to kind.
func (t *Table) WithColumn(name string, kind Kind) int {
	if i, ok := t.index[name]; ok {
		t.cols[i].Kind = kind
		return i
	}
	i := len(t.cols)
	t.index[name] = i
	t.cols = append(t.cols, Column{Name: name, Kind: kind})
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], Null())
	}
	return i
}

// SetKind changes the declared kind of a column position.
func (t *Table) SetKind(col int, kind Kind) { t.cols[col].Kind = kind }

// Select returns a new table holding only the named columns, in the order
// given. Unknown names are an error.
func (t *Table) Select(names ...string) (*Table, error) {
	pos := make([]int, len(names))
	cols := make([]Column, len(names))
	for i, n := range names {
		p := t.Index(n)
		if p < 0 {
			return nil, fmt.Errorf("records: unknown column %q", n)
		}
		pos[i] = p
		cols[i] = t.cols[p]
	}
	out, err := NewTable(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for r, src := range t.rows {
		row := make([]Value, len(pos))
		for i, p := range pos {
			row[i] = src[p]
		}
		out.rows[r] = row
	}
	return out, nil
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := &Table{
		cols:  make([]Column, len(t.cols)),
		index: make(map[string]int, len(t.index)),
	}
	copy(out.cols, t.cols)
	for k, v := range t.index {
		out.index[k] = v
	}
	for r, src := range t.rows {
		if !keep(r) {
			continue
		}
		row := make([]Value, len(src))
		copy(row, src)
		out.rows = append(out.rows, row)
	}
	return out
}
