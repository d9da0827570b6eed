package storage

import (
	"context"
	"fmt"

	"resale/internal/transformer/builtin"
	"resale/pkg/records"
)

// HashColumn holds the per-row content hash used as the dedupe key.
const HashColumn = "row_hash"

// DefaultBatchSize is used when WriteOptions.BatchSize is not positive.
const DefaultBatchSize = 500

// WriteOptions tunes Write.
type WriteOptions struct {
	BatchSize int
}

// Write loads t into table through sink.
//
// Every row gets a row_hash over all its columns, the table is created with
// a UNIQUE constraint on it, and rows are inserted in batches with row_hash
// as the dedupe key. Writing the same cleaned table twice inserts nothing
// the second time.
//
// Returns the number of rows inserted. ctx is checked between batches.
func Write(ctx context.Context, sink Sink, table string, t *records.Table, opt WriteOptions) (int64, error) {
	batch := opt.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	hashed := builtin.Hash{TargetField: HashColumn}.Apply(t)

	spec := SpecFor(table, hashed, HashColumn)
	for i := range spec.Columns {
		if spec.Columns[i].Name == HashColumn {
			spec.Columns[i].Type = TypeHash
		}
	}
	if err := sink.EnsureTable(ctx, spec); err != nil {
		return 0, fmt.Errorf("ensure table %s: %w", table, err)
	}

	columns := hashed.Names()
	dedupe := []string{HashColumn}

	var total int64
	pooled := make([]*argRow, 0, batch)
	rows := make([][]any, 0, batch)
	release := func(keep bool) {
		for _, r := range pooled {
			if keep {
				r.free()
			} else {
				r.drop()
			}
		}
		pooled = pooled[:0]
		rows = rows[:0]
	}
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		n, err := sink.InsertRows(ctx, table, columns, rows, dedupe)
		if err != nil {
			release(false)
			return fmt.Errorf("insert into %s: %w", table, err)
		}
		total += n
		release(true)
		return nil
	}

	for r := 0; r < hashed.Len(); r++ {
		row := getArgRow(len(columns))
		for i, v := range hashed.RowValues(r) {
			row.V[i] = v.Any()
		}
		pooled = append(pooled, row)
		rows = append(rows, row.V)
		if len(rows) < batch {
			continue
		}
		if err := ctx.Err(); err != nil {
			release(false)
			return total, err
		}
		if err := flush(); err != nil {
			return total, err
		}
	}
	if err := ctx.Err(); err != nil {
		release(false)
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}
