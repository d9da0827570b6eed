package storage

import "sync"

// argRow is a pooled positional row of driver arguments for one insert.
//
// Write owns every argRow it takes. Rows go back to the pool only after the
// batch that holds them has been inserted; sinks must not keep the slices
// past InsertRows. On cancellation rows are dropped, not pooled.
type argRow struct {
	V []any
}

var argRowPool sync.Pool

// getArgRow returns a zeroed row of length n.
func getArgRow(n int) *argRow {
	if v := argRowPool.Get(); v != nil {
		r := v.(*argRow)
		if cap(r.V) < n {
			r.V = make([]any, n)
		}
		r.V = r.V[:n]
		clear(r.V)
		return r
	}
	return &argRow{V: make([]any, n)}
}

func (r *argRow) free() { argRowPool.Put(r) }

func (r *argRow) drop() { r.V = nil }
