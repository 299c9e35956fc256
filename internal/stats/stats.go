// Package stats tracks operation counts and latencies and renders them as
// a table, adapted from go-nfsd's util/stats/stats.go.
package stats

import (
	"bytes"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rodaine/table"
)

// Op accumulates a count and total duration for one kind of operation.
type Op struct {
	count uint64
	nanos uint64
}

// Record adds one observation of start-to-now to the op.
func (op *Op) Record(start time.Time) {
	atomic.AddUint64(&op.count, 1)
	atomic.AddUint64(&op.nanos, uint64(time.Since(start).Nanoseconds()))
}

// MicrosPerOp returns the mean latency in microseconds.
func (op *Op) MicrosPerOp() float64 {
	count := atomic.LoadUint64(&op.count)
	if count == 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&op.nanos)) / float64(count) / 1e3
}

// WriteTable renders names[i] -> ops[i] as an aligned table with a totals
// row, plus an extra row for the "cache hits" and "cache misses" entries of
// counters where present (counts that are not operations with durations);
// other keys of counters are not shown.
func WriteTable(names []string, ops []*Op, counters map[string]uint64, w io.Writer) {
	if len(names) != len(ops) {
		panic("stats: mismatched names and ops")
	}
	tbl := table.New("op", "count", "avg us/op")
	var totalCount uint64
	for i, name := range names {
		count := atomic.LoadUint64(&ops[i].count)
		totalCount += count
		tbl.AddRow(name, count, fmt.Sprintf("%0.1f", ops[i].MicrosPerOp()))
	}
	tbl.AddRow("total", totalCount, "")
	for _, name := range []string{"cache hits", "cache misses"} {
		if v, ok := counters[name]; ok {
			tbl.AddRow(name, v, "")
		}
	}
	tbl.WithWriter(w).Print()
}

// Format renders the same table WriteTable does, returning it as a string.
func Format(names []string, ops []*Op, counters map[string]uint64) string {
	buf := new(bytes.Buffer)
	WriteTable(names, ops, counters, buf)
	return buf.String()
}
