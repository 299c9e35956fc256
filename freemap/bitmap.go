package freemap

import (
	"sync"

	"github.com/gofs-project/blockfs/sector"
)

// BitmapFreeMap is a reference FreeMap: one bit per sector in the range
// [start, start+count), with a rotating next-free cursor. Grounded on
// go-nfsd's alloc.go (bit-per-number allocator with a wraparound "next"
// cursor) and alloctxn.go's AllocNum/FreeNum naming.
type BitmapFreeMap struct {
	mu    sync.Mutex
	start sector.ID
	used  []bool
	next  uint64
}

// NewBitmapFreeMap creates an allocator over count sectors starting at id
// start, all initially free.
func NewBitmapFreeMap(start sector.ID, count uint64) *BitmapFreeMap {
	return &BitmapFreeMap{
		start: start,
		used:  make([]bool, count),
	}
}

// AllocateNonConsecutive returns n distinct free sectors in one atomic step,
// or ok=false with no state change if fewer than n are available.
func (m *BitmapFreeMap) AllocateNonConsecutive(n int) ([]sector.ID, bool) {
	if n == 0 {
		return nil, true
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]sector.ID, 0, n)
	start := m.next
	for i := uint64(0); i < uint64(len(m.used)); i++ {
		idx := (start + i) % uint64(len(m.used))
		if !m.used[idx] {
			ids = append(ids, m.start+sector.ID(idx))
			if len(ids) == n {
				break
			}
		}
	}
	if len(ids) < n {
		return nil, false
	}
	for _, id := range ids {
		m.used[uint64(id-m.start)] = true
	}
	m.next = (uint64(ids[len(ids)-1]-m.start) + 1) % uint64(len(m.used))
	return ids, true
}

// Release returns a run of count consecutively-numbered sectors starting at
// id back to the pool.
func (m *BitmapFreeMap) Release(id sector.ID, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < count; i++ {
		idx := uint64(id-m.start) + uint64(i)
		if idx >= uint64(len(m.used)) {
			panic("freemap: release out of range")
		}
		if !m.used[idx] {
			panic("freemap: double release")
		}
		m.used[idx] = false
	}
}

var _ FreeMap = (*BitmapFreeMap)(nil)
