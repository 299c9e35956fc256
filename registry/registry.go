// Package registry implements the process-wide open-inode table of
// spec.md §4.3: a set of in-memory inode records keyed by on-disk sector,
// reference-counted across opens, with deny-write support. Grounded on
// go-nfsd's open_inodes list (inode.go) / Icache slot table
// (inode/inode.go) and on original_source/src/filesys/inode.c's
// inode_open/inode_reopen/inode_close.
package registry

import (
	"sync"

	"github.com/gofs-project/blockfs/sector"
)

// Record is the in-memory inode record of spec.md §3: the sector of its
// on-disk inode, open count, deleted flag, deny-write counter, and a lock
// serializing writers and guarding the counters.
type Record struct {
	Sector sector.ID

	mu           sync.Mutex
	openCnt      int
	deleted      bool
	denyWriteCnt int
}

// Lock acquires the per-inode lock (spec.md §5 lock #4), used by fileio to
// serialize writers of the same inode for the duration of a write.
func (r *Record) Lock() { r.mu.Lock() }

// Unlock releases the per-inode lock.
func (r *Record) Unlock() { r.mu.Unlock() }

// Deleted reports whether Remove has been called on this record.
func (r *Record) Deleted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleted
}

// DenyWriteCount reports the current deny-write counter, guarded by the
// per-inode lock.
func (r *Record) DenyWriteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.denyWriteCnt
}

// DeniedLocked reports whether writes are currently denied. Unlike
// DenyWriteCount, it does not take the per-inode lock itself: the caller
// must already hold it via Lock. WriteAt uses this because it holds the
// lock for its entire duration (spec.md §4.4), and the lock is the same
// one DenyWrite/AllowWrite use (spec.md §5 lock #4) — re-acquiring it here
// would deadlock.
func (r *Record) DeniedLocked() bool {
	return r.denyWriteCnt > 0
}

// Registry is the process-wide set of open inode records, guarded by a
// single registry lock (spec.md §5 lock #3). Lock ordering requires the
// registry lock never be taken while holding a per-inode lock.
type Registry struct {
	mu      sync.Mutex
	records map[sector.ID]*Record
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{records: make(map[sector.ID]*Record)}
}

// Open returns the record for sec, incrementing its open count, inserting a
// fresh record with open count 1 if none exists yet.
func (reg *Registry) Open(sec sector.ID) *Record {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if rec, ok := reg.records[sec]; ok {
		rec.mu.Lock()
		rec.openCnt++
		rec.mu.Unlock()
		return rec
	}
	rec := &Record{Sector: sec, openCnt: 1}
	reg.records[sec] = rec
	return rec
}

// Reopen increments rec's open count and returns it, for the caller's
// convenience when chaining (spec.md §6's inode_reopen).
func Reopen(rec *Record) *Record {
	rec.mu.Lock()
	rec.openCnt++
	rec.mu.Unlock()
	return rec
}

// Remove marks rec for deletion; its sectors are not released until the
// last Close.
func Remove(rec *Record) {
	rec.mu.Lock()
	rec.deleted = true
	rec.mu.Unlock()
}

// DenyWrite increments rec's deny-write counter, enforcing
// deny_write_cnt <= open_cnt (spec.md §9 open question 5: lock acquired and
// released exactly once).
func (r *Record) DenyWrite() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.denyWriteCnt >= r.openCnt {
		panic("registry: deny_write_cnt exceeds open_cnt")
	}
	r.denyWriteCnt++
}

// AllowWrite decrements rec's deny-write counter.
func (r *Record) AllowWrite() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.denyWriteCnt == 0 {
		panic("registry: allow_write with no matching deny_write")
	}
	if r.denyWriteCnt > r.openCnt {
		panic("registry: deny_write_cnt exceeds open_cnt")
	}
	r.denyWriteCnt--
}

// CloseResult tells the caller what bookkeeping, if any, must happen now
// that rec's open count has dropped to zero.
type CloseResult struct {
	// LastClose is true if this call dropped the open count to zero and
	// removed rec from the registry.
	LastClose bool
	// ShouldFree is true if rec was marked deleted and the caller must
	// now resize the inode to zero and release its own sector.
	ShouldFree bool
}

// Close decrements rec's open count. On reaching zero it removes rec from
// the registry and reports whether the caller must free the inode's
// sectors (spec.md §4.3's close/remove interaction).
func (reg *Registry) Close(rec *Record) CloseResult {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rec.mu.Lock()
	rec.openCnt--
	openCnt := rec.openCnt
	deleted := rec.deleted
	rec.mu.Unlock()

	if openCnt > 0 {
		return CloseResult{}
	}
	delete(reg.records, rec.Sector)
	return CloseResult{LastClose: true, ShouldFree: deleted}
}
