// Package cache implements the buffered block cache: a fixed-size,
// LRU-replaced, reader/writer-locked pool of sector-sized frames with
// write-back semantics (spec.md §4.1). The frame-lookup-and-eviction
// algorithm here is taken directly from original_source/src/filesys/
// inode.c's find_block_and_acq_lock: scan the LRU list front-to-back under
// a single pool mutex, evict the tail on a miss, and only then take the
// frame's own lock in the mode the caller asked for.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/gofs-project/blockfs/device"
	"github.com/gofs-project/blockfs/internal/dlog"
	"github.com/gofs-project/blockfs/sector"
)

// DefaultCapacity is the design constant C from spec.md §3: the fixed
// cardinality of the cache's frame pool.
const DefaultCapacity = 64

// Pool is the shared, process-wide block cache sitting in front of a
// device.BlockDevice.
type Pool struct {
	dev device.BlockDevice

	mu  sync.Mutex // guards lru and frame identity (id/valid)
	lru *list.List // doubly linked list in LRU order; front = most recent

	hits   uint64
	misses uint64
}

// NewPool allocates a pool of capacity frames backed by dev.
func NewPool(dev device.BlockDevice, capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Pool{dev: dev, lru: list.New()}
	for i := 0; i < capacity; i++ {
		p.lru.PushBack(newFrame())
	}
	return p
}

// acquire implements spec.md §4.1's frame-lookup-and-eviction algorithm.
// It returns a frame locked for reading (write=false) or writing
// (write=true); the caller must release that lock when done.
func (p *Pool) acquire(id sector.ID, write bool) *Frame {
	p.mu.Lock()

	var elem *list.Element
	for e := p.lru.Front(); e != nil; e = e.Next() {
		f := e.Value.(*Frame)
		if f.valid && f.id == id {
			elem = e
			break
		}
	}

	var frame *Frame
	if elem != nil {
		p.lru.MoveToFront(elem)
		frame = elem.Value.(*Frame)
		atomic.AddUint64(&p.hits, 1)
	} else {
		atomic.AddUint64(&p.misses, 1)
		victim := p.lru.Back()
		p.lru.MoveToFront(victim)
		frame = victim.Value.(*Frame)

		frame.mu.Lock()
		if frame.valid && frame.dirty {
			dlog.DPrintf(10, "cache: evict dirty sector %v for %v\n", frame.id, id)
			p.dev.WriteSector(frame.id, frame.data)
		}
		frame.id = id
		p.dev.ReadSector(id, frame.data)
		frame.valid = true
		frame.dirty = false
		frame.mu.Unlock()
	}

	if write {
		frame.mu.Lock()
	} else {
		frame.mu.RLock()
	}
	p.mu.Unlock()
	return frame
}

// Read copies sector id's current contents into dst, which must be
// sector.Size bytes long. May block.
func (p *Pool) Read(dst []byte, id sector.ID) {
	f := p.acquire(id, false)
	copy(dst, f.data)
	f.mu.RUnlock()
}

// Write replaces the cached contents of sector id with src and marks the
// frame dirty. May block.
func (p *Pool) Write(src []byte, id sector.ID) {
	f := p.acquire(id, true)
	copy(f.data, src)
	f.dirty = true
	f.mu.Unlock()
}

// FlushAll writes every dirty valid frame back to the device.
func (p *Pool) FlushAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for e := p.lru.Front(); e != nil; e = e.Next() {
		f := e.Value.(*Frame)
		f.mu.Lock()
		if f.valid && f.dirty {
			p.dev.WriteSector(f.id, f.data)
			f.dirty = false
		}
		f.mu.Unlock()
	}
}

// Reset flushes then re-initializes every frame to invalid/clean. Test hook
// only, per spec.md §4.1.
func (p *Pool) Reset() {
	p.FlushAll()
	p.mu.Lock()
	defer p.mu.Unlock()
	for e := p.lru.Front(); e != nil; e = e.Next() {
		f := e.Value.(*Frame)
		f.mu.Lock()
		f.valid = false
		f.dirty = false
		f.mu.Unlock()
	}
}

// Hits returns the cumulative cache hit count.
func (p *Pool) Hits() uint64 { return atomic.LoadUint64(&p.hits) }

// Misses returns the cumulative cache miss count.
func (p *Pool) Misses() uint64 { return atomic.LoadUint64(&p.misses) }
