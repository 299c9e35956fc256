// Package blockfs wires the cache, inode index, open-inode registry, and
// file I/O layers into the single process-wide filesystem facade described
// by spec.md §6's exposed operations, grounded on go-nfsd's fs.go and
// simple/ops.go.
package blockfs

import (
	"github.com/gofs-project/blockfs/cache"
	"github.com/gofs-project/blockfs/device"
	"github.com/gofs-project/blockfs/fileio"
	"github.com/gofs-project/blockfs/freemap"
	"github.com/gofs-project/blockfs/inode"
	"github.com/gofs-project/blockfs/internal/dlog"
	"github.com/gofs-project/blockfs/registry"
	"github.com/gofs-project/blockfs/sector"
)

// FileSystem is the process-wide singleton tying together the cache pool,
// free-map, inode index, open-inode registry, and file I/O, with the
// init/destroy lifecycle spec.md §9 describes as tied to mount/unmount.
type FileSystem struct {
	pool *cache.Pool
	fm   freemap.FreeMap
	idx  *inode.Index
	reg  *registry.Registry
	io   *fileio.IO
}

// New mounts a filesystem over dev using fm for sector allocation, with a
// cache pool of cacheCapacity frames (spec.md's DefaultCapacity if <= 0).
func New(dev device.BlockDevice, fm freemap.FreeMap, cacheCapacity int) *FileSystem {
	pool := cache.NewPool(dev, cacheCapacity)
	idx := inode.NewIndex(pool, fm)
	return &FileSystem{
		pool: pool,
		fm:   fm,
		idx:  idx,
		reg:  registry.New(),
		io:   &fileio.IO{Pool: pool, Index: idx},
	}
}

// Create initializes a new on-disk inode of the given length at sec
// (spec.md §6's inode_create).
func (fs *FileSystem) Create(sec sector.ID, length uint64) error {
	return fs.idx.Create(sec, length)
}

// Open returns the (possibly shared) in-memory record for the inode at
// sec, incrementing its open count (spec.md §6's inode_open).
func (fs *FileSystem) Open(sec sector.ID) *registry.Record {
	return fs.reg.Open(sec)
}

// Reopen increments rec's open count (spec.md §6's inode_reopen).
func (fs *FileSystem) Reopen(rec *registry.Record) *registry.Record {
	return registry.Reopen(rec)
}

// Remove marks rec for deletion once the last handle closes (spec.md §6's
// inode_remove).
func (fs *FileSystem) Remove(rec *registry.Record) {
	registry.Remove(rec)
}

// Close decrements rec's open count. If this was the last open handle and
// the inode had been removed, it truncates the inode to zero length and
// returns its sector to the free-map (spec.md §4.3).
func (fs *FileSystem) Close(rec *registry.Record) error {
	result := fs.reg.Close(rec)
	if !result.LastClose || !result.ShouldFree {
		return nil
	}
	dlog.DPrintf(1, "close: freeing removed inode at sector %v\n", rec.Sector)
	if err := fs.idx.Resize(rec.Sector, 0); err != nil {
		return err
	}
	fs.fm.Release(rec.Sector, 1)
	return nil
}

// DenyWrite prevents writes to rec's inode until a matching AllowWrite
// (spec.md §6's inode_deny_write).
func (fs *FileSystem) DenyWrite(rec *registry.Record) {
	rec.DenyWrite()
}

// AllowWrite reverses one DenyWrite (spec.md §6's inode_allow_write).
func (fs *FileSystem) AllowWrite(rec *registry.Record) {
	rec.AllowWrite()
}

// ReadAt reads up to len(buf) bytes from rec's inode at offset, returning
// the number of bytes actually read (spec.md §6's inode_read_at).
func (fs *FileSystem) ReadAt(rec *registry.Record, buf []byte, offset uint64) int {
	return fs.io.ReadAt(rec, buf, offset)
}

// WriteAt writes len(buf) bytes to rec's inode at offset, growing the
// inode first if necessary, and returns the number of bytes actually
// written (spec.md §6's inode_write_at).
func (fs *FileSystem) WriteAt(rec *registry.Record, buf []byte, offset uint64) (int, error) {
	return fs.io.WriteAt(rec, buf, offset)
}

// Length returns rec's current length in bytes (spec.md §6's
// inode_length).
func (fs *FileSystem) Length(rec *registry.Record) uint64 {
	return fs.io.Length(rec)
}

// CacheHits returns the cache pool's cumulative hit count (spec.md §6's
// cache_hits).
func (fs *FileSystem) CacheHits() uint64 { return fs.pool.Hits() }

// CacheMisses returns the cache pool's cumulative miss count (spec.md §6's
// cache_misses).
func (fs *FileSystem) CacheMisses() uint64 { return fs.pool.Misses() }

// Reset flushes then reinitializes the cache pool; a test hook only
// (spec.md §6's cache_reset).
func (fs *FileSystem) Reset() { fs.pool.Reset() }

// FlushAll writes every dirty cache frame back to the device without
// resetting the pool (spec.md §6's cache_destroy, used at unmount).
func (fs *FileSystem) FlushAll() { fs.pool.FlushAll() }
