package inode

import (
	"github.com/gofs-project/blockfs/cache"
	"github.com/gofs-project/blockfs/freemap"
	"github.com/gofs-project/blockfs/internal/dlog"
	"github.com/gofs-project/blockfs/sector"
)

// Index translates (inode, byte offset) pairs to data sectors and grows or
// shrinks a file's on-disk footprint, per spec.md §4.2. It holds no
// per-inode state of its own: every method takes the inode's sector ID and
// goes through the cache, so Index is safe to share across inodes and
// goroutines (individual calls still need the caller to hold whatever lock
// spec.md §5's ordering requires).
type Index struct {
	pool *cache.Pool
	fm   freemap.FreeMap
}

// NewIndex builds an Index over the given cache pool and free-map.
func NewIndex(pool *cache.Pool, fm freemap.FreeMap) *Index {
	return &Index{pool: pool, fm: fm}
}

// dataSectors is ⌈size / sector.Size⌉, the number of data sectors needed to
// hold size bytes.
func dataSectors(size uint64) uint64 {
	return (size + sector.Size - 1) / sector.Size
}

// blocksNeeded is the 0-based, corrected replacement for the original
// source's bytes_to_blocks: the number of sectors (data plus whatever
// indirect/double-indirect index sectors are required to address them)
// needed to hold size bytes. See spec.md §9, open question 1.
func blocksNeeded(size uint64) uint64 {
	d := dataSectors(size)
	switch {
	case d <= sector.DirectCount:
		return d
	case d <= sector.DirectCount+sector.PointersPerSector:
		return d + 1 // + one indirect sector
	default:
		remaining := d - sector.DirectCount - sector.PointersPerSector
		outer := (remaining + sector.PointersPerSector - 1) / sector.PointersPerSector
		return d + 1 /* indirect */ + 1 /* double indirect */ + outer
	}
}

func (idx *Index) readDiskInode(sec sector.ID) *DiskInode {
	buf := make([]byte, sector.Size)
	idx.pool.Read(buf, sec)
	return DecodeDiskInode(buf)
}

func (idx *Index) writeDiskInode(sec sector.ID, di *DiskInode) {
	idx.pool.Write(di.Encode(), sec)
}

func (idx *Index) readPointerBlock(id sector.ID) []sector.ID {
	buf := make([]byte, sector.Size)
	idx.pool.Read(buf, id)
	return decodePointerBlock(buf)
}

func (idx *Index) writePointerBlock(id sector.ID, ptrs []sector.ID) {
	idx.pool.Write(encodePointerBlock(ptrs), id)
}

func (idx *Index) zeroSector(id sector.ID) {
	var zeros [sector.Size]byte
	idx.pool.Write(zeros[:], id)
}

// Length returns the on-disk length field of the inode at sec, reading it
// through the cache (spec.md §6's inode_length).
func (idx *Index) Length(sec sector.ID) uint64 {
	return idx.readDiskInode(sec).Length
}

// ByteToSector translates byte offset into the data sector that contains
// it, per spec.md §4.2's corrected 0-based arithmetic. It returns
// sector.Null if offset falls on an unallocated hole; the caller must treat
// that as a sparse zero-filled sector, not as sector 0.
func (idx *Index) ByteToSector(sec sector.ID, offset uint64) sector.ID {
	di := idx.readDiskInode(sec)
	s := offset / sector.Size

	if s < sector.DirectCount {
		return di.Direct[s]
	}
	if s < sector.DirectCount+sector.PointersPerSector {
		if di.Indirect == sector.Null {
			return sector.Null
		}
		ptrs := idx.readPointerBlock(di.Indirect)
		return ptrs[s-sector.DirectCount]
	}

	r := s - sector.DirectCount - sector.PointersPerSector
	outerIdx := r / sector.PointersPerSector
	innerIdx := r % sector.PointersPerSector
	if di.IndirectDouble == sector.Null {
		return sector.Null
	}
	outer := idx.readPointerBlock(di.IndirectDouble)
	if outer[outerIdx] == sector.Null {
		return sector.Null
	}
	inner := idx.readPointerBlock(outer[outerIdx])
	return inner[innerIdx]
}

// Create initializes a fresh on-disk inode of the given length at sec.
func (idx *Index) Create(sec sector.ID, length uint64) error {
	di := &DiskInode{Magic: Magic}
	if err := idx.resize(di, length); err != nil {
		return err
	}
	idx.writeDiskInode(sec, di)
	return nil
}

// Resize grows or shrinks the inode at sec to newSize bytes, per spec.md
// §4.2. On success, length == newSize, sectors beyond newSize have been
// released, and newly allocated data sectors are zero-filled. On failure
// (out of space), the inode is left completely unmodified.
func (idx *Index) Resize(sec sector.ID, newSize uint64) error {
	di := idx.readDiskInode(sec)
	if err := idx.resize(di, newSize); err != nil {
		return err
	}
	idx.writeDiskInode(sec, di)
	return nil
}

// resize implements spec.md §4.2 steps 1-8 against an in-memory DiskInode,
// leaving the caller to persist it. Allocation happens once, up front
// (step 2): either the whole resize succeeds or di is left untouched.
func (idx *Index) resize(di *DiskInode, newSize uint64) error {
	oldBlocks := blocksNeeded(di.Length)
	newBlocks := blocksNeeded(newSize)
	var delta int
	if newBlocks > oldBlocks {
		delta = int(newBlocks - oldBlocks)
	}
	dlog.DPrintf(5, "resize: %d -> %d bytes, %d new blocks\n", di.Length, newSize, delta)
	fresh, ok := idx.fm.AllocateNonConsecutive(delta)
	if !ok {
		return ErrOutOfSpace
	}
	cursor := 0
	next := func() sector.ID {
		id := fresh[cursor]
		cursor++
		return id
	}

	// Direct slots.
	for i := 0; i < sector.DirectCount; i++ {
		needed := newSize > uint64(i)*sector.Size
		switch {
		case !needed && di.Direct[i] != sector.Null:
			idx.fm.Release(di.Direct[i], 1)
			di.Direct[i] = sector.Null
		case needed && di.Direct[i] == sector.Null:
			// Fix for spec.md §9 open question 2: zero-fill the sector
			// actually assigned here, not fresh[i].
			id := next()
			di.Direct[i] = id
			idx.zeroSector(id)
		}
	}

	if di.Indirect == sector.Null && newSize <= sector.DirectCount*sector.Size {
		di.Length = newSize
		return nil
	}

	// Single-indirect level.
	var ptrs []sector.ID
	if di.Indirect == sector.Null {
		di.Indirect = next()
		ptrs = make([]sector.ID, sector.PointersPerSector)
	} else {
		ptrs = idx.readPointerBlock(di.Indirect)
	}
	for i := 0; i < sector.PointersPerSector; i++ {
		abs := uint64(sector.DirectCount + i)
		needed := newSize > abs*sector.Size
		switch {
		case !needed && ptrs[i] != sector.Null:
			idx.fm.Release(ptrs[i], 1)
			ptrs[i] = sector.Null
		case needed && ptrs[i] == sector.Null:
			id := next()
			ptrs[i] = id
			idx.zeroSector(id)
		}
	}
	if newSize <= sector.DirectCount*sector.Size {
		idx.fm.Release(di.Indirect, 1)
		di.Indirect = sector.Null
	} else {
		idx.writePointerBlock(di.Indirect, ptrs)
	}

	indirectCap := uint64(sector.DirectCount+sector.PointersPerSector) * sector.Size
	if di.IndirectDouble == sector.Null && newSize <= indirectCap {
		di.Length = newSize
		return nil
	}

	// Double-indirect level.
	var outer []sector.ID
	if di.IndirectDouble == sector.Null {
		di.IndirectDouble = next()
		outer = make([]sector.ID, sector.PointersPerSector)
	} else {
		outer = idx.readPointerBlock(di.IndirectDouble)
	}
	for i := 0; i < sector.PointersPerSector; i++ {
		base := uint64(sector.DirectCount+sector.PointersPerSector) + uint64(i)*sector.PointersPerSector
		neededAny := newSize > base*sector.Size

		if !neededAny {
			if outer[i] != sector.Null {
				inner := idx.readPointerBlock(outer[i])
				for _, id := range inner {
					if id != sector.Null {
						idx.fm.Release(id, 1)
					}
				}
				idx.fm.Release(outer[i], 1)
				outer[i] = sector.Null
			}
			continue
		}

		var inner []sector.ID
		if outer[i] == sector.Null {
			outer[i] = next()
			inner = make([]sector.ID, sector.PointersPerSector)
		} else {
			inner = idx.readPointerBlock(outer[i])
		}
		for j := 0; j < sector.PointersPerSector; j++ {
			abs := base + uint64(j)
			needed := newSize > abs*sector.Size
			switch {
			case !needed && inner[j] != sector.Null:
				idx.fm.Release(inner[j], 1)
				inner[j] = sector.Null
			case needed && inner[j] == sector.Null:
				id := next()
				inner[j] = id
				idx.zeroSector(id)
			}
		}
		idx.writePointerBlock(outer[i], inner)
	}
	if newSize <= indirectCap {
		idx.fm.Release(di.IndirectDouble, 1)
		di.IndirectDouble = sector.Null
	} else {
		idx.writePointerBlock(di.IndirectDouble, outer)
	}

	di.Length = newSize
	return nil
}
