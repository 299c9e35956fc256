// Package inode implements the indexed file object layer of spec.md §4.2:
// the on-disk inode and indirect-sector layouts, and the Index type that
// translates byte offsets to sectors and grows/shrinks a file's footprint.
package inode

import (
	"github.com/tchajed/marshal"

	"github.com/gofs-project/blockfs/sector"
)

// Magic identifies a valid on-disk inode sector (spec.md §6's bit-exact
// layout table).
const Magic uint32 = 0x494e4f44

// DiskInode is the in-memory form of the exactly-one-sector on-disk inode
// described by spec.md §3 and §6: 12 direct sector IDs, one single-indirect
// ID, one double-indirect ID, a signed length, and a magic number, with the
// remainder of the sector reserved and zeroed.
type DiskInode struct {
	Direct         [sector.DirectCount]sector.ID
	Indirect       sector.ID
	IndirectDouble sector.ID
	Length         uint64 // stored on disk as a signed 32-bit byte count
	Magic          uint32
}

// Encode packs the inode into exactly sector.Size bytes, little-endian,
// matching spec.md §6's byte-offset table. tchajed/marshal.NewEnc
// preallocates a zero-filled buffer of the requested size, so the reserved
// tail is zeroed for free.
func (di *DiskInode) Encode() []byte {
	enc := marshal.NewEnc(sector.Size)
	for _, d := range di.Direct {
		enc.PutInt32(uint32(d))
	}
	enc.PutInt32(uint32(di.Indirect))
	enc.PutInt32(uint32(di.IndirectDouble))
	enc.PutInt32(uint32(int32(di.Length)))
	enc.PutInt32(di.Magic)
	return enc.Finish()
}

// DecodeDiskInode unpacks a sector.Size-byte sector into a DiskInode. It
// panics if the sector's magic number does not match, per spec.md §7's
// treatment of an inode sector size/identity mismatch as a fatal assertion
// failure rather than a recoverable error.
func DecodeDiskInode(b []byte) *DiskInode {
	if len(b) != sector.Size {
		panic("inode: sector buffer is not sector.Size bytes")
	}
	dec := marshal.NewDec(b)
	di := &DiskInode{}
	for i := range di.Direct {
		di.Direct[i] = sector.ID(dec.GetInt32())
	}
	di.Indirect = sector.ID(dec.GetInt32())
	di.IndirectDouble = sector.ID(dec.GetInt32())
	di.Length = uint64(int32(dec.GetInt32()))
	di.Magic = dec.GetInt32()
	if di.Magic != Magic {
		panic("inode: bad magic number")
	}
	return di
}

// encodePointerBlock packs an indirect or double-indirect sector: an array
// of sector.PointersPerSector 4-byte sector IDs, zero meaning a hole
// (spec.md §6).
func encodePointerBlock(ptrs []sector.ID) []byte {
	enc := marshal.NewEnc(sector.Size)
	for _, p := range ptrs {
		enc.PutInt32(uint32(p))
	}
	return enc.Finish()
}

// decodePointerBlock is the inverse of encodePointerBlock.
func decodePointerBlock(b []byte) []sector.ID {
	if len(b) != sector.Size {
		panic("inode: sector buffer is not sector.Size bytes")
	}
	dec := marshal.NewDec(b)
	ptrs := make([]sector.ID, sector.PointersPerSector)
	for i := range ptrs {
		ptrs[i] = sector.ID(dec.GetInt32())
	}
	return ptrs
}
