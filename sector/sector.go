// Package sector defines the addressing geometry shared by every layer of
// blockfs: the sector ID type, the fixed sector size, and the derived
// constants for the inode index tree.
package sector

// Size is the design constant B from the storage engine's on-disk layout:
// the fixed size, in bytes, of a sector and of every cache frame.
const Size = 512

// DirectCount is the number of direct sector pointers in an on-disk inode.
const DirectCount = 12

// PointersPerSector is the number of 4-byte sector IDs that fit in one
// indirect or double-indirect sector (B/4).
const PointersPerSector = Size / 4

// ID names a fixed-size block on the underlying device. Zero means
// "unallocated" in every slot that stores one.
type ID uint32

// Null is the sentinel for an unallocated slot.
const Null ID = 0

// Valid reports whether id refers to an allocated sector.
func (id ID) Valid() bool {
	return id != Null
}
