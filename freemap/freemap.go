// Package freemap defines the free-sector allocator contract consumed by
// the inode index, and a reference bitmap implementation. The real
// allocator is an external collaborator per spec.md §1; the bitmap here
// exists only to exercise the interface in tests and in cmd/blockfsbench.
package freemap

import "github.com/gofs-project/blockfs/sector"

// FreeMap allocates and releases sectors. AllocateNonConsecutive must be
// atomic: either it returns n distinct free sectors, or it returns ok=false
// and the map's state is unchanged.
type FreeMap interface {
	AllocateNonConsecutive(n int) (ids []sector.ID, ok bool)
	Release(id sector.ID, count int)
}
