// Package device defines the block device adapter contract consumed by the
// cache pool. The real device driver is an external collaborator (see
// spec.md §1's "deliberately out of scope" list); this package supplies the
// interface plus two reference implementations used for tests and for the
// cmd/blockfsbench binary.
package device

import "github.com/gofs-project/blockfs/sector"

// BlockDevice performs fixed-size synchronous sector I/O, mirroring the
// shape of go-nfsd's disk.Disk interface (ReadTo/Write/Size/Close) but sized
// to this design's sector.Size rather than that package's fixed 4096-byte
// BlockSize.
type BlockDevice interface {
	// ReadSector transfers exactly sector.Size bytes from sector id into
	// dst. len(dst) must equal sector.Size.
	ReadSector(id sector.ID, dst []byte)
	// WriteSector transfers exactly sector.Size bytes from src to sector
	// id. len(src) must equal sector.Size.
	WriteSector(id sector.ID, src []byte)
	// Size reports the device's capacity in sectors.
	Size() uint64
	// Close releases any resources held by the device.
	Close() error
}

func checkLen(b []byte) {
	if len(b) != sector.Size {
		panic("device: buffer is not sector.Size bytes")
	}
}
