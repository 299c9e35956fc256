package device

import (
	"sync"

	"github.com/gofs-project/blockfs/sector"
)

// MemDevice is an in-memory BlockDevice, grounded on go-nfsd's
// disk.NewMemDisk: a fixed-capacity slab of sectors with no backing file,
// used by tests and by cmd/blockfsbench when no -disk flag is given.
type MemDevice struct {
	mu   sync.RWMutex
	data [][]byte
}

// NewMemDevice allocates a zero-filled in-memory device of n sectors.
func NewMemDevice(n uint64) *MemDevice {
	data := make([][]byte, n)
	for i := range data {
		data[i] = make([]byte, sector.Size)
	}
	return &MemDevice{data: data}
}

func (d *MemDevice) ReadSector(id sector.ID, dst []byte) {
	checkLen(dst)
	d.mu.RLock()
	defer d.mu.RUnlock()
	copy(dst, d.data[id])
}

func (d *MemDevice) WriteSector(id sector.ID, src []byte) {
	checkLen(src)
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.data[id], src)
}

func (d *MemDevice) Size() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return uint64(len(d.data))
}

func (d *MemDevice) Close() error { return nil }

var _ BlockDevice = (*MemDevice)(nil)
