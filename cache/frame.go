package cache

import (
	"sync"

	"github.com/gofs-project/blockfs/sector"
)

// Frame holds one sector's worth of bytes, the sector ID it mirrors, and
// the valid/dirty flags from spec.md §3's Cache frame data model. The
// reader/writer lock guards the contents; Go's sync.RWMutex blocks new
// readers once a writer is waiting, which is exactly the writer-preferring
// behavior spec.md §4.1 requires to keep eviction from starving on a hot
// sector.
type Frame struct {
	mu     sync.RWMutex
	data   []byte
	id     sector.ID
	valid  bool
	dirty  bool
}

func newFrame() *Frame {
	return &Frame{data: make([]byte, sector.Size)}
}
