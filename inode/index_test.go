package inode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofs-project/blockfs/cache"
	"github.com/gofs-project/blockfs/device"
	"github.com/gofs-project/blockfs/freemap"
	"github.com/gofs-project/blockfs/sector"
)

const inodeSec sector.ID = 0

func newIndex(t *testing.T, deviceSectors uint64) *Index {
	t.Helper()
	dev := device.NewMemDevice(deviceSectors)
	pool := cache.NewPool(dev, 16)
	fm := freemap.NewBitmapFreeMap(1, deviceSectors-1)
	return NewIndex(pool, fm)
}

func TestByteToSectorBoundaries(t *testing.T) {
	idx := newIndex(t, 4096)
	// Large enough to populate direct, single-indirect, and double-indirect
	// regions: offset just past the start of the double-indirect range.
	size := (uint64(sector.DirectCount+sector.PointersPerSector+1) * sector.Size)
	require.NoError(t, idx.Create(inodeSec, size))

	cases := []struct {
		name   string
		offset uint64
	}{
		{"last direct sector (11)", 11 * sector.Size},
		{"first indirect sector (12)", 12 * sector.Size},
		{"second indirect sector (13)", 13 * sector.Size},
		{"last indirect sector (139)", 139 * sector.Size},
		{"first double-indirect sector (140)", 140 * sector.Size},
	}
	seen := map[sector.ID]bool{}
	for _, c := range cases {
		id := idx.ByteToSector(inodeSec, c.offset)
		assert.True(t, id.Valid(), "%s: expected an allocated sector", c.name)
		assert.False(t, seen[id], "%s: sector reused across a boundary", c.name)
		seen[id] = true
	}
}

func TestByteToSectorHoleReadsAsNull(t *testing.T) {
	idx := newIndex(t, 256)
	require.NoError(t, idx.Create(inodeSec, sector.Size))
	// Offset far beyond length: index has never allocated anything there.
	id := idx.ByteToSector(inodeSec, 1_000_000)
	assert.Equal(t, sector.Null, id)
}

func TestResizeGrowThenShrinkReleasesSectors(t *testing.T) {
	idx := newIndex(t, 512)
	require.NoError(t, idx.Create(inodeSec, 0))

	big := uint64(sector.DirectCount+sector.PointersPerSector+5) * sector.Size
	require.NoError(t, idx.Resize(inodeSec, big))
	assert.Equal(t, big, idx.Length(inodeSec))

	require.NoError(t, idx.Resize(inodeSec, 0))
	assert.Equal(t, uint64(0), idx.Length(inodeSec))

	// Every sector released on shrink must be available for reallocation:
	// growing back to the same size should succeed against the same pool.
	require.NoError(t, idx.Resize(inodeSec, big))
}

func TestResizeIdempotent(t *testing.T) {
	idx := newIndex(t, 512)
	require.NoError(t, idx.Create(inodeSec, 0))

	require.NoError(t, idx.Resize(inodeSec, 10000))
	first := idx.ByteToSector(inodeSec, 9000)

	require.NoError(t, idx.Resize(inodeSec, 10000))
	second := idx.ByteToSector(inodeSec, 9000)

	assert.Equal(t, first, second, "resizing to the current size must not reallocate")
}

func TestResizeOutOfSpaceLeavesInodeUnmodified(t *testing.T) {
	idx := newIndex(t, 8) // only a handful of sectors available
	require.NoError(t, idx.Create(inodeSec, sector.Size))
	before := idx.Length(inodeSec)

	hugeSize := uint64(sector.DirectCount+sector.PointersPerSector+200) * sector.Size
	err := idx.Resize(inodeSec, hugeSize)
	assert.ErrorIs(t, err, ErrOutOfSpace)
	assert.Equal(t, before, idx.Length(inodeSec))
}

func TestFreshSectorsAreZeroFilled(t *testing.T) {
	idx := newIndex(t, 64)
	require.NoError(t, idx.Create(inodeSec, 0))
	// Leave stale bytes in sector 1, the first sector the free-map hands out.
	stale := make([]byte, sector.Size)
	for i := range stale {
		stale[i] = 0xff
	}
	idx.pool.Write(stale, 1)
	require.NoError(t, idx.Resize(inodeSec, sector.Size))

	id := idx.ByteToSector(inodeSec, 0)
	require.True(t, id.Valid())
	got := make([]byte, sector.Size)
	idx.pool.Read(got, id)
	assert.Equal(t, make([]byte, sector.Size), got)
}
