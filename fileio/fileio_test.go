package fileio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofs-project/blockfs/cache"
	"github.com/gofs-project/blockfs/device"
	"github.com/gofs-project/blockfs/freemap"
	"github.com/gofs-project/blockfs/inode"
	"github.com/gofs-project/blockfs/registry"
	"github.com/gofs-project/blockfs/sector"
)

func newIO(t *testing.T, deviceSectors uint64) (*IO, *inode.Index) {
	t.Helper()
	dev := device.NewMemDevice(deviceSectors)
	pool := cache.NewPool(dev, 16)
	fm := freemap.NewBitmapFreeMap(1, deviceSectors-1)
	idx := inode.NewIndex(pool, fm)
	return &IO{Pool: pool, Index: idx}, idx
}

func TestWriteAtGrowsInode(t *testing.T) {
	io, idx := newIO(t, 64)
	require.NoError(t, idx.Create(0, 0))

	rec := &registry.Record{Sector: 0}
	data := []byte("grow me")
	n, err := io.WriteAt(rec, data, 0)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, uint64(len(data)), io.Length(rec))
}

func TestReadAtClampsToLength(t *testing.T) {
	io, idx := newIO(t, 64)
	require.NoError(t, idx.Create(0, 0))
	rec := &registry.Record{Sector: 0}

	data := []byte("hello")
	_, err := io.WriteAt(rec, data, 0)
	require.NoError(t, err)

	buf := make([]byte, 100)
	n := io.ReadAt(rec, buf, 2)
	assert.Equal(t, len(data)-2, n)
	assert.Equal(t, data[2:], buf[:n])
}

func TestReadAtPastEOFReturnsZero(t *testing.T) {
	io, idx := newIO(t, 64)
	require.NoError(t, idx.Create(0, sector.Size))
	rec := &registry.Record{Sector: 0}

	buf := make([]byte, 10)
	n := io.ReadAt(rec, buf, sector.Size)
	assert.Equal(t, 0, n)
}

func TestWriteAtDeniedReturnsZero(t *testing.T) {
	io, idx := newIO(t, 64)
	require.NoError(t, idx.Create(0, 0))

	reg := registry.New()
	rec := reg.Open(0)
	rec.DenyWrite()

	n, err := io.WriteAt(rec, []byte("nope"), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, uint64(0), io.Length(rec))
}
