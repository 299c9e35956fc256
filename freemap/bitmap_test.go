package freemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofs-project/blockfs/sector"
)

func TestAllocateAndRelease(t *testing.T) {
	m := NewBitmapFreeMap(100, 4)

	ids, ok := m.AllocateNonConsecutive(3)
	require.True(t, ok)
	require.Len(t, ids, 3)
	seen := map[sector.ID]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "allocated the same sector twice")
		seen[id] = true
		assert.True(t, id >= 100 && id < 104)
	}

	_, ok = m.AllocateNonConsecutive(2)
	assert.False(t, ok, "only one sector should remain free")

	m.Release(ids[0], 1)
	more, ok := m.AllocateNonConsecutive(1)
	require.True(t, ok)
	require.Len(t, more, 1)
}

func TestAllocateAllOrNothing(t *testing.T) {
	m := NewBitmapFreeMap(0, 2)
	ids, ok := m.AllocateNonConsecutive(2)
	require.True(t, ok)
	require.Len(t, ids, 2)

	_, ok = m.AllocateNonConsecutive(1)
	require.False(t, ok)

	m.Release(ids[0], 1)
	again, ok := m.AllocateNonConsecutive(1)
	require.True(t, ok)
	assert.Equal(t, ids[0], again[0])
}

func TestAllocateZeroCount(t *testing.T) {
	m := NewBitmapFreeMap(0, 1)
	ids, ok := m.AllocateNonConsecutive(0)
	require.True(t, ok)
	require.Empty(t, ids)
}

func TestDoubleReleasePanics(t *testing.T) {
	m := NewBitmapFreeMap(0, 1)
	assert.Panics(t, func() { m.Release(0, 1) })
}
