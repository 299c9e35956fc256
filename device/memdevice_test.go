package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofs-project/blockfs/sector"
)

func TestMemDeviceRoundTrip(t *testing.T) {
	dev := NewMemDevice(4)
	assert.Equal(t, uint64(4), dev.Size())

	want := make([]byte, sector.Size)
	for i := range want {
		want[i] = byte(i)
	}
	dev.WriteSector(2, want)

	got := make([]byte, sector.Size)
	dev.ReadSector(2, got)
	assert.Equal(t, want, got)

	other := make([]byte, sector.Size)
	dev.ReadSector(1, other)
	for _, b := range other {
		require.Equal(t, byte(0), b)
	}
}

func TestMemDeviceBadLengthPanics(t *testing.T) {
	dev := NewMemDevice(1)
	assert.Panics(t, func() { dev.WriteSector(0, make([]byte, 10)) })
}
