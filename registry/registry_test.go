package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gofs-project/blockfs/sector"
)

func TestOpenReopenCloseRefcount(t *testing.T) {
	reg := New()

	rec := reg.Open(5)
	assert.Equal(t, sector.ID(5), rec.Sector)

	same := reg.Open(5)
	assert.Same(t, rec, same, "opening the same sector twice must return the same record")

	Reopen(rec)

	res := reg.Close(rec)
	assert.False(t, res.LastClose, "two opens plus a reopen means three closes are needed")

	res = reg.Close(rec)
	assert.False(t, res.LastClose)

	res = reg.Close(rec)
	assert.True(t, res.LastClose)
	assert.False(t, res.ShouldFree)
}

func TestRemoveDefersFreeToLastClose(t *testing.T) {
	reg := New()
	rec := reg.Open(9)
	Reopen(rec)
	Remove(rec)
	assert.True(t, rec.Deleted())

	res := reg.Close(rec)
	assert.False(t, res.LastClose)

	res = reg.Close(rec)
	assert.True(t, res.LastClose)
	assert.True(t, res.ShouldFree)
}

func TestReopenAfterCloseGetsFreshRecord(t *testing.T) {
	reg := New()
	first := reg.Open(1)
	reg.Close(first)

	second := reg.Open(1)
	assert.NotSame(t, first, second, "the previous record was removed from the registry on last close")
}

func TestDenyWriteInvariant(t *testing.T) {
	reg := New()
	rec := reg.Open(2)
	Reopen(rec)

	rec.DenyWrite()
	assert.Equal(t, 1, rec.DenyWriteCount())
	rec.DenyWrite()
	assert.Equal(t, 2, rec.DenyWriteCount())

	assert.Panics(t, func() { rec.DenyWrite() }, "deny_write_cnt must not exceed open_cnt")

	rec.AllowWrite()
	rec.AllowWrite()
	assert.Equal(t, 0, rec.DenyWriteCount())
	assert.Panics(t, func() { rec.AllowWrite() }, "allow_write with no outstanding deny_write must panic")
}

func TestDeniedLockedMatchesDenyWriteCount(t *testing.T) {
	rec := &Record{Sector: 0, openCnt: 1}
	assert.False(t, rec.DeniedLocked())
	rec.DenyWrite()
	assert.True(t, rec.DeniedLocked())
}
