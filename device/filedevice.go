package device

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/gofs-project/blockfs/sector"
)

// FileDevice backs a BlockDevice with a regular file, grounded on go-nfsd's
// disk.NewFileDisk (fs.go) and the fsync-on-durability-point idiom used by
// cmd/fs-smallfile and cmd/smallfile.
type FileDevice struct {
	f    *os.File
	size uint64
}

// NewFileDevice creates (or truncates) a backing file sized to hold n
// sectors.
func NewFileDevice(path string, n uint64) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(n) * sector.Size); err != nil {
		f.Close()
		return nil, err
	}
	return &FileDevice{f: f, size: n}, nil
}

func (d *FileDevice) ReadSector(id sector.ID, dst []byte) {
	checkLen(dst)
	off := int64(id) * sector.Size
	if _, err := d.f.ReadAt(dst, off); err != nil {
		panic(err)
	}
}

func (d *FileDevice) WriteSector(id sector.ID, src []byte) {
	checkLen(src)
	off := int64(id) * sector.Size
	if _, err := d.f.WriteAt(src, off); err != nil {
		panic(err)
	}
}

func (d *FileDevice) Size() uint64 { return d.size }

// Sync flushes the backing file to stable storage via a direct fsync(2),
// rather than (*os.File).Sync, matching the low-level unix.Fsync calls
// go-nfsd's benchmark tools make on the files they write.
func (d *FileDevice) Sync() error {
	return unix.Fsync(int(d.f.Fd()))
}

func (d *FileDevice) Close() error {
	return d.f.Close()
}

var _ BlockDevice = (*FileDevice)(nil)
