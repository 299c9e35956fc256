package inode

import "errors"

// ErrOutOfSpace is returned by Create and Resize when the free-map cannot
// satisfy a growth allocation. The inode's on-disk state is left
// unmodified, per spec.md §4.2's atomicity guarantee.
var ErrOutOfSpace = errors.New("inode: out of space")
