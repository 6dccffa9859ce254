package ramdisk

import (
	"fmt"

	"github.com/nuzDop/limitless-storage/internal/schema"
	"github.com/nuzDop/limitless-storage/internal/vfs"
)

// fileOps implements [vfs.FileOps] against a record's growable buffer.
type fileOps struct {
	t *Type
}

// Open implements [vfs.FileOps].
func (f *fileOps) Open(node *vfs.Node, _ int) error {
	rec, err := recordOf(node)
	if err != nil {
		return err
	}

	rec.accessedAt = f.t.clock.Now()
	node.AccessedAt = rec.accessedAt

	return nil
}

// Close implements [vfs.FileOps]. There is nothing to flush.
func (f *fileOps) Close(_ *vfs.Node) error {
	return nil
}

// Read copies from the record's buffer, clamped to the logical size. Reading
// at or past end-of-file returns a short (or zero) count, never an error.
func (f *fileOps) Read(node *vfs.Node, offset uint64, buf []byte) (int, error) {
	rec, err := recordOf(node)
	if err != nil {
		return 0, err
	}

	if offset >= rec.size {
		return 0, nil
	}

	n := copy(buf, rec.data[offset:rec.size])

	rec.accessedAt = f.t.clock.Now()
	node.AccessedAt = rec.accessedAt

	return n, nil
}

// Write copies into the record's buffer, growing it when the written extent
// exceeds the current capacity. The logical size is extended only when the
// write's end offset exceeds it; a write inside the existing extent leaves
// the size untouched.
func (f *fileOps) Write(node *vfs.Node, offset uint64, buf []byte) (int, error) {
	rec, err := recordOf(node)
	if err != nil {
		return 0, err
	}

	end := offset + uint64(len(buf))
	if end < offset || end > f.t.maxFileSize {
		return 0, fmt.Errorf("(ramdisk) %w: write extent %d exceeds file size cap %d",
			schema.ErrNoSpace, end, f.t.maxFileSize)
	}

	rec.grow(end)
	copy(rec.data[offset:], buf)

	if end > rec.size {
		rec.size = end
	}

	now := f.t.clock.Now()
	rec.modifiedAt = now
	rec.changedAt = now
	node.Size = rec.size
	node.ModifiedAt = now
	node.ChangedAt = now

	return len(buf), nil
}

// Truncate adjusts the logical size. Shrinking never reallocates: the
// capacity stays, but the abandoned region is zeroed so a later regrowth
// reads back zero-filled gaps rather than stale content.
func (f *fileOps) Truncate(node *vfs.Node, size uint64) error {
	rec, err := recordOf(node)
	if err != nil {
		return err
	}

	if size > f.t.maxFileSize {
		return fmt.Errorf("(ramdisk) %w: size %d exceeds file size cap %d",
			schema.ErrNoSpace, size, f.t.maxFileSize)
	}

	switch {
	case size > rec.size:
		rec.grow(size)
	case size < rec.size:
		clear(rec.data[size:rec.size])
	}

	rec.size = size

	now := f.t.clock.Now()
	rec.modifiedAt = now
	rec.changedAt = now
	node.Size = size
	node.ModifiedAt = now
	node.ChangedAt = now

	return nil
}

// grow ensures the buffer can hold needed bytes, doubling in block
// increments. Newly allocated space is zeroed by the runtime, which is what
// makes sparse gap reads well-defined.
func (r *record) grow(needed uint64) {
	if needed <= uint64(len(r.data)) {
		return
	}

	newCap := uint64(len(r.data))
	if newCap == 0 {
		newCap = blockIncrement
	}
	for newCap < needed {
		newCap *= 2
	}

	data := make([]byte, newCap)
	copy(data, r.data[:r.size])
	r.data = data
}

// recordOf follows a node back to its table slot. Inode numbers are never
// reused, so an inode mismatch means the slot was freed and reoccupied since
// the node was materialized; such stale handles must not alias the slot's
// new tenant.
func recordOf(node *vfs.Node) (*record, error) {
	rec, ok := node.Private.(*record)
	if !ok || rec == nil || !rec.inUse || rec.inode != node.Inode {
		return nil, fmt.Errorf("(ramdisk) %w: node %d carries no record",
			schema.ErrNotFound, node.Inode)
	}

	return rec, nil
}
