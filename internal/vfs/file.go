package vfs

import (
	"errors"
	"fmt"

	"github.com/nuzDop/limitless-storage/internal/schema"
)

// Open flags. The values mirror the classic open(2) encoding.
const (
	OpenRead   = 0x0
	OpenWrite  = 0x1
	OpenRDWR   = 0x2
	OpenCreate = 0x40
	OpenExcl   = 0x80
	OpenTrunc  = 0x200
	OpenAppend = 0x400

	accessMask = 0x3
)

// Seek whence values.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// handle pairs a node reference with a byte offset and the open flags. A
// handle holds its node reference from Open until Close.
type handle struct {
	node   *Node
	offset uint64
	flags  int
	inUse  bool
}

// Open resolves (or, with OpenCreate, creates) the path and returns a handle
// onto its node. Directories may be opened read-only for index-based
// directory reads.
func (h *Handler) Open(path string, flags int, mode uint32) (int, error) {
	node, err := h.resolvePath(path)

	switch {
	case err == nil:
		if flags&OpenCreate != 0 && flags&OpenExcl != 0 {
			return -1, fmt.Errorf("(vfs) %w: %q", schema.ErrExists, path)
		}
	case errors.Is(err, schema.ErrNotFound) && flags&OpenCreate != 0:
		parent, leaf, perr := h.resolveParent(path)
		if perr != nil {
			return -1, perr
		}

		node, err = parent.DirOps.Create(parent, leaf, mode)
		if err != nil {
			return -1, err
		}
	default:
		return -1, err
	}

	if node.Type == schema.NodeDirectory && flags&accessMask != OpenRead {
		return -1, fmt.Errorf("(vfs) %w: cannot open directory %q for writing",
			schema.ErrTypeMismatch, path)
	}

	slot := -1
	for i := range h.handles {
		if !h.handles[i].inUse {
			slot = i

			break
		}
	}
	if slot < 0 {
		return -1, fmt.Errorf("(vfs) %w: %w", schema.ErrNoSpace, ErrHandleTableFull)
	}

	if node.FileOps != nil {
		if err := node.FileOps.Open(node, flags); err != nil {
			return -1, err
		}

		if flags&OpenTrunc != 0 && flags&accessMask != OpenRead {
			if err := node.FileOps.Truncate(node, 0); err != nil {
				return -1, err
			}
		}
	}

	node.Ref()
	h.handles[slot] = handle{node: node, flags: flags, inUse: true}

	return slot, nil
}

// Close releases the handle and the node reference it holds. Closing a
// handle that is not open is rejected and releases nothing.
func (h *Handler) Close(fd int) error {
	hd, err := h.handleFor(fd)
	if err != nil {
		return err
	}

	if hd.node.FileOps != nil {
		if err := hd.node.FileOps.Close(hd.node); err != nil {
			return err
		}
	}

	if err := hd.node.Unref(); err != nil {
		return err
	}

	*hd = handle{}

	return nil
}

// Read reads up to len(buf) bytes at the handle's offset and advances it by
// the number of bytes read.
func (h *Handler) Read(fd int, buf []byte) (int, error) {
	hd, err := h.handleFor(fd)
	if err != nil {
		return 0, err
	}

	if hd.node.FileOps == nil {
		return 0, fmt.Errorf("(vfs) %w: node %d has no file operations",
			schema.ErrTypeMismatch, hd.node.Inode)
	}

	n, err := hd.node.FileOps.Read(hd.node, hd.offset, buf)
	hd.offset += uint64(n)

	return n, err
}

// Write writes len(buf) bytes at the handle's offset (or at end-of-file for
// append handles) and advances the offset by the number of bytes written.
func (h *Handler) Write(fd int, buf []byte) (int, error) {
	hd, err := h.handleFor(fd)
	if err != nil {
		return 0, err
	}

	if hd.flags&accessMask == OpenRead {
		return 0, fmt.Errorf("(vfs) %w: handle %d is read-only", schema.ErrInvalidArgument, fd)
	}

	if hd.node.FileOps == nil {
		return 0, fmt.Errorf("(vfs) %w: node %d has no file operations",
			schema.ErrTypeMismatch, hd.node.Inode)
	}

	if hd.flags&OpenAppend != 0 {
		hd.offset = hd.node.Size
	}

	n, err := hd.node.FileOps.Write(hd.node, hd.offset, buf)
	hd.offset += uint64(n)

	return n, err
}

// Seek repositions the handle's offset and returns the new offset.
func (h *Handler) Seek(fd int, offset int64, whence int) (uint64, error) {
	hd, err := h.handleFor(fd)
	if err != nil {
		return 0, err
	}

	var base uint64

	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		base = hd.offset
	case SeekEnd:
		base = hd.node.Size
	default:
		return 0, fmt.Errorf("(vfs) %w: whence %d", schema.ErrInvalidArgument, whence)
	}

	target := int64(base) + offset
	if target < 0 {
		return 0, fmt.Errorf("(vfs) %w: negative seek offset", schema.ErrInvalidArgument)
	}

	hd.offset = uint64(target)

	return hd.offset, nil
}

// Fstat returns the metadata record of the handle's node.
func (h *Handler) Fstat(fd int) (schema.Metadata, error) {
	hd, err := h.handleFor(fd)
	if err != nil {
		return schema.Metadata{}, err
	}

	return hd.node.Metadata(), nil
}

// Truncate resolves the path and sets its file's logical size.
func (h *Handler) Truncate(path string, size uint64) error {
	node, err := h.resolvePath(path)
	if err != nil {
		return err
	}

	if node.FileOps == nil {
		return fmt.Errorf("(vfs) %w: node %d has no file operations",
			schema.ErrTypeMismatch, node.Inode)
	}

	return node.FileOps.Truncate(node, size)
}

// OpenHandles returns how many handles are currently open.
func (h *Handler) OpenHandles() int {
	count := 0
	for i := range h.handles {
		if h.handles[i].inUse {
			count++
		}
	}

	return count
}

func (h *Handler) handleFor(fd int) (*handle, error) {
	if fd < 0 || fd >= len(h.handles) || !h.handles[fd].inUse {
		return nil, fmt.Errorf("(vfs) %w: %w (%d)", schema.ErrInvalidArgument, ErrBadHandle, fd)
	}

	return &h.handles[fd], nil
}
