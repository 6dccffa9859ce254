package vfs

import (
	"fmt"

	"github.com/nuzDop/limitless-storage/internal/schema"
)

// Mkdir creates a directory at path through the parent's back-end.
func (h *Handler) Mkdir(path string, mode uint32) error {
	parent, leaf, err := h.resolveParent(path)
	if err != nil {
		return err
	}

	if _, err := parent.DirOps.Mkdir(parent, leaf, mode); err != nil {
		return err
	}

	return nil
}

// Rmdir removes the empty directory at path.
func (h *Handler) Rmdir(path string) error {
	parent, leaf, err := h.resolveParent(path)
	if err != nil {
		return err
	}

	return parent.DirOps.Rmdir(parent, leaf)
}

// Unlink removes the non-directory entry at path.
func (h *Handler) Unlink(path string) error {
	parent, leaf, err := h.resolveParent(path)
	if err != nil {
		return err
	}

	return parent.DirOps.Unlink(parent, leaf)
}

// Rename moves oldPath to newPath. Both must resolve within the same mount;
// no single back-end can service a rename across two of them.
func (h *Handler) Rename(oldPath, newPath string) error {
	oldParent, oldLeaf, err := h.resolveParent(oldPath)
	if err != nil {
		return err
	}

	newParent, newLeaf, err := h.resolveParent(newPath)
	if err != nil {
		return err
	}

	if oldParent.Mount != newParent.Mount {
		return fmt.Errorf("(vfs) %w: %w", schema.ErrNotSupported, ErrCrossMount)
	}

	return oldParent.DirOps.Rename(oldParent, oldLeaf, newParent, newLeaf)
}

// ReadDir returns the directory entry at the zero-based index of the open
// directory handle. The order is back-end-defined but stable across calls
// while the directory is not mutated; past the last entry a not-found result
// is returned.
func (h *Handler) ReadDir(fd int, index int) (schema.DirEntry, error) {
	hd, err := h.handleFor(fd)
	if err != nil {
		return schema.DirEntry{}, err
	}

	if hd.node.Type != schema.NodeDirectory || hd.node.DirOps == nil {
		return schema.DirEntry{}, fmt.Errorf("(vfs) %w: node %d has no directory operations",
			schema.ErrTypeMismatch, hd.node.Inode)
	}

	if index < 0 {
		return schema.DirEntry{}, fmt.Errorf("(vfs) %w: negative index", schema.ErrInvalidArgument)
	}

	return hd.node.DirOps.ReadDir(hd.node, index)
}
