// Package vfs implements the virtual filesystem layer: the node, mount and
// filesystem-type data model, path resolution and the open/read/write/seek/
// stat and directory call surfaces. It is back-end-agnostic; whichever
// filesystem type owns a resolved node services the dispatched operation.
//
// The layer holds no locks and is safe only under a single-actor execution
// model; concurrent callers must serialize around mount-table and directory
// mutations themselves.
package vfs

import (
	"fmt"
	"log/slog"

	"github.com/nuzDop/limitless-storage/internal/schema"
)

// DefaultMaxHandles is the open file table capacity when the configuration
// does not override it.
const DefaultMaxHandles = 128

// Handler is the principal implementation of the virtual filesystem layer.
// It is constructed explicitly and passed by reference; there is no
// package-level registry or mount state, so multiple instances can coexist.
type Handler struct {
	filesystems map[string]FilesystemType
	fsOrder     []string

	mounts  []*Mount
	handles []handle
}

// NewHandler returns a pointer to a new VFS [Handler] with an open file table
// of the given capacity. A non-positive capacity selects [DefaultMaxHandles].
func NewHandler(maxHandles int) *Handler {
	if maxHandles <= 0 {
		maxHandles = DefaultMaxHandles
	}

	return &Handler{
		filesystems: make(map[string]FilesystemType),
		handles:     make([]handle, maxHandles),
	}
}

// Shutdown closes all remaining handles and unmounts every filesystem in
// reverse mount order, syncing each first.
func (h *Handler) Shutdown() {
	for i := range h.handles {
		if h.handles[i].inUse {
			if err := h.Close(i); err != nil {
				slog.Warn("Failed to close handle on shutdown.", "handle", i, "err", err)
			}
		}
	}

	for i := len(h.mounts) - 1; i >= 0; i-- {
		mnt := h.mounts[i]

		if err := mnt.Filesystem.Sync(mnt); err != nil {
			slog.Warn("Failed to sync filesystem on shutdown.",
				"mountpoint", mnt.MountPoint,
				"err", err,
			)
		}

		if err := h.Unmount(mnt.MountPoint); err != nil {
			slog.Warn("Failed to unmount filesystem on shutdown.",
				"mountpoint", mnt.MountPoint,
				"err", err,
			)
		}
	}
}

// RegisterFilesystem adds a filesystem type to the registry. Duplicate names
// are rejected.
func (h *Handler) RegisterFilesystem(fs FilesystemType) error {
	name := fs.Name()

	if _, exists := h.filesystems[name]; exists {
		return fmt.Errorf("(vfs) %w: filesystem type %q", schema.ErrExists, name)
	}

	h.filesystems[name] = fs
	h.fsOrder = append(h.fsOrder, name)

	slog.Info("Registered filesystem type.", "type", name)

	return nil
}

// UnregisterFilesystem removes a filesystem type from the registry. It is not
// exercised on the hot path but kept for symmetry.
func (h *Handler) UnregisterFilesystem(name string) error {
	if _, exists := h.filesystems[name]; !exists {
		return fmt.Errorf("(vfs) %w: filesystem type %q", schema.ErrNotFound, name)
	}

	for _, mnt := range h.mounts {
		if mnt.Filesystem.Name() == name {
			return fmt.Errorf("(vfs) %w: filesystem type %q is mounted", schema.ErrBusy, name)
		}
	}

	delete(h.filesystems, name)
	for i, n := range h.fsOrder {
		if n == name {
			h.fsOrder = append(h.fsOrder[:i], h.fsOrder[i+1:]...)

			break
		}
	}

	return nil
}

// FindFilesystem looks a filesystem type up by its registered name.
func (h *Handler) FindFilesystem(name string) (FilesystemType, error) {
	fs, exists := h.filesystems[name]
	if !exists {
		return nil, fmt.Errorf("(vfs) %w: filesystem type %q", schema.ErrNotFound, name)
	}

	return fs, nil
}

// resolvePath walks the normalized path from the covering mount's root,
// dispatching one directory lookup per segment through the owning back-end.
func (h *Handler) resolvePath(path string) (*Node, error) {
	if !IsAbs(path) {
		return nil, fmt.Errorf("(vfs) %w: path %q is not absolute", schema.ErrInvalidArgument, path)
	}

	mnt, rest, err := h.mountFor(CleanPath(path))
	if err != nil {
		return nil, err
	}

	node := mnt.Root

	if rest == "" {
		return node, nil
	}

	for _, segment := range splitSegments("/" + rest) {
		if node.Type != schema.NodeDirectory || node.DirOps == nil {
			return nil, fmt.Errorf("(vfs) %w: %q is not a directory", schema.ErrTypeMismatch, segment)
		}

		next, err := node.DirOps.Lookup(node, segment)
		if err != nil {
			return nil, err
		}

		node = next
	}

	return node, nil
}

// resolveParent resolves all but the last segment of the path and returns the
// parent node together with the leaf name. It backs create, unlink, rename
// and mkdir, so those operations stay generic over back-ends.
func (h *Handler) resolveParent(path string) (*Node, string, error) {
	dir, leaf := SplitPath(path)
	if leaf == "" {
		return nil, "", fmt.Errorf("(vfs) %w: path %q has no parent", schema.ErrInvalidArgument, path)
	}

	parent, err := h.resolvePath(dir)
	if err != nil {
		return nil, "", err
	}

	if parent.Type != schema.NodeDirectory || parent.DirOps == nil {
		return nil, "", fmt.Errorf("(vfs) %w: %q is not a directory", schema.ErrTypeMismatch, dir)
	}

	return parent, leaf, nil
}

// Stat resolves a path and returns its metadata record.
func (h *Handler) Stat(path string) (schema.Metadata, error) {
	node, err := h.resolvePath(path)
	if err != nil {
		return schema.Metadata{}, err
	}

	return node.Metadata(), nil
}
