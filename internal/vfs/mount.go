package vfs

import (
	"fmt"
	"log/slog"

	"github.com/nuzDop/limitless-storage/internal/schema"
)

// FilesystemType is a named, registered filesystem back-end. One descriptor
// serves all mounts of its type; per-mount state lives in [Mount.Private].
type FilesystemType interface {
	// Name returns the registry name the type is mounted by.
	Name() string

	// Mount populates the back-end state for a new mount.
	Mount(mnt *Mount) error

	// Unmount tears the back-end state of a mount down.
	Unmount(mnt *Mount) error

	// Sync flushes any back-end state that has a durability story.
	Sync(mnt *Mount) error

	// Root materializes (or returns the cached) root node of the mount.
	Root(mnt *Mount) (*Node, error)

	// Release is the reclamation hook, invoked when a node's reference
	// count reaches zero. The back-end decides whether to reclaim.
	Release(node *Node)
}

// Mount binds a mount-point path and an originating device specifier to one
// filesystem type, for the duration between mount and unmount.
type Mount struct {
	Device     string
	MountPoint string
	Flags      uint32

	Filesystem FilesystemType

	// Root is the resolved root node, referenced for the mount's lifetime.
	Root *Node

	// Private is the back-end's opaque per-mount slot.
	Private any
}

// Mount looks up the named filesystem type, allocates the mount record and
// hands it to the back-end. On success all path lookups beneath mountPoint
// resolve through the new mount.
func (h *Handler) Mount(device, mountPoint, fsName string, flags uint32) error {
	fs, err := h.FindFilesystem(fsName)
	if err != nil {
		return err
	}

	mountPoint = CleanPath(mountPoint)

	if _, exists := h.mountAt(mountPoint); exists {
		return fmt.Errorf("(vfs) %w: mount point %q", schema.ErrExists, mountPoint)
	}

	mnt := &Mount{
		Device:     device,
		MountPoint: mountPoint,
		Flags:      flags,
		Filesystem: fs,
	}

	if err := fs.Mount(mnt); err != nil {
		return fmt.Errorf("failed to mount %q at %q: %w", fsName, mountPoint, err)
	}

	root, err := fs.Root(mnt)
	if err != nil {
		_ = fs.Unmount(mnt)

		return fmt.Errorf("failed to resolve root of %q: %w", fsName, err)
	}

	root.Ref()
	mnt.Root = root
	h.mounts = append(h.mounts, mnt)

	slog.Info("Mounted filesystem.",
		"type", fsName,
		"device", device,
		"mountpoint", mountPoint,
	)

	return nil
}

// Unmount detaches the mount at mountPoint. It refuses while any open handle
// still references a node of the mount.
func (h *Handler) Unmount(mountPoint string) error {
	mountPoint = CleanPath(mountPoint)

	mnt, exists := h.mountAt(mountPoint)
	if !exists {
		return fmt.Errorf("(vfs) %w: mount point %q", schema.ErrNotFound, mountPoint)
	}

	for i := range h.handles {
		if h.handles[i].inUse && h.handles[i].node.Mount == mnt {
			return fmt.Errorf("(vfs) %w: open handles on %q", schema.ErrBusy, mountPoint)
		}
	}

	if err := mnt.Filesystem.Unmount(mnt); err != nil {
		return fmt.Errorf("failed to unmount %q: %w", mountPoint, err)
	}

	if err := mnt.Root.Unref(); err != nil {
		return err
	}
	mnt.Root = nil

	for i, m := range h.mounts {
		if m == mnt {
			h.mounts = append(h.mounts[:i], h.mounts[i+1:]...)

			break
		}
	}

	slog.Info("Unmounted filesystem.", "mountpoint", mountPoint)

	return nil
}

// Mounts returns the active mounts in mount order.
func (h *Handler) Mounts() []*Mount {
	return h.mounts
}

// mountAt returns the mount whose mount point equals path exactly.
func (h *Handler) mountAt(path string) (*Mount, bool) {
	for _, mnt := range h.mounts {
		if mnt.MountPoint == path {
			return mnt, true
		}
	}

	return nil, false
}

// mountFor returns the mount covering the longest prefix of path, along with
// the path remainder relative to the mount's root.
func (h *Handler) mountFor(path string) (*Mount, string, error) {
	var best *Mount
	bestLen := -1

	for _, mnt := range h.mounts {
		point := mnt.MountPoint
		if !pathHasPrefix(path, point) {
			continue
		}
		if len(point) > bestLen {
			best = mnt
			bestLen = len(point)
		}
	}

	if best == nil {
		return nil, "", fmt.Errorf("(vfs) %w: %q", ErrNotMounted, path)
	}

	rest := path[len(best.MountPoint):]
	rest = trimSlashes(rest)

	return best, rest, nil
}
