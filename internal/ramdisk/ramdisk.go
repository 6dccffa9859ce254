// Package ramdisk implements the reference in-memory filesystem against the
// VFS's filesystem-type, file-operation and directory-operation contracts.
// It keeps everything in a fixed-capacity table of file records; contents are
// intentionally volatile and do not survive a restart.
//
// The fixed table capacity and per-file size cap are deliberate policy: they
// bound the memory consumption of a boot filesystem deterministically.
package ramdisk

import (
	"fmt"
	"time"

	"github.com/nuzDop/limitless-storage/internal/schema"
	"github.com/nuzDop/limitless-storage/internal/vfs"
)

// TypeName is the registry name the filesystem is mounted by.
const TypeName = "ramdisk"

// RootInode is the well-known inode of a mount's root directory.
const RootInode = 1

const (
	// blockIncrement is the growth granularity of file buffers.
	blockIncrement = 4096

	// DefaultCapacity is the file record table size when the configuration
	// does not override it.
	DefaultCapacity = 256

	// DefaultMaxFileSize bounds a single file's logical size.
	DefaultMaxFileSize = 16 << 20

	rootMode = 0o755
)

type clockProvider interface {
	Now() time.Time
}

// Type is the registered filesystem-type descriptor. One descriptor serves
// any number of mounts; each mount owns an independent record table.
type Type struct {
	clock       clockProvider
	capacity    int
	maxFileSize uint64

	fileOps *fileOps
	dirOps  *dirOps
}

// New returns a pointer to a new ramdisk [Type]. Non-positive limits select
// the defaults.
func New(clock clockProvider, capacity int, maxFileSize uint64) *Type {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if maxFileSize == 0 {
		maxFileSize = DefaultMaxFileSize
	}

	t := &Type{
		clock:       clock,
		capacity:    capacity,
		maxFileSize: maxFileSize,
	}
	t.fileOps = &fileOps{t: t}
	t.dirOps = &dirOps{t: t}

	return t
}

// Register adds the type to the given VFS registry, after which the name
// "ramdisk" is mountable. The kernel calls this once at boot.
func (t *Type) Register(vfsHandler *vfs.Handler) error {
	if err := vfsHandler.RegisterFilesystem(t); err != nil {
		return fmt.Errorf("(ramdisk) %w", err)
	}

	return nil
}

// record is one slot of a mount's file table.
type record struct {
	inUse  bool
	inode  uint64
	kind   schema.NodeType
	name   string
	parent uint64

	mode uint32
	uid  uint32
	gid  uint32

	// data is the allocated buffer; size is the logical length within it.
	// The buffer grows in block increments and never shrinks on write;
	// truncation below capacity reduces the logical size only.
	data []byte
	size uint64

	accessedAt time.Time
	modifiedAt time.Time
	changedAt  time.Time

	node *vfs.Node
}

// store is the per-mount state: the record table and the inode counter.
// Inode numbers are strictly increasing for the lifetime of one mount;
// deletion never reclaims them.
type store struct {
	records   []record
	nextInode uint64
}

// Name implements [vfs.FilesystemType].
func (t *Type) Name() string {
	return TypeName
}

// Mount initializes the mount's record table and synthesizes the root
// directory record under its well-known inode.
func (t *Type) Mount(mnt *vfs.Mount) error {
	now := t.clock.Now()

	st := &store{
		records:   make([]record, t.capacity),
		nextInode: RootInode + 1,
	}

	st.records[0] = record{
		inUse:      true,
		inode:      RootInode,
		kind:       schema.NodeDirectory,
		name:       "/",
		mode:       rootMode,
		accessedAt: now,
		modifiedAt: now,
		changedAt:  now,
	}

	mnt.Private = st

	return nil
}

// Unmount drops the mount's record table wholesale.
func (t *Type) Unmount(mnt *vfs.Mount) error {
	mnt.Private = nil

	return nil
}

// Sync is a no-op: the filesystem is volatile by design.
func (t *Type) Sync(_ *vfs.Mount) error {
	return nil
}

// Root returns the node of the root directory, looked up by its well-known
// inode.
func (t *Type) Root(mnt *vfs.Mount) (*vfs.Node, error) {
	st, err := storeOf(mnt)
	if err != nil {
		return nil, err
	}

	rec := st.byInode(RootInode)
	if rec == nil {
		return nil, fmt.Errorf("(ramdisk) %w: root record", schema.ErrNotFound)
	}

	return t.materialize(mnt, rec), nil
}

// Release drops the cached node of a record once its last reference is gone.
// The record itself (if still in use) stays; a later lookup materializes a
// fresh node. A stale node whose slot was reoccupied must not evict the new
// tenant's cache, so only the record's own node is cleared.
func (t *Type) Release(node *vfs.Node) {
	if rec, ok := node.Private.(*record); ok && rec.node == node {
		rec.node = nil
	}
}

// materialize returns the cached node for a record, building it on first
// access. File records carry the file operations, directory records the
// directory operations.
func (t *Type) materialize(mnt *vfs.Mount, rec *record) *vfs.Node {
	if rec.node != nil {
		return rec.node
	}

	node := vfs.NewNode(rec.inode, rec.kind, rec.mode)
	node.UID = rec.uid
	node.GID = rec.gid
	node.Size = rec.size
	node.AccessedAt = rec.accessedAt
	node.ModifiedAt = rec.modifiedAt
	node.ChangedAt = rec.changedAt
	node.Filesystem = t
	node.Mount = mnt
	node.Private = rec

	switch rec.kind {
	case schema.NodeDirectory:
		node.DirOps = t.dirOps
	default:
		node.FileOps = t.fileOps
	}

	rec.node = node

	return node
}

func storeOf(mnt *vfs.Mount) (*store, error) {
	st, ok := mnt.Private.(*store)
	if !ok || st == nil {
		return nil, fmt.Errorf("(ramdisk) %w: mount carries no store", schema.ErrInvalidArgument)
	}

	return st, nil
}

func (st *store) byInode(inode uint64) *record {
	for i := range st.records {
		if st.records[i].inUse && st.records[i].inode == inode {
			return &st.records[i]
		}
	}

	return nil
}

// child finds the record named name under the given parent inode, by linear
// scan of the table.
func (st *store) child(parent uint64, name string) *record {
	for i := range st.records {
		rec := &st.records[i]
		if rec.inUse && rec.parent == parent && rec.name == name {
			return rec
		}
	}

	return nil
}

// freeSlot returns an unused record slot, or nil when the table is full.
func (st *store) freeSlot() *record {
	for i := range st.records {
		if !st.records[i].inUse {
			return &st.records[i]
		}
	}

	return nil
}

// hasChildren reports whether any record lists the given inode as parent.
func (st *store) hasChildren(inode uint64) bool {
	for i := range st.records {
		if st.records[i].inUse && st.records[i].parent == inode {
			return true
		}
	}

	return false
}
