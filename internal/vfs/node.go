package vfs

import (
	"fmt"
	"time"

	"github.com/nuzDop/limitless-storage/internal/schema"
)

// FileOps is the capability interface for file-like operations on a node.
// A back-end attaches it to every node that supports byte-granular I/O.
type FileOps interface {
	// Open is invoked when a handle is opened onto the node.
	Open(node *Node, flags int) error

	// Close is invoked when the last operation of a handle has completed.
	Close(node *Node) error

	// Read copies up to len(buf) bytes starting at offset into buf and
	// returns the number of bytes read. Reading past end-of-file yields a
	// short (possibly zero) count, not an error.
	Read(node *Node, offset uint64, buf []byte) (int, error)

	// Write copies len(buf) bytes from buf to the file starting at offset,
	// extending it as needed, and returns the number of bytes written.
	Write(node *Node, offset uint64, buf []byte) (int, error)

	// Truncate sets the file's logical size.
	Truncate(node *Node, size uint64) error
}

// DirOps is the capability interface for directory-like operations on a node.
type DirOps interface {
	// Lookup resolves one name within the directory to its node.
	Lookup(dir *Node, name string) (*Node, error)

	// Create makes a new regular file within the directory.
	Create(dir *Node, name string, mode uint32) (*Node, error)

	// Mkdir makes a new directory within the directory.
	Mkdir(dir *Node, name string, mode uint32) (*Node, error)

	// Unlink removes a non-directory entry from the directory.
	Unlink(dir *Node, name string) error

	// Rmdir removes an empty directory entry from the directory.
	Rmdir(dir *Node, name string) error

	// Rename moves an entry between two directories of the same back-end.
	Rename(oldDir *Node, oldName string, newDir *Node, newName string) error

	// ReadDir returns the entry at the zero-based index within the
	// directory. The order is back-end-defined but stable between calls as
	// long as the directory is not mutated.
	ReadDir(dir *Node, index int) (schema.DirEntry, error)
}

// Node is the in-memory representation of one filesystem object. A node may
// carry file capabilities, directory capabilities, both, or neither,
// depending on its type. The owning back-end materializes nodes and decides
// when their storage is reclaimed; the VFS decides their observed lifetime
// through the reference count.
type Node struct {
	Inode uint64
	Type  schema.NodeType
	Mode  uint32
	UID   uint32
	GID   uint32
	Size  uint64
	Nlink uint32

	AccessedAt time.Time
	ModifiedAt time.Time
	ChangedAt  time.Time

	FileOps FileOps
	DirOps  DirOps

	Filesystem FilesystemType
	Mount      *Mount

	// Private is the back-end's opaque per-node slot.
	Private any

	refs int
}

// Ref extends the node's observed lifetime by one reference. It is the only
// sanctioned way to do so from outside the owning back-end.
func (n *Node) Ref() {
	n.refs++
}

// Unref releases one reference. When the count reaches zero the owning
// back-end's release hook runs and decides whether the node's storage is
// reclaimed. Releasing below zero is rejected without decrementing.
func (n *Node) Unref() error {
	if n.refs <= 0 {
		return fmt.Errorf("(vfs) %w: %w (inode %d)", schema.ErrInvalidArgument, ErrRefUnderflow, n.Inode)
	}

	n.refs--

	if n.refs == 0 && n.Filesystem != nil {
		n.Filesystem.Release(n)
	}

	return nil
}

// Refs returns the current reference count.
func (n *Node) Refs() int {
	return n.refs
}

// NewNode returns a node carrying one reference, held by the back-end that
// materialized it.
func NewNode(inode uint64, kind schema.NodeType, mode uint32) *Node {
	return &Node{
		Inode: inode,
		Type:  kind,
		Mode:  mode,
		Nlink: 1,
		refs:  1,
	}
}

// Metadata returns the node's stat record.
func (n *Node) Metadata() schema.Metadata {
	return schema.Metadata{
		Inode:      n.Inode,
		Type:       n.Type,
		Mode:       n.Mode,
		UID:        n.UID,
		GID:        n.GID,
		Size:       n.Size,
		Nlink:      n.Nlink,
		AccessedAt: n.AccessedAt,
		ModifiedAt: n.ModifiedAt,
		ChangedAt:  n.ChangedAt,
	}
}
