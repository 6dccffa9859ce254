package schema

import "time"

// NodeType describes what kind of filesystem object a node represents.
type NodeType uint8

const (
	// NodeFile is a regular file.
	NodeFile NodeType = iota

	// NodeDirectory is a directory.
	NodeDirectory

	// NodeDevice is a device special file.
	NodeDevice
)

// String returns a human-readable name for a [NodeType].
func (t NodeType) String() string {
	switch t {
	case NodeFile:
		return "file"
	case NodeDirectory:
		return "directory"
	case NodeDevice:
		return "device"
	default:
		return "unknown"
	}
}

// Metadata is the stat record for one filesystem object, as reported through
// the filesystem call surface. It is a plain value and carries no ownership.
type Metadata struct {
	Inode      uint64
	Type       NodeType
	Mode       uint32
	UID        uint32
	GID        uint32
	Size       uint64
	Nlink      uint32
	AccessedAt time.Time
	ModifiedAt time.Time
	ChangedAt  time.Time
}

// DirEntry is one directory entry as returned by index-based directory reads.
type DirEntry struct {
	Inode uint64
	Type  NodeType
	Name  string
}
