package ramdisk

import (
	"fmt"
	"strings"

	"github.com/nuzDop/limitless-storage/internal/schema"
	"github.com/nuzDop/limitless-storage/internal/vfs"
)

// dirOps implements [vfs.DirOps] by linear scans of the mount's record
// table, filtered by parent inode. Table order doubles as the stable
// directory enumeration order.
type dirOps struct {
	t *Type
}

// Lookup resolves one name within the directory.
func (d *dirOps) Lookup(dir *vfs.Node, name string) (*vfs.Node, error) {
	st, rec, err := d.dirRecord(dir)
	if err != nil {
		return nil, err
	}

	child := st.child(rec.inode, name)
	if child == nil {
		return nil, fmt.Errorf("(ramdisk) %w: %q", schema.ErrNotFound, name)
	}

	return d.t.materialize(dir.Mount, child), nil
}

// Create makes a new regular file record under the directory.
func (d *dirOps) Create(dir *vfs.Node, name string, mode uint32) (*vfs.Node, error) {
	return d.insert(dir, name, mode, schema.NodeFile)
}

// Mkdir makes a new directory record under the directory.
func (d *dirOps) Mkdir(dir *vfs.Node, name string, mode uint32) (*vfs.Node, error) {
	return d.insert(dir, name, mode, schema.NodeDirectory)
}

func (d *dirOps) insert(dir *vfs.Node, name string, mode uint32, kind schema.NodeType) (*vfs.Node, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	st, rec, err := d.dirRecord(dir)
	if err != nil {
		return nil, err
	}

	if st.child(rec.inode, name) != nil {
		return nil, fmt.Errorf("(ramdisk) %w: %q", schema.ErrExists, name)
	}

	slot := st.freeSlot()
	if slot == nil {
		return nil, fmt.Errorf("(ramdisk) %w: file table full", schema.ErrNoSpace)
	}

	now := d.t.clock.Now()

	*slot = record{
		inUse:      true,
		inode:      st.nextInode,
		kind:       kind,
		name:       name,
		parent:     rec.inode,
		mode:       mode,
		accessedAt: now,
		modifiedAt: now,
		changedAt:  now,
	}
	st.nextInode++

	rec.modifiedAt = now
	dir.ModifiedAt = now

	return d.t.materialize(dir.Mount, slot), nil
}

// Unlink removes a non-directory entry, releasing its buffer and flagging
// the slot free. The table is not compacted and the inode number is never
// reused.
func (d *dirOps) Unlink(dir *vfs.Node, name string) error {
	return d.remove(dir, name, false)
}

// Rmdir removes an empty directory entry.
func (d *dirOps) Rmdir(dir *vfs.Node, name string) error {
	return d.remove(dir, name, true)
}

func (d *dirOps) remove(dir *vfs.Node, name string, wantDir bool) error {
	st, rec, err := d.dirRecord(dir)
	if err != nil {
		return err
	}

	child := st.child(rec.inode, name)
	if child == nil {
		return fmt.Errorf("(ramdisk) %w: %q", schema.ErrNotFound, name)
	}

	isDir := child.kind == schema.NodeDirectory
	if isDir != wantDir {
		return fmt.Errorf("(ramdisk) %w: %q is a %s", schema.ErrTypeMismatch, name, child.kind)
	}

	if isDir && st.hasChildren(child.inode) {
		return fmt.Errorf("(ramdisk) %w: directory %q is not empty", schema.ErrBusy, name)
	}

	cached := child.node

	child.data = nil
	child.size = 0
	child.inUse = false
	child.node = nil

	if cached != nil {
		// Drop the table's reference; any still-open handle keeps the node
		// alive until its own release.
		if err := cached.Unref(); err != nil {
			return err
		}
	}

	rec.modifiedAt = d.t.clock.Now()
	dir.ModifiedAt = rec.modifiedAt

	return nil
}

// Rename moves an entry between directories of the same mount, rejecting a
// duplicate name at the destination and a directory moved into its own
// subtree. Renaming an entry onto itself succeeds without effect.
func (d *dirOps) Rename(oldDir *vfs.Node, oldName string, newDir *vfs.Node, newName string) error {
	if err := validName(newName); err != nil {
		return err
	}

	st, oldRec, err := d.dirRecord(oldDir)
	if err != nil {
		return err
	}

	_, newRec, err := d.dirRecord(newDir)
	if err != nil {
		return err
	}

	child := st.child(oldRec.inode, oldName)
	if child == nil {
		return fmt.Errorf("(ramdisk) %w: %q", schema.ErrNotFound, oldName)
	}

	if newRec.inode == oldRec.inode && newName == oldName {
		return nil
	}

	if child.kind == schema.NodeDirectory {
		// Walking the destination's parent chain catches a directory being
		// moved under itself, which would orphan its whole subtree.
		for rec := newRec; rec != nil; rec = st.byInode(rec.parent) {
			if rec.inode == child.inode {
				return fmt.Errorf("(ramdisk) %w: %q into its own subtree",
					schema.ErrInvalidArgument, oldName)
			}

			if rec.inode == RootInode {
				break
			}
		}
	}

	if st.child(newRec.inode, newName) != nil {
		return fmt.Errorf("(ramdisk) %w: %q", schema.ErrExists, newName)
	}

	child.name = newName
	child.parent = newRec.inode

	now := d.t.clock.Now()
	child.changedAt = now
	oldRec.modifiedAt = now
	newRec.modifiedAt = now
	oldDir.ModifiedAt = now
	newDir.ModifiedAt = now

	return nil
}

// ReadDir returns the index-th entry of the directory in table order.
func (d *dirOps) ReadDir(dir *vfs.Node, index int) (schema.DirEntry, error) {
	st, rec, err := d.dirRecord(dir)
	if err != nil {
		return schema.DirEntry{}, err
	}

	seen := 0
	for i := range st.records {
		child := &st.records[i]
		if !child.inUse || child.parent != rec.inode || child.inode == rec.inode {
			continue
		}

		if seen == index {
			return schema.DirEntry{
				Inode: child.inode,
				Type:  child.kind,
				Name:  child.name,
			}, nil
		}
		seen++
	}

	return schema.DirEntry{}, fmt.Errorf("(ramdisk) %w: directory index %d", schema.ErrNotFound, index)
}

func (d *dirOps) dirRecord(dir *vfs.Node) (*store, *record, error) {
	st, err := storeOf(dir.Mount)
	if err != nil {
		return nil, nil, err
	}

	rec, err := recordOf(dir)
	if err != nil {
		return nil, nil, err
	}

	if rec.kind != schema.NodeDirectory {
		return nil, nil, fmt.Errorf("(ramdisk) %w: inode %d is not a directory",
			schema.ErrTypeMismatch, rec.inode)
	}

	return st, rec, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("(ramdisk) %w: name %q", schema.ErrInvalidArgument, name)
	}

	return nil
}
