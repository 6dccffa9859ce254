package vfs

import (
	"fmt"

	"github.com/nuzDop/limitless-storage/internal/schema"
)

// fakeFS is a minimal back-end for exercising the dispatch and lifecycle
// mechanics of the layer without pulling a real filesystem in. It keeps a
// flat map of children under a single root directory.
type fakeFS struct {
	name     string
	root     *Node
	children map[string]*Node

	mountCalls   int
	unmountCalls int
	syncCalls    int
	released     []uint64

	mountErr error
}

func newFakeFS(name string) *fakeFS {
	return &fakeFS{
		name:     name,
		children: make(map[string]*Node),
	}
}

func (f *fakeFS) addFile(name string, content []byte) *Node {
	node := NewNode(uint64(len(f.children))+2, schema.NodeFile, 0o644)
	node.Size = uint64(len(content))
	node.Filesystem = f
	node.FileOps = &fakeFileOps{content: content}
	f.children[name] = node

	return node
}

func (f *fakeFS) Name() string { return f.name }

func (f *fakeFS) Mount(mnt *Mount) error {
	f.mountCalls++

	if f.mountErr != nil {
		return f.mountErr
	}

	root := NewNode(1, schema.NodeDirectory, 0o755)
	root.Filesystem = f
	root.Mount = mnt
	root.DirOps = &fakeDirOps{fs: f}
	f.root = root

	for _, child := range f.children {
		child.Mount = mnt
	}

	return nil
}

func (f *fakeFS) Unmount(_ *Mount) error {
	f.unmountCalls++

	return nil
}

func (f *fakeFS) Sync(_ *Mount) error {
	f.syncCalls++

	return nil
}

func (f *fakeFS) Root(_ *Mount) (*Node, error) {
	return f.root, nil
}

func (f *fakeFS) Release(node *Node) {
	f.released = append(f.released, node.Inode)
}

type fakeDirOps struct {
	fs *fakeFS
}

func (d *fakeDirOps) Lookup(_ *Node, name string) (*Node, error) {
	node, exists := d.fs.children[name]
	if !exists {
		return nil, fmt.Errorf("(fakefs) %w: %q", schema.ErrNotFound, name)
	}

	return node, nil
}

func (d *fakeDirOps) Create(_ *Node, name string, mode uint32) (*Node, error) {
	node := d.fs.addFile(name, nil)
	node.Mode = mode
	node.Mount = d.fs.root.Mount

	return node, nil
}

func (d *fakeDirOps) Mkdir(_ *Node, _ string, _ uint32) (*Node, error) {
	return nil, schema.ErrNotSupported
}

func (d *fakeDirOps) Unlink(_ *Node, name string) error {
	delete(d.fs.children, name)

	return nil
}

func (d *fakeDirOps) Rmdir(_ *Node, _ string) error {
	return schema.ErrNotSupported
}

func (d *fakeDirOps) Rename(_ *Node, _ string, _ *Node, _ string) error {
	return schema.ErrNotSupported
}

func (d *fakeDirOps) ReadDir(_ *Node, _ int) (schema.DirEntry, error) {
	return schema.DirEntry{}, schema.ErrNotFound
}

type fakeFileOps struct {
	content []byte
}

func (f *fakeFileOps) Open(_ *Node, _ int) error { return nil }

func (f *fakeFileOps) Close(_ *Node) error { return nil }

func (f *fakeFileOps) Read(_ *Node, offset uint64, buf []byte) (int, error) {
	if offset >= uint64(len(f.content)) {
		return 0, nil
	}

	return copy(buf, f.content[offset:]), nil
}

func (f *fakeFileOps) Write(node *Node, offset uint64, buf []byte) (int, error) {
	needed := offset + uint64(len(buf))
	if needed > uint64(len(f.content)) {
		grown := make([]byte, needed)
		copy(grown, f.content)
		f.content = grown
	}

	copy(f.content[offset:], buf)
	node.Size = uint64(len(f.content))

	return len(buf), nil
}

func (f *fakeFileOps) Truncate(node *Node, size uint64) error {
	if size <= uint64(len(f.content)) {
		f.content = f.content[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, f.content)
		f.content = grown
	}

	node.Size = size

	return nil
}
