package vfs

import "errors"

var (
	// ErrNotMounted is an error that occurs when a path resolves to no mount,
	// i.e. before a root filesystem has been mounted.
	ErrNotMounted = errors.New("no filesystem mounted for path")

	// ErrBadHandle is an error that occurs when a file operation is given a
	// handle that is not open.
	ErrBadHandle = errors.New("bad file handle")

	// ErrHandleTableFull is an error that occurs when the open file table has
	// no free slot left.
	ErrHandleTableFull = errors.New("open file table full")

	// ErrRefUnderflow is an error that occurs when a node reference is
	// released more often than it was taken.
	ErrRefUnderflow = errors.New("node reference count underflow")

	// ErrCrossMount is an error that occurs when a rename spans two mounts,
	// which no single back-end can service.
	ErrCrossMount = errors.New("rename across mounts")
)
