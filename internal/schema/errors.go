package schema

import "errors"

// The storage stack reports failures as a small closed set of result kinds.
// All packages wrap these sentinels rather than defining overlapping ones, so
// that callers can match on [errors.Is] across subsystem boundaries.
var (
	// ErrInvalidArgument is an error that occurs when a caller-supplied
	// argument is out of range or otherwise malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is an error that occurs when a device, filesystem, path
	// segment or directory entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExists is an error that occurs when a name is created that already
	// exists within its scope (registry, directory, mount table).
	ErrExists = errors.New("already exists")

	// ErrNoSpace is an error that occurs when a fixed-capacity structure is
	// full or a size bound would be exceeded.
	ErrNoSpace = errors.New("out of space")

	// ErrTimeout is an error that occurs when a hardware status poll does not
	// reach the awaited state within its deadline.
	ErrTimeout = errors.New("timed out")

	// ErrIO is an error that occurs when the hardware asserts its error flag
	// or an underlying transfer fails.
	ErrIO = errors.New("input/output error")

	// ErrNotSupported is an error that occurs when a device or operation is
	// recognized but intentionally not handled (e.g. packet-interface
	// devices, cross-mount renames).
	ErrNotSupported = errors.New("not supported")

	// ErrTypeMismatch is an error that occurs when an operation is attempted
	// against a node lacking the required capability, such as reading a
	// directory as a file.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrBusy is an error that occurs when a resource is still in active use,
	// such as unmounting a filesystem with open handles.
	ErrBusy = errors.New("resource busy")
)
