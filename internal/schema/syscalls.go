package schema

import (
	"time"

	"golang.org/x/sys/unix"
)

// Unix is an implementation wrapping Unix operating system functions.
type Unix struct{}

// Pread wraps around [unix.Pread].
func (*Unix) Pread(fd int, p []byte, offset int64) (int, error) {
	return unix.Pread(fd, p, offset)
}

// Pwrite wraps around [unix.Pwrite].
func (*Unix) Pwrite(fd int, p []byte, offset int64) (int, error) {
	return unix.Pwrite(fd, p, offset)
}

// Fsync wraps around [unix.Fsync].
func (*Unix) Fsync(fd int) error {
	return unix.Fsync(fd)
}

// Fstat wraps around [unix.Fstat].
func (*Unix) Fstat(fd int, stat *unix.Stat_t) error {
	return unix.Fstat(fd, stat)
}

// SysClock is an implementation wrapping wall-clock time functions.
type SysClock struct{}

// Now wraps around [time.Now].
func (*SysClock) Now() time.Time {
	return time.Now()
}
