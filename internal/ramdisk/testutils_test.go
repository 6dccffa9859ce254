package ramdisk

import (
	"testing"
	"time"

	"github.com/nuzDop/limitless-storage/internal/vfs"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out strictly increasing instants so timestamp updates are
// observable without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Millisecond)

	return c.now
}

// newMountedRamdisk registers a ramdisk of the given limits on a fresh VFS and
// mounts it at the root.
func newMountedRamdisk(t *testing.T, capacity int, maxFileSize uint64) (*vfs.Handler, *Type) {
	t.Helper()

	rd := New(&fakeClock{now: time.Unix(0, 0)}, capacity, maxFileSize)

	handler := vfs.NewHandler(0)
	require.NoError(t, rd.Register(handler))
	require.NoError(t, handler.Mount("mem0", "/", TypeName, 0))

	return handler, rd
}

// writeFile creates (or rewrites) path with the given content through the
// regular call surface and closes the handle again.
func writeFile(t *testing.T, handler *vfs.Handler, path string, content []byte) {
	t.Helper()

	fd, err := handler.Open(path, vfs.OpenRDWR|vfs.OpenCreate|vfs.OpenTrunc, 0o644)
	require.NoError(t, err)

	n, err := handler.Write(fd, content)
	require.NoError(t, err)
	require.Equal(t, len(content), n)

	require.NoError(t, handler.Close(fd))
}

// readFile reads path back in full.
func readFile(t *testing.T, handler *vfs.Handler, path string) []byte {
	t.Helper()

	fd, err := handler.Open(path, vfs.OpenRead, 0)
	require.NoError(t, err)

	meta, err := handler.Fstat(fd)
	require.NoError(t, err)

	buf := make([]byte, meta.Size)
	n, err := handler.Read(fd, buf)
	require.NoError(t, err)

	require.NoError(t, handler.Close(fd))

	return buf[:n]
}
