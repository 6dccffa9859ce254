package ramdisk

import (
	"testing"

	"github.com/nuzDop/limitless-storage/internal/schema"
	"github.com/nuzDop/limitless-storage/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMkdir_Success_Nested(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)

	require.NoError(t, handler.Mkdir("/etc", 0o755))
	require.NoError(t, handler.Mkdir("/etc/network", 0o755))

	writeFile(t, handler, "/etc/network/interfaces", []byte("lo"))

	meta, err := handler.Stat("/etc/network")
	require.NoError(t, err)
	assert.Equal(t, schema.NodeDirectory, meta.Type)

	assert.Equal(t, []byte("lo"), readFile(t, handler, "/etc/network/interfaces"))
}

func TestMkdir_Error_Duplicate(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)

	require.NoError(t, handler.Mkdir("/etc", 0o755))

	err := handler.Mkdir("/etc", 0o755)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrExists)

	writeFile(t, handler, "/file.txt", nil)

	_, err = handler.Open("/file.txt", vfs.OpenWrite|vfs.OpenCreate|vfs.OpenExcl, 0o644)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrExists, "a file and a directory share one namespace")
}

func TestReadDir_Success_StableIndexOrder(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)

	writeFile(t, handler, "/a", nil)
	writeFile(t, handler, "/b", nil)
	writeFile(t, handler, "/c", nil)

	fd, err := handler.Open("/", vfs.OpenRead, 0)
	require.NoError(t, err)

	var names []string
	for i := 0; ; i++ {
		entry, err := handler.ReadDir(fd, i)
		if err != nil {
			assert.ErrorIs(t, err, schema.ErrNotFound, "running off the end is a clean miss")

			break
		}
		names = append(names, entry.Name)
	}

	assert.Equal(t, []string{"a", "b", "c"}, names, "enumeration follows table order")

	// Unchanged directories enumerate identically on a second pass.
	entry, err := handler.ReadDir(fd, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", entry.Name)

	require.NoError(t, handler.Close(fd))
}

func TestReadDir_Success_SkipsDeletedSlots(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)

	writeFile(t, handler, "/a", nil)
	writeFile(t, handler, "/b", nil)
	writeFile(t, handler, "/c", nil)

	require.NoError(t, handler.Unlink("/b"))

	fd, err := handler.Open("/", vfs.OpenRead, 0)
	require.NoError(t, err)

	first, err := handler.ReadDir(fd, 0)
	require.NoError(t, err)
	second, err := handler.ReadDir(fd, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, []string{first.Name, second.Name})

	_, err = handler.ReadDir(fd, 2)
	assert.ErrorIs(t, err, schema.ErrNotFound)

	require.NoError(t, handler.Close(fd))
}

func TestReadDir_Error_NegativeIndex(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)

	fd, err := handler.Open("/", vfs.OpenRead, 0)
	require.NoError(t, err)

	_, err = handler.ReadDir(fd, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrInvalidArgument)

	require.NoError(t, handler.Close(fd))
}

func TestReadDir_Error_NotADirectory(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	writeFile(t, handler, "/file.txt", nil)

	fd, err := handler.Open("/file.txt", vfs.OpenRead, 0)
	require.NoError(t, err)

	_, err = handler.ReadDir(fd, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrTypeMismatch)

	require.NoError(t, handler.Close(fd))
}

func TestUnlink_Error_KindMismatch(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	require.NoError(t, handler.Mkdir("/etc", 0o755))
	writeFile(t, handler, "/file.txt", nil)

	err := handler.Unlink("/etc")
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrTypeMismatch, "directories go through rmdir")

	err = handler.Rmdir("/file.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrTypeMismatch, "files go through unlink")
}

func TestRmdir_Error_NotEmpty(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	require.NoError(t, handler.Mkdir("/etc", 0o755))
	writeFile(t, handler, "/etc/passwd", nil)

	err := handler.Rmdir("/etc")
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrBusy)

	require.NoError(t, handler.Unlink("/etc/passwd"))
	require.NoError(t, handler.Rmdir("/etc"))

	_, err = handler.Stat("/etc")
	assert.ErrorIs(t, err, schema.ErrNotFound)
}

func TestRename_Success_AcrossDirectories(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	require.NoError(t, handler.Mkdir("/old", 0o755))
	require.NoError(t, handler.Mkdir("/new", 0o755))
	writeFile(t, handler, "/old/data.txt", []byte("payload"))

	before, err := handler.Stat("/old/data.txt")
	require.NoError(t, err)

	require.NoError(t, handler.Rename("/old/data.txt", "/new/renamed.txt"))

	_, err = handler.Stat("/old/data.txt")
	assert.ErrorIs(t, err, schema.ErrNotFound)

	after, err := handler.Stat("/new/renamed.txt")
	require.NoError(t, err)
	assert.Equal(t, before.Inode, after.Inode, "rename must not change the identity")
	assert.Equal(t, []byte("payload"), readFile(t, handler, "/new/renamed.txt"))
}

func TestRename_Error_DestinationExists(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	writeFile(t, handler, "/a.txt", []byte("a"))
	writeFile(t, handler, "/b.txt", []byte("b"))

	err := handler.Rename("/a.txt", "/b.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrExists)
}

func TestRename_Success_SamePathNoOp(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	writeFile(t, handler, "/a.txt", []byte("a"))

	require.NoError(t, handler.Rename("/a.txt", "/a.txt"))
	assert.Equal(t, []byte("a"), readFile(t, handler, "/a.txt"))
}

func TestRename_Error_IntoOwnSubtree(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	require.NoError(t, handler.Mkdir("/a", 0o755))
	require.NoError(t, handler.Mkdir("/a/b", 0o755))
	writeFile(t, handler, "/a/b/data.txt", []byte("payload"))

	// Under a direct child and under a deeper descendant; both would
	// disconnect the subtree from the root.
	for _, dest := range []string{"/a/c", "/a/b/c"} {
		err := handler.Rename("/a", dest)
		require.Error(t, err, "moving a directory under itself (%q) must fail", dest)
		assert.ErrorIs(t, err, schema.ErrInvalidArgument)
	}

	// The subtree must still be fully reachable afterwards.
	assert.Equal(t, []byte("payload"), readFile(t, handler, "/a/b/data.txt"))
}

func TestValidName_Error_Rejections(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", ".", "..", "a/b", "nul\x00byte"} {
		err := validName(name)
		require.Error(t, err, "name %q must be rejected", name)
		assert.ErrorIs(t, err, schema.ErrInvalidArgument)
	}

	assert.NoError(t, validName("regular-name.txt"))
}
