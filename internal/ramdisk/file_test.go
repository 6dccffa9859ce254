package ramdisk

import (
	"bytes"
	"testing"

	"github.com/nuzDop/limitless-storage/internal/schema"
	"github.com/nuzDop/limitless-storage/internal/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_Success_RoundTrip(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	content := []byte("the quick brown fox jumps over the lazy dog")

	writeFile(t, handler, "/data.txt", content)

	assert.Equal(t, content, readFile(t, handler, "/data.txt"))
}

func TestWrite_Success_SparseGapReadsZero(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)

	fd, err := handler.Open("/sparse.bin", vfs.OpenRDWR|vfs.OpenCreate, 0o644)
	require.NoError(t, err)

	_, err = handler.Seek(fd, 10_000, vfs.SeekSet)
	require.NoError(t, err)

	n, err := handler.Write(fd, []byte("tail"))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	meta, err := handler.Fstat(fd)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_004), meta.Size)

	_, err = handler.Seek(fd, 0, vfs.SeekSet)
	require.NoError(t, err)

	gap := make([]byte, 10_000)
	n, err = handler.Read(fd, gap)
	require.NoError(t, err)
	require.Equal(t, 10_000, n)
	assert.True(t, bytes.Equal(gap, make([]byte, 10_000)), "the gap must read back zero-filled")

	require.NoError(t, handler.Close(fd))
}

func TestWrite_Success_InsideExtentKeepsSize(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	writeFile(t, handler, "/data.txt", []byte("0123456789"))

	fd, err := handler.Open("/data.txt", vfs.OpenRDWR, 0)
	require.NoError(t, err)

	_, err = handler.Write(fd, []byte("abc"))
	require.NoError(t, err)

	meta, err := handler.Fstat(fd)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), meta.Size, "an interior write must not extend the file")

	require.NoError(t, handler.Close(fd))

	assert.Equal(t, []byte("abc3456789"), readFile(t, handler, "/data.txt"))
}

func TestWrite_Error_ExceedsFileSizeCap(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 64)

	fd, err := handler.Open("/data.txt", vfs.OpenRDWR|vfs.OpenCreate, 0o644)
	require.NoError(t, err)

	_, err = handler.Write(fd, make([]byte, 64))
	require.NoError(t, err, "writing exactly the cap is allowed")

	_, err = handler.Write(fd, []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrNoSpace)

	require.NoError(t, handler.Close(fd))
}

func TestTruncate_Success_ShrinkThenRegrow(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	writeFile(t, handler, "/data.txt", []byte("not for long"))

	require.NoError(t, handler.Truncate("/data.txt", 3))

	meta, err := handler.Stat("/data.txt")
	require.NoError(t, err)
	require.Equal(t, uint64(3), meta.Size)

	require.NoError(t, handler.Truncate("/data.txt", 8))

	got := readFile(t, handler, "/data.txt")
	assert.Equal(t, []byte("not\x00\x00\x00\x00\x00"), got,
		"regrown space must read back zeroed, not stale")
}

func TestTruncate_Error_ExceedsFileSizeCap(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 64)
	writeFile(t, handler, "/data.txt", []byte("abc"))

	err := handler.Truncate("/data.txt", 65)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrNoSpace)
}

func TestRead_Success_PastEndOfFile(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	writeFile(t, handler, "/data.txt", []byte("abc"))

	fd, err := handler.Open("/data.txt", vfs.OpenRead, 0)
	require.NoError(t, err)

	_, err = handler.Seek(fd, 100, vfs.SeekSet)
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, err := handler.Read(fd, buf)
	require.NoError(t, err)
	assert.Zero(t, n, "reading past end-of-file yields a zero count")

	require.NoError(t, handler.Close(fd))
}

func TestWrite_Success_TimestampsAdvance(t *testing.T) {
	t.Parallel()

	handler, _ := newMountedRamdisk(t, 0, 0)
	writeFile(t, handler, "/data.txt", []byte("v1"))

	before, err := handler.Stat("/data.txt")
	require.NoError(t, err)

	writeFile(t, handler, "/data.txt", []byte("v2"))

	after, err := handler.Stat("/data.txt")
	require.NoError(t, err)
	assert.True(t, after.ModifiedAt.After(before.ModifiedAt),
		"a rewrite must advance the modification time")
}

func TestGrow_Success_BlockIncrements(t *testing.T) {
	t.Parallel()

	rec := &record{}

	rec.grow(1)
	assert.Len(t, rec.data, blockIncrement)

	rec.size = 1
	rec.data[0] = 'x'

	rec.grow(blockIncrement + 1)
	assert.Len(t, rec.data, 2*blockIncrement)
	assert.Equal(t, byte('x'), rec.data[0], "growth must preserve the logical contents")

	was := len(rec.data)
	rec.grow(16)
	assert.Len(t, rec.data, was, "a sufficient buffer is never reallocated")
}
