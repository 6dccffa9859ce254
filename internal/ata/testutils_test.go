package ata

import (
	"bytes"
	"time"
)

// memImages is a unixProvider fake backing image file descriptors with plain
// byte slices.
type memImages struct {
	disks map[int][]byte
	syncs int
}

func newMemImages() *memImages {
	return &memImages{disks: make(map[int][]byte)}
}

func (m *memImages) addDisk(fd int, sectors uint64) []byte {
	disk := make([]byte, sectors*SectorSize)
	m.disks[fd] = disk

	return disk
}

func (m *memImages) Pread(fd int, p []byte, offset int64) (int, error) {
	disk := m.disks[fd]
	n := copy(p, disk[offset:])

	return n, nil
}

func (m *memImages) Pwrite(fd int, p []byte, offset int64) (int, error) {
	disk := m.disks[fd]
	n := copy(disk[offset:], p)

	return n, nil
}

func (m *memImages) Fsync(fd int) error {
	m.syncs++

	return nil
}

// fakeClock advances a fixed step on every observation, so deadline-bounded
// polls terminate without wall-clock waiting.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0), step: time.Millisecond}
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)

	return c.now
}

// patternSectors fills count sectors with a deterministic, offset-dependent
// byte pattern starting at the given sector index.
func patternSectors(start uint64, count uint32) []byte {
	buf := make([]byte, uint64(count)*SectorSize)
	for i := range buf {
		buf[i] = byte((start*SectorSize + uint64(i)) % 251)
	}

	return buf
}

func sectorsEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}
