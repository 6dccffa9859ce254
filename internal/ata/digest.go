package ata

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// digestChunkSectors is how many sectors one digest read pulls at a time.
const digestChunkSectors = 128

// MediaDigest reads every sector of the device through the regular driver
// path and returns the hex-encoded BLAKE3 digest of the medium. It backs the
// verification tooling and doubles as the equality oracle for the two
// addressing modes: the digest of a medium must not depend on which path the
// sectors were read through.
func (h *Handler) MediaDigest(dev *Device) (string, error) {
	if dev == nil {
		return "", fmt.Errorf("(ata) %w: %w", errInvalidDigestTarget, ErrNoSuchDevice)
	}

	hasher := blake3.New()
	buf := make([]byte, digestChunkSectors*SectorSize)

	for lba := uint64(0); lba < dev.Sectors; lba += digestChunkSectors {
		count := uint32(digestChunkSectors)
		if remaining := dev.Sectors - lba; remaining < digestChunkSectors {
			count = uint32(remaining)
		}

		if err := h.ReadSectors(dev, lba, count, buf); err != nil {
			return "", fmt.Errorf("failed to read sectors for digest: %w", err)
		}

		if _, err := hasher.Write(buf[:uint64(count)*SectorSize]); err != nil {
			return "", fmt.Errorf("failed to hash sectors: %w", err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
