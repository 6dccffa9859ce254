package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nuzDop/limitless-storage/internal/ata"
	"golang.org/x/sys/unix"
)

// lba28Sectors is the largest sector count addressable without the 48-bit
// command set; larger images get the LBA48 flag on their emulated drive.
const lba28Sectors = 0x0FFFFFFF

// statProvider describes the descriptor-stat syscall needed to size an image.
type statProvider interface {
	Fstat(fd int, stat *unix.Stat_t) error
}

// openDiskImages opens each configured slot's backing image and describes it
// as emulated drive media, sized through the same syscall layer the bus
// reads and writes through. The returned closer releases all descriptors.
func openDiskImages(unixOps statProvider, images map[int]string) (map[int]*ata.Media, func(), error) {
	media := make(map[int]*ata.Media, len(images))
	files := make([]*os.File, 0, len(images))

	closeAll := func() {
		for _, f := range files {
			if err := f.Close(); err != nil {
				slog.Warn("Failed to close disk image.", "path", f.Name(), "err", err)
			}
		}
	}

	for slot, path := range images {
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			closeAll()

			return nil, nil, fmt.Errorf("failed to open disk image %q: %w", path, err)
		}
		files = append(files, f)

		var stat unix.Stat_t
		if err := unixOps.Fstat(int(f.Fd()), &stat); err != nil {
			closeAll()

			return nil, nil, fmt.Errorf("failed to stat disk image %q: %w", path, err)
		}

		sectors := uint64(stat.Size) / ata.SectorSize
		if sectors == 0 {
			closeAll()

			return nil, nil, fmt.Errorf("disk image %q is smaller than one sector", path)
		}

		media[slot] = &ata.Media{
			Fd:       int(f.Fd()),
			Sectors:  sectors,
			Model:    imageModelName(path),
			Serial:   fmt.Sprintf("IMG%06d", slot),
			Firmware: "1.0",
			LBA48:    sectors > lba28Sectors,
		}

		slog.Info("Attached disk image.",
			"slot", slot,
			"path", path,
			"sectors", sectors,
		)
	}

	return media, closeAll, nil
}

// imageModelName derives a drive model string from the image's file name.
func imageModelName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.ToUpper(strings.ReplaceAll(name, "-", " "))

	if name == "" {
		return "DISK IMAGE"
	}

	return name
}

// verifyMedia prints one content digest per detected drive, read back through
// the regular driver path.
func verifyMedia(ataHandler *ata.Handler) error {
	devices := ataHandler.Devices()
	if len(devices) == 0 {
		slog.Warn("No drives to verify.")

		return nil
	}

	for _, dev := range devices {
		digest, err := ataHandler.MediaDigest(dev)
		if err != nil {
			return fmt.Errorf("failed to digest ata%d: %w", dev.ID, err)
		}

		fmt.Printf("%s  ata%d (%s)\n", digest, dev.ID, dev.Model)
	}

	return nil
}
