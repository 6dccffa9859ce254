package ata

import (
	"fmt"

	"github.com/nuzDop/limitless-storage/internal/schema"
)

// ReadSectors reads count sectors starting at lba into buf. The addressing
// mode is selected per request: the 28-bit path only when both the highest
// addressed sector and the count fit its register encoding and the device did
// not advertise the 48-bit command set. The two paths yield byte-identical
// results; the selection is a correctness requirement, since the 28-bit
// registers overflow silently above their bit width.
func (h *Handler) ReadSectors(dev *Device, lba uint64, count uint32, buf []byte) error {
	if err := checkTransfer(dev, lba, count, buf); err != nil {
		h.counters.readErrors.Add(1)

		return err
	}

	dev.acquire()
	defer dev.release()

	var err error
	if needsLBA48(dev, lba, count) {
		err = h.transfer(dev, lba, count, buf, cmdReadSectorsExt, true, false)
	} else {
		err = h.transfer(dev, lba, count, buf, cmdReadSectors, false, false)
	}

	if err != nil {
		h.counters.readErrors.Add(1)

		return err
	}

	h.counters.reads.Add(1)
	h.counters.bytesRead.Add(uint64(count) * SectorSize)

	return nil
}

// WriteSectors writes count sectors from buf starting at lba. Out-of-range
// writes are rejected up front, never silently truncated. After the data
// transfer the device cache is flushed and its completion awaited, so a
// returned nil means the sectors reached the medium.
func (h *Handler) WriteSectors(dev *Device, lba uint64, count uint32, buf []byte) error {
	if err := checkTransfer(dev, lba, count, buf); err != nil {
		h.counters.writeErrors.Add(1)

		return err
	}

	dev.acquire()
	defer dev.release()

	use48 := needsLBA48(dev, lba, count)

	var err error
	if use48 {
		err = h.transfer(dev, lba, count, buf, cmdWriteSectorsExt, true, true)
	} else {
		err = h.transfer(dev, lba, count, buf, cmdWriteSectors, false, true)
	}

	if err == nil {
		err = h.flushCacheLocked(dev)
	}

	if err != nil {
		h.counters.writeErrors.Add(1)

		return err
	}

	h.counters.writes.Add(1)
	h.counters.bytesWritten.Add(uint64(count) * SectorSize)

	return nil
}

// FlushCache issues a standalone cache flush against the device and waits for
// its completion. It is exposed for explicit durability points and invoked on
// every device during shutdown.
func (h *Handler) FlushCache(dev *Device) error {
	if dev == nil {
		return fmt.Errorf("(ata) %w: %w", schema.ErrInvalidArgument, ErrNoSuchDevice)
	}

	dev.acquire()
	defer dev.release()

	return h.flushCacheLocked(dev)
}

func (h *Handler) flushCacheLocked(dev *Device) error {
	channel := dev.Channel

	// The status register reflects the selected device, so the target must
	// be selected before its readiness can be observed.
	h.bus.Out8(channel.Base+regDrive, dev.Position)
	h.settle(channel)

	if err := h.waitReady(channel); err != nil {
		return fmt.Errorf("failed to await flush readiness: %w", err)
	}

	command := uint8(cmdCacheFlush)
	if dev.LBA48 {
		command = cmdCacheFlushExt
	}

	h.bus.Out8(channel.Base+regCommand, command)
	h.settle(channel)

	if err := h.waitBusyClear(channel); err != nil {
		return fmt.Errorf("failed to await flush completion: %w", err)
	}

	return nil
}

// transfer runs one complete command sequence: drive select, readiness wait,
// address programming, command issue and the per-sector data pump.
func (h *Handler) transfer(dev *Device, lba uint64, count uint32, buf []byte, command uint8, ext, write bool) error {
	channel := dev.Channel

	// The status register reflects the selected device; detection leaves the
	// channel's last-probed slot selected, so the target must be selected
	// before its readiness can be observed.
	h.bus.Out8(channel.Base+regDrive, dev.Position|selectLBA)
	h.settle(channel)

	if err := h.waitReady(channel); err != nil {
		return fmt.Errorf("failed to await device readiness: %w", err)
	}

	if ext {
		h.programLBA48(dev, lba, count)
	} else {
		h.programLBA28(dev, lba, count)
	}

	h.bus.Out8(channel.Base+regCommand, command)
	h.settle(channel)

	for sector := range count {
		if err := h.waitData(channel); err != nil {
			return fmt.Errorf("failed to await data readiness (sector %d of %d): %w",
				sector+1, count, err)
		}

		offset := int(sector) * SectorSize
		if write {
			h.pumpOut(channel, buf[offset:offset+SectorSize])
		} else {
			h.pumpIn(channel, buf[offset:offset+SectorSize])
		}

		h.settle(channel)
	}

	return nil
}

// programLBA28 selects the drive and programs the 28-bit address registers.
// The top four address bits ride in the drive select register.
func (h *Handler) programLBA28(dev *Device, lba uint64, count uint32) {
	channel := dev.Channel

	h.bus.Out8(channel.Base+regDrive, dev.Position|selectLBA|uint8(lba>>24)&0x0F)
	h.settle(channel)

	h.bus.Out8(channel.Base+regSectorCount, uint8(count))
	h.settle(channel)
	h.bus.Out8(channel.Base+regLBALow, uint8(lba))
	h.settle(channel)
	h.bus.Out8(channel.Base+regLBAMid, uint8(lba>>8))
	h.settle(channel)
	h.bus.Out8(channel.Base+regLBAHigh, uint8(lba>>16))
	h.settle(channel)
}

// programLBA48 selects the drive and programs the 48-bit address registers.
// The hardware multiplexes two values per physical register through an
// internal latch, so each register is written twice: high byte first, then
// low byte. This ordering is load-bearing and must not be rearranged.
func (h *Handler) programLBA48(dev *Device, lba uint64, count uint32) {
	channel := dev.Channel

	h.bus.Out8(channel.Base+regDrive, dev.Position|selectLBA)
	h.settle(channel)

	h.bus.Out8(channel.Base+regSectorCount, uint8(count>>8))
	h.settle(channel)
	h.bus.Out8(channel.Base+regLBALow, uint8(lba>>24))
	h.settle(channel)
	h.bus.Out8(channel.Base+regLBAMid, uint8(lba>>32))
	h.settle(channel)
	h.bus.Out8(channel.Base+regLBAHigh, uint8(lba>>40))
	h.settle(channel)

	h.bus.Out8(channel.Base+regSectorCount, uint8(count))
	h.settle(channel)
	h.bus.Out8(channel.Base+regLBALow, uint8(lba))
	h.settle(channel)
	h.bus.Out8(channel.Base+regLBAMid, uint8(lba>>8))
	h.settle(channel)
	h.bus.Out8(channel.Base+regLBAHigh, uint8(lba>>16))
	h.settle(channel)
}

// pumpIn moves one sector from the data port into buf, one word at a time.
func (h *Handler) pumpIn(channel Channel, buf []byte) {
	for i := range wordsPerSector {
		word := h.bus.In16(channel.Base + regData)
		buf[i*2] = uint8(word)
		buf[i*2+1] = uint8(word >> 8)
	}
}

// pumpOut moves one sector from buf through the data port, one word at a time.
func (h *Handler) pumpOut(channel Channel, buf []byte) {
	for i := range wordsPerSector {
		word := uint16(buf[i*2]) | uint16(buf[i*2+1])<<8
		h.bus.Out16(channel.Base+regData, word)
	}
}

// needsLBA48 decides the addressing mode for one request.
func needsLBA48(dev *Device, lba uint64, count uint32) bool {
	return lba > lba28Max || count > lba28MaxCount || dev.LBA48
}

// checkTransfer validates a request against the device's known geometry.
func checkTransfer(dev *Device, lba uint64, count uint32, buf []byte) error {
	if dev == nil {
		return fmt.Errorf("(ata) %w: %w", schema.ErrInvalidArgument, ErrNoSuchDevice)
	}

	if count == 0 {
		return fmt.Errorf("(ata) %w: zero sector count", schema.ErrInvalidArgument)
	}

	// The 48-bit count register holds 16 bits; anything above would truncate
	// silently into a shorter transfer.
	if count > lba48MaxCount {
		return fmt.Errorf("(ata) %w: %w (count %d limit %d)",
			schema.ErrInvalidArgument, ErrCountTooLarge, count, lba48MaxCount)
	}

	if lba+uint64(count) > dev.Sectors || lba+uint64(count) < lba {
		return fmt.Errorf("(ata) %w: %w (lba %d count %d sectors %d)",
			schema.ErrInvalidArgument, ErrOutOfRange, lba, count, dev.Sectors)
	}

	if uint64(len(buf)) < uint64(count)*SectorSize {
		return fmt.Errorf("(ata) %w: %w (have %d want %d)",
			schema.ErrInvalidArgument, ErrShortBuffer, len(buf), uint64(count)*SectorSize)
	}

	return nil
}
