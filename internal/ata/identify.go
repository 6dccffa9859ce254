package ata

import (
	"fmt"
	"strings"

	"github.com/nuzDop/limitless-storage/internal/schema"
)

// identifyDevice performs the identification exchange against one drive slot
// and returns the populated [Device]. An empty slot returns [errDeviceAbsent];
// a packet-interface device returns [schema.ErrNotSupported].
func (h *Handler) identifyDevice(channel Channel, position uint8) (*Device, error) {
	h.bus.Out8(channel.Base+regDrive, position)
	h.settle(channel)

	// A floating bus reads back all zeroes; there is nothing on this slot.
	if h.bus.In8(channel.Base+regStatus) == 0 {
		return nil, errDeviceAbsent
	}

	h.bus.Out8(channel.Base+regSectorCount, 0)
	h.bus.Out8(channel.Base+regLBALow, 0)
	h.bus.Out8(channel.Base+regLBAMid, 0)
	h.bus.Out8(channel.Base+regLBAHigh, 0)
	h.bus.Out8(channel.Base+regCommand, cmdIdentify)
	h.settle(channel)

	if err := h.waitBusyClear(channel); err != nil {
		// Packet-interface devices abort IDENTIFY and leave their signature
		// in the LBA mid/high registers instead.
		mid := h.bus.In8(channel.Base + regLBAMid)
		high := h.bus.In8(channel.Base + regLBAHigh)

		if (mid == sigPacketMid && high == sigPacketHigh) ||
			(mid == sigSPacketMid && high == sigSPacketHigh) {
			return nil, fmt.Errorf("(ata) packet-interface device: %w", schema.ErrNotSupported)
		}

		return nil, fmt.Errorf("failed to identify drive: %w", err)
	}

	if err := h.waitData(channel); err != nil {
		return nil, fmt.Errorf("failed to await identify data: %w", err)
	}

	var raw [identifyWords]uint16
	for i := range raw {
		raw[i] = h.bus.In16(channel.Base + regData)
	}

	dev := parseIdentify(raw)
	dev.Channel = channel
	dev.Position = position

	return dev, nil
}

// parseIdentify derives the device description from a raw 256-word identify
// block.
func parseIdentify(raw [identifyWords]uint16) *Device {
	dev := &Device{
		Serial:   identifyString(raw[:], idSerialOffset, idSerialWords),
		Firmware: identifyString(raw[:], idFirmwareOffset, idFirmwareWords),
		Model:    identifyString(raw[:], idModelOffset, idModelWords),
		DMA:      raw[idWordCapabilities]&idCapDMA != 0,
	}

	if raw[idWordCommandSets]&idCmdLBA48 != 0 {
		sectors := uint64(raw[idWordLBA48Base]) |
			uint64(raw[idWordLBA48Base+1])<<16 |
			uint64(raw[idWordLBA48Base+2])<<32 |
			uint64(raw[idWordLBA48Base+3])<<48

		if sectors != 0 {
			dev.LBA48 = true
			dev.Sectors = sectors

			return dev
		}
	}

	dev.Sectors = uint64(raw[idWordLBA28Low]) | uint64(raw[idWordLBA28High])<<16

	return dev
}

// identifyString extracts a fixed-width identify string. The hardware stores
// two characters per word with the bytes swapped, padded out with trailing
// spaces; both are undone here.
func identifyString(raw []uint16, offset, words int) string {
	buf := make([]byte, 0, words*2)

	for _, word := range raw[offset : offset+words] {
		buf = append(buf, byte(word>>8), byte(word))
	}

	return strings.TrimRight(string(buf), " \x00")
}
