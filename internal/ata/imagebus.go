package ata

import (
	"log/slog"
)

type unixProvider interface {
	Pread(fd int, p []byte, offset int64) (int, error)
	Pwrite(fd int, p []byte, offset int64) (int, error)
	Fsync(fd int) error
}

// Media is the backing description for one emulated drive slot of an
// [ImageBus]. The file descriptor refers to a flat disk image; sector n lives
// at byte offset n*512.
type Media struct {
	Fd       int
	Sectors  uint64
	Model    string
	Serial   string
	Firmware string
	LBA48    bool
	DMA      bool

	// Packet marks the media as a packet-interface device, which aborts
	// identification with the ATAPI signature.
	Packet bool

	// FailReads and FailWrites force the error flag during the respective
	// command, for fault-path exercise.
	FailReads  bool
	FailWrites bool

	// Unresponsive keeps the busy flag asserted forever after a command,
	// for timeout-path exercise.
	Unresponsive bool
}

// RegWrite is one recorded register write, kept when tracing is enabled.
type RegWrite struct {
	Port  uint16
	Value uint8
}

// ImageBus emulates the two-channel register file over backing disk images,
// including the doubled 48-bit register latch, busy/ready/error status
// sequencing and identify block synthesis. It is how the driver runs hosted;
// a bare-metal port would swap it for real port I/O without touching the
// driver above it.
//
// ImageBus is not thread-safe on its own; the driver's per-device lock
// already serializes the command sequences that reach it.
type ImageBus struct {
	unixOps  unixProvider
	channels []*busChannel

	// TraceWrites records every 8-bit register write into Writes when set.
	TraceWrites bool
	Writes      []RegWrite
}

type busChannel struct {
	channel Channel
	drives  [2]*Media

	selected uint8

	// Each address register is a two-deep latch: a write shifts the current
	// value into the high-order byte slot.
	sectorCount, sectorCountHob uint8
	lbaLow, lbaLowHob           uint8
	lbaMid, lbaMidHob           uint8
	lbaHigh, lbaHighHob         uint8

	errFlag  bool
	busyFlag bool

	// In-flight PIO transfer state.
	data    []byte
	dataPos int
	writing bool
	wrLBA   uint64
	wrDone  uint32
	wrCount uint32
}

// NewImageBus returns a pointer to a new [ImageBus] over the given channels.
// Media are keyed by slot index: channel index times two, plus one for the
// slave position. Nil entries and missing keys are empty slots.
func NewImageBus(unixOps unixProvider, channels []Channel, media map[int]*Media) *ImageBus {
	bus := &ImageBus{unixOps: unixOps}

	for i, channel := range channels {
		bc := &busChannel{channel: channel, selected: selectMaster}
		bc.drives[0] = media[i*2]
		bc.drives[1] = media[i*2+1]
		bus.channels = append(bus.channels, bc)
	}

	return bus
}

// ResetTrace clears the recorded register writes.
func (b *ImageBus) ResetTrace() {
	b.Writes = nil
}

func (b *ImageBus) channelFor(port uint16) (*busChannel, uint16) {
	for _, bc := range b.channels {
		if port >= bc.channel.Base && port < bc.channel.Base+8 {
			return bc, port - bc.channel.Base
		}
		if port == bc.channel.Ctrl {
			return bc, regStatus
		}
	}

	return nil, 0
}

func (bc *busChannel) drive() *Media {
	if bc.selected&0x10 != 0 {
		return bc.drives[1]
	}

	return bc.drives[0]
}

// In8 reads one byte from the emulated register file.
func (b *ImageBus) In8(port uint16) uint8 {
	bc, reg := b.channelFor(port)
	if bc == nil {
		return 0
	}

	switch reg {
	case regStatus:
		return bc.status()
	case regError:
		if bc.errFlag {
			return 0x04 // command aborted
		}

		return 0
	case regLBAMid:
		return bc.lbaMid
	case regLBAHigh:
		return bc.lbaHigh
	case regSectorCount:
		return bc.sectorCount
	case regLBALow:
		return bc.lbaLow
	case regDrive:
		return bc.selected
	default:
		return 0
	}
}

func (bc *busChannel) status() uint8 {
	drive := bc.drive()
	if drive == nil {
		return 0
	}

	var status uint8 = statusRDY

	if bc.busyFlag {
		return statusBSY
	}

	if bc.errFlag {
		status |= statusERR
	}

	if len(bc.data) > 0 && bc.dataPos < len(bc.data) {
		status |= statusDRQ
	}

	return status
}

// Out8 writes one byte into the emulated register file. Address registers
// shift their previous value into the high-order latch slot, mirroring the
// hardware's doubled 48-bit register set.
func (b *ImageBus) Out8(port uint16, value uint8) {
	bc, reg := b.channelFor(port)
	if bc == nil {
		return
	}

	if b.TraceWrites {
		b.Writes = append(b.Writes, RegWrite{Port: port, Value: value})
	}

	switch reg {
	case regDrive:
		bc.selected = value
	case regSectorCount:
		bc.sectorCountHob, bc.sectorCount = bc.sectorCount, value
	case regLBALow:
		bc.lbaLowHob, bc.lbaLow = bc.lbaLow, value
	case regLBAMid:
		bc.lbaMidHob, bc.lbaMid = bc.lbaMid, value
	case regLBAHigh:
		bc.lbaHighHob, bc.lbaHigh = bc.lbaHigh, value
	case regCommand:
		b.execute(bc, value)
	}
}

// In16 pops the next word of an in-flight read transfer from the data port.
func (b *ImageBus) In16(port uint16) uint16 {
	bc, reg := b.channelFor(port)
	if bc == nil || reg != regData {
		return 0
	}

	if bc.writing || bc.dataPos+2 > len(bc.data) {
		return 0
	}

	word := uint16(bc.data[bc.dataPos]) | uint16(bc.data[bc.dataPos+1])<<8
	bc.dataPos += 2

	if bc.dataPos >= len(bc.data) {
		bc.data = nil
		bc.dataPos = 0
	}

	return word
}

// Out16 pushes the next word of an in-flight write transfer through the data
// port; each completed sector is committed to the backing image immediately.
func (b *ImageBus) Out16(port uint16, value uint16) {
	bc, reg := b.channelFor(port)
	if bc == nil || reg != regData || !bc.writing {
		return
	}

	if bc.dataPos+2 > len(bc.data) {
		return
	}

	bc.data[bc.dataPos] = uint8(value)
	bc.data[bc.dataPos+1] = uint8(value >> 8)
	bc.dataPos += 2

	if bc.dataPos == len(bc.data) {
		drive := bc.drive()
		offset := int64(bc.wrLBA+uint64(bc.wrDone)) * SectorSize

		if _, err := b.unixOps.Pwrite(drive.Fd, bc.data, offset); err != nil {
			slog.Error("Image bus: failed to commit sector.", "offset", offset, "err", err)
			bc.errFlag = true
		}

		bc.wrDone++
		bc.dataPos = 0

		if bc.wrDone >= bc.wrCount {
			bc.data = nil
			bc.writing = false
		}
	}
}

func (bc *busChannel) address28() (uint64, uint32) {
	lba := uint64(bc.lbaLow) |
		uint64(bc.lbaMid)<<8 |
		uint64(bc.lbaHigh)<<16 |
		uint64(bc.selected&0x0F)<<24

	count := uint32(bc.sectorCount)
	if count == 0 {
		count = 256
	}

	return lba, count
}

func (bc *busChannel) address48() (uint64, uint32) {
	lba := uint64(bc.lbaLow) |
		uint64(bc.lbaMid)<<8 |
		uint64(bc.lbaHigh)<<16 |
		uint64(bc.lbaLowHob)<<24 |
		uint64(bc.lbaMidHob)<<32 |
		uint64(bc.lbaHighHob)<<40

	count := uint32(bc.sectorCount) | uint32(bc.sectorCountHob)<<8
	if count == 0 {
		count = 65536
	}

	return lba, count
}

func (b *ImageBus) execute(bc *busChannel, command uint8) {
	drive := bc.drive()
	if drive == nil {
		return
	}

	bc.errFlag = false

	if drive.Unresponsive {
		bc.busyFlag = true

		return
	}

	switch command {
	case cmdIdentify:
		if drive.Packet {
			bc.errFlag = true
			bc.lbaMid = sigPacketMid
			bc.lbaHigh = sigPacketHigh

			return
		}

		bc.data = synthesizeIdentify(drive)
		bc.dataPos = 0
		bc.writing = false

	case cmdReadSectors, cmdReadSectorsExt:
		lba, count := bc.address28()
		if command == cmdReadSectorsExt {
			lba, count = bc.address48()
		}

		if drive.FailReads || lba+uint64(count) > drive.Sectors {
			bc.errFlag = true

			return
		}

		buf := make([]byte, uint64(count)*SectorSize)
		if _, err := b.unixOps.Pread(drive.Fd, buf, int64(lba)*SectorSize); err != nil {
			slog.Error("Image bus: failed to read sectors.", "lba", lba, "err", err)
			bc.errFlag = true

			return
		}

		bc.data = buf
		bc.dataPos = 0
		bc.writing = false

	case cmdWriteSectors, cmdWriteSectorsExt:
		lba, count := bc.address28()
		if command == cmdWriteSectorsExt {
			lba, count = bc.address48()
		}

		if drive.FailWrites || lba+uint64(count) > drive.Sectors {
			bc.errFlag = true

			return
		}

		bc.data = make([]byte, SectorSize)
		bc.dataPos = 0
		bc.writing = true
		bc.wrLBA = lba
		bc.wrDone = 0
		bc.wrCount = count

	case cmdCacheFlush, cmdCacheFlushExt:
		if err := b.unixOps.Fsync(drive.Fd); err != nil {
			slog.Error("Image bus: failed to sync image.", "err", err)
			bc.errFlag = true
		}

	default:
		bc.errFlag = true
	}
}

// synthesizeIdentify builds the 512-byte identify block the way the hardware
// reports it: strings byte-swapped per word and space padded, the 28-bit
// sector field clamped to its addressable maximum.
func synthesizeIdentify(drive *Media) []byte {
	var words [identifyWords]uint16

	words[0] = 0x0040 // non-removable ATA device

	putIdentifyString(words[:], idSerialOffset, idSerialWords, drive.Serial)
	putIdentifyString(words[:], idFirmwareOffset, idFirmwareWords, drive.Firmware)
	putIdentifyString(words[:], idModelOffset, idModelWords, drive.Model)

	if drive.DMA {
		words[idWordCapabilities] |= idCapDMA
	}

	lba28 := drive.Sectors
	if lba28 > lba28Max {
		lba28 = lba28Max
	}
	words[idWordLBA28Low] = uint16(lba28)
	words[idWordLBA28High] = uint16(lba28 >> 16)

	if drive.LBA48 {
		words[idWordCommandSets] |= idCmdLBA48
		words[idWordLBA48Base] = uint16(drive.Sectors)
		words[idWordLBA48Base+1] = uint16(drive.Sectors >> 16)
		words[idWordLBA48Base+2] = uint16(drive.Sectors >> 32)
		words[idWordLBA48Base+3] = uint16(drive.Sectors >> 48)
	}

	buf := make([]byte, identifyWords*2)
	for i, word := range words {
		buf[i*2] = uint8(word)
		buf[i*2+1] = uint8(word >> 8)
	}

	return buf
}

// putIdentifyString stores s into the identify block with two characters per
// word, high byte first, padding the field out with spaces.
func putIdentifyString(words []uint16, offset, count int, s string) {
	padded := make([]byte, count*2)
	for i := range padded {
		padded[i] = ' '
	}
	copy(padded, s)

	for i := range count {
		words[offset+i] = uint16(padded[i*2])<<8 | uint16(padded[i*2+1])
	}
}
