package ata

// Legacy port-I/O base addresses for the two fixed channels.
const (
	PrimaryBase  = 0x1F0
	PrimaryCtrl  = 0x3F6
	SecondaryBase = 0x170
	SecondaryCtrl = 0x376
)

// Register offsets from a channel's base address. The command and status
// registers share an offset (write vs. read), as do features and error.
const (
	regData        = 0
	regError       = 1
	regFeatures    = 1
	regSectorCount = 2
	regLBALow      = 3
	regLBAMid      = 4
	regLBAHigh     = 5
	regDrive       = 6
	regStatus      = 7
	regCommand     = 7
)

// Status register flags.
const (
	statusERR = 1 << 0
	statusDRQ = 1 << 3
	statusDF  = 1 << 5
	statusRDY = 1 << 6
	statusBSY = 1 << 7
)

// Command opcodes.
const (
	cmdReadSectors     = 0x20
	cmdReadSectorsExt  = 0x24
	cmdWriteSectors    = 0x30
	cmdWriteSectorsExt = 0x34
	cmdCacheFlush      = 0xE7
	cmdCacheFlushExt   = 0xEA
	cmdIdentifyPacket  = 0xA1
	cmdIdentify        = 0xEC
)

// Drive select register values.
const (
	selectMaster = 0xA0
	selectSlave  = 0xB0
	selectLBA    = 0x40
)

// Identify block word indices and capability bits.
const (
	idWordCapabilities = 49
	idWordLBA28Low     = 60
	idWordLBA28High    = 61
	idWordCommandSets  = 83
	idWordLBA48Base    = 100

	idSerialOffset   = 10
	idSerialWords    = 10
	idFirmwareOffset = 23
	idFirmwareWords  = 4
	idModelOffset    = 27
	idModelWords     = 20

	idCapDMA   = 1 << 8
	idCmdLBA48 = 1 << 10
)

// Signature bytes left in the LBA mid/high registers by packet-interface
// (ATAPI/SATAPI) devices after a failed IDENTIFY.
const (
	sigPacketMid   = 0x14
	sigPacketHigh  = 0xEB
	sigSPacketMid  = 0x69
	sigSPacketHigh = 0x96
)

const (
	// SectorSize is the fixed transfer granularity in bytes.
	SectorSize = 512

	// MaxDevices caps how many device slots detection will ever populate.
	MaxDevices = 8

	identifyWords = 256
	wordsPerSector = SectorSize / 2

	// lba28Max is the highest sector addressable through the 28-bit path.
	lba28Max = 0x0FFFFFFF

	// lba48MaxCount is the highest sector count encodable in the 48-bit
	// path's 16-bit count register (a programmed zero means 65536).
	lba48MaxCount = 65536

	// lba28MaxCount is the highest sector count encodable in the 28-bit
	// sector count register without wrapping to its zero encoding.
	lba28MaxCount = 255
)
