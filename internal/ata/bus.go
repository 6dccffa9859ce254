package ata

import "time"

// PortBus describes port-level I/O against the hardware register file. On a
// bare-metal build this maps to in/out instructions; hosted builds use the
// [ImageBus] emulation backed by disk image files.
type PortBus interface {
	// In8 reads one byte from the given port.
	In8(port uint16) uint8

	// Out8 writes one byte to the given port.
	Out8(port uint16, value uint8)

	// In16 reads one 16-bit word from the given port.
	In16(port uint16) uint16

	// Out16 writes one 16-bit word to the given port.
	Out16(port uint16, value uint16)
}

type clockProvider interface {
	Now() time.Time
}

// Channel is one hardware cable position with its register file addresses.
type Channel struct {
	Name string
	Base uint16
	Ctrl uint16
}

// LegacyChannels returns the two fixed legacy channels every machine of this
// class wires, in detection order.
func LegacyChannels() []Channel {
	return []Channel{
		{Name: "primary", Base: PrimaryBase, Ctrl: PrimaryCtrl},
		{Name: "secondary", Base: SecondaryBase, Ctrl: SecondaryCtrl},
	}
}
