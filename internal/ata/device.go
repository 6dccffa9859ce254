package ata

import "sync/atomic"

// Device is one detected drive. Devices are created during detection and
// persist until shutdown; they are mutated only by the I/O calls that target
// them. The exclusivity lock serializes command sequences to the same device
// while leaving other devices free to proceed.
type Device struct {
	ID       int
	Channel  Channel
	Position uint8 // selectMaster or selectSlave

	Model    string
	Serial   string
	Firmware string

	// Sectors is the total addressable sector count, preferring the 48-bit
	// identify field over the 28-bit one.
	Sectors uint64

	// LBA48 is set when the device advertises the 48-bit command set.
	LBA48 bool

	// DMA is set when the device advertises DMA capability. The driver does
	// not use DMA; the flag is surfaced for diagnostics.
	DMA bool

	busy atomic.Bool
}

// Capacity returns the device's total byte capacity.
func (d *Device) Capacity() uint64 {
	return d.Sectors * SectorSize
}

// IsSlave reports whether the device sits on the slave drive select.
func (d *Device) IsSlave() bool {
	return d.Position == selectSlave
}

// acquire takes the per-device exclusivity lock. Contenders spin; there is no
// queueing or fairness, which is acceptable under the single-actor boot
// context this driver targets.
func (d *Device) acquire() {
	for !d.busy.CompareAndSwap(false, true) {
	}
}

func (d *Device) release() {
	d.busy.Store(false)
}
