// Package ata implements the block device driver. It enumerates the two fixed
// drive channels, performs device identification and exposes sector-granular
// read, write and cache-flush primitives over the legacy register-level
// protocol, in both its 28-bit and 48-bit addressing modes.
package ata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nuzDop/limitless-storage/internal/schema"
)

// DefaultTimeout bounds every status poll when the configuration does not
// override it.
const DefaultTimeout = 2 * time.Second

// Handler is the principal implementation of the block device driver. It is
// constructed explicitly and passed by reference; there is no package-level
// driver state, so multiple instances can coexist (e.g. in tests).
type Handler struct {
	bus      PortBus
	clock    clockProvider
	channels []Channel
	timeout  time.Duration

	devices []*Device

	counters counters
}

// NewHandler returns a pointer to a new driver [Handler] operating the given
// [PortBus]. A zero timeout selects [DefaultTimeout].
func NewHandler(bus PortBus, clock clockProvider, channels []Channel, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Handler{
		bus:      bus,
		clock:    clock,
		channels: channels,
		timeout:  timeout,
	}
}

// Init scans all channels and drive selects for devices and identifies every
// one that responds. Slots that stay empty or hold unsupported
// packet-interface devices are skipped; neither is an error.
func (h *Handler) Init(ctx context.Context) error {
	for _, channel := range h.channels {
		for _, position := range []uint8{selectMaster, selectSlave} {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("(ata) %w", err)
			}

			if len(h.devices) >= MaxDevices {
				slog.Warn("Device slot table full: further drives ignored.",
					"max", MaxDevices,
				)

				return nil
			}

			dev, err := h.identifyDevice(channel, position)
			if err != nil {
				if errors.Is(err, errDeviceAbsent) {
					continue
				}

				slog.Warn("Skipped drive slot: identification failed.",
					"channel", channel.Name,
					"slave", position == selectSlave,
					"err", err,
				)

				continue
			}

			dev.ID = len(h.devices)
			h.devices = append(h.devices, dev)

			slog.Info("Detected drive.",
				"id", dev.ID,
				"channel", channel.Name,
				"slave", dev.IsSlave(),
				"model", dev.Model,
				"serial", dev.Serial,
				"firmware", dev.Firmware,
				"sectors", dev.Sectors,
				"capacity", humanize.Bytes(dev.Capacity()),
				"lba48", dev.LBA48,
				"dma", dev.DMA,
			)
		}
	}

	return nil
}

// Shutdown flushes the cache of every detected device. Flush failures are
// logged and do not stop the remaining devices from being flushed.
func (h *Handler) Shutdown() {
	for _, dev := range h.devices {
		if err := h.FlushCache(dev); err != nil {
			slog.Warn("Failed to flush device cache on shutdown.",
				"id", dev.ID,
				"err", err,
			)
		}
	}
}

// Device returns the device in the given slot, or false when detection left
// the slot empty.
func (h *Handler) Device(id int) (*Device, bool) {
	if id < 0 || id >= len(h.devices) {
		return nil, false
	}

	return h.devices[id], true
}

// DeviceCount returns how many devices detection populated.
func (h *Handler) DeviceCount() int {
	return len(h.devices)
}

// Devices returns all detected devices in slot order.
func (h *Handler) Devices() []*Device {
	return h.devices
}

// settle gives the device time to latch a register write before status is
// sampled again. Reading the status register four times approximates the
// 400ns the hardware needs; the sampled port sequence does not assert flags
// reliably without it.
func (h *Handler) settle(channel Channel) {
	for range 4 {
		h.bus.In8(channel.Base + regStatus)
	}
}

// waitStatus polls the status register until all bits of set are asserted and
// all bits of clear are deasserted, the device flags an error, or the
// deadline passes.
func (h *Handler) waitStatus(channel Channel, set, clear uint8) error {
	deadline := h.clock.Now().Add(h.timeout)

	for {
		status := h.bus.In8(channel.Base + regStatus)

		if status&statusERR != 0 {
			return fmt.Errorf("(ata) %w: error flag set (status 0x%02x)", schema.ErrIO, status)
		}

		if status&statusDF != 0 {
			return fmt.Errorf("(ata) %w (status 0x%02x)", ErrDriveFault, status)
		}

		if status&clear == 0 && status&set == set {
			return nil
		}

		if h.clock.Now().After(deadline) {
			return fmt.Errorf("(ata) %w: status 0x%02x (want set 0x%02x clear 0x%02x)",
				schema.ErrTimeout, status, set, clear)
		}
	}
}

// waitBusyClear waits for an in-flight command to leave the busy state.
func (h *Handler) waitBusyClear(channel Channel) error {
	return h.waitStatus(channel, 0, statusBSY)
}

// waitReady waits until the device is idle and ready to accept a command.
func (h *Handler) waitReady(channel Channel) error {
	return h.waitStatus(channel, statusRDY, statusBSY)
}

// waitData waits until the device signals data-transfer readiness.
func (h *Handler) waitData(channel Channel) error {
	return h.waitStatus(channel, statusDRQ, statusBSY)
}
