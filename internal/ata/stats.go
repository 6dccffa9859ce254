package ata

import "sync/atomic"

// Stats is a snapshot of the driver's cumulative I/O accounting.
type Stats struct {
	Reads        uint64
	Writes       uint64
	BytesRead    uint64
	BytesWritten uint64
	ReadErrors   uint64
	WriteErrors  uint64
}

type counters struct {
	reads        atomic.Uint64
	writes       atomic.Uint64
	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
	readErrors   atomic.Uint64
	writeErrors  atomic.Uint64
}

// Stats returns a consistent-enough snapshot of the driver's counters. The
// counters are atomics so the user interface can sample them from its own
// goroutine while I/O is in flight.
func (h *Handler) Stats() Stats {
	return Stats{
		Reads:        h.counters.reads.Load(),
		Writes:       h.counters.writes.Load(),
		BytesRead:    h.counters.bytesRead.Load(),
		BytesWritten: h.counters.bytesWritten.Load(),
		ReadErrors:   h.counters.readErrors.Load(),
		WriteErrors:  h.counters.writeErrors.Load(),
	}
}
