// Package chip defines the interfaces common to every MCS-4/MCS-40
// chip (CPU and peripheral alike) so that the system-assembly layer
// can dispatch them uniformly.
package chip

import "github.com/mcs4/sim/bus"

// Chip is the minimal contract every MCS-4/MCS-40 part satisfies.
type Chip interface {
	// Name returns the part number, e.g. "4004" or "4001".
	Name() string
	// Reset restores the chip to its post-reset state. For ROM-backed
	// parts this preserves loaded contents; for RAM-backed parts it
	// clears them.
	Reset()
}

// BusParticipant is implemented by chips that react to bus phases
// (every chip except the purely behavioral peripheral stubs, which
// implement Chip alone).
type BusParticipant interface {
	Chip
	// TickBus drives or samples the bus for the given phase. Control
	// carries SYNC/CM-ROM/CM-RAM/TEST/RESET and (for the 4040 family)
	// STP/STOP/INT, plus the CPU-published OperationKind.
	TickBus(phase bus.BusCycle, b *bus.DataBus, ctrl *bus.ControlSignals)
}

// Debugger is implemented by chips that can render a one-line state
// summary for diagnostic logging, mirroring jmchacon/6502's Debug()
// convention of gating a pia6532/tia-style per-tick log line behind a
// Debug bool on the chip's ...Def.
type Debugger interface {
	Debug() string
}
