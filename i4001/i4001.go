// Package i4001 implements the Intel 4001: a 256-byte mask ROM with a
// 4-bit bidirectional I/O port, selected by a 4-bit CM-ROM chip id.
package i4001

import (
	"fmt"

	"github.com/mcs4/sim/bus"
)

// ChipDef configures an I4001 at construction.
type ChipDef struct {
	// ChipID is this chip's CM-ROM bank selector, 0-15.
	ChipID uint8
	// Debug, if true, causes Debug() to return a non-empty summary
	// each tick.
	Debug bool
}

// Chip is an Intel 4001 ROM+I/O part.
type Chip struct {
	chipID uint8
	rom    [256]byte
	input  uint8 // input latch, driven by the system between ticks
	output uint8 // output port latch

	latchLow   uint8
	latchHigh  uint8
	address    uint8
	selected   bool // instruction-fetch selection, via CM-ROM at A3
	ioSelected bool // port selection, via the latched SRC address
	driverID   int
	debug      bool
}

// Init validates def and returns a powered-on I4001.
func Init(def *ChipDef) (*Chip, error) {
	if def.ChipID > 15 {
		return nil, fmt.Errorf("chip id %d out of range [0,15]", def.ChipID)
	}
	return &Chip{chipID: def.ChipID, debug: def.Debug}, nil
}

// Name implements chip.Chip.
func (c *Chip) Name() string { return "4001" }

// Reset clears the I/O latches but preserves ROM contents.
func (c *Chip) Reset() {
	c.input = 0
	c.output = 0
	c.latchLow = 0
	c.latchHigh = 0
	c.address = 0
	c.selected = false
}

// Load copies data into ROM starting at offset 0, clipping to 256 bytes.
func (c *Chip) Load(data []byte) {
	n := len(data)
	if n > len(c.rom) {
		n = len(c.rom)
	}
	copy(c.rom[:n], data[:n])
}

// LoadAt copies data into ROM starting at addr, clipping at the chip
// boundary.
func (c *Chip) LoadAt(addr uint8, data []byte) {
	for i, b := range data {
		a := int(addr) + i
		if a >= len(c.rom) {
			break
		}
		c.rom[a] = b
	}
}

// ReadDirect is a back-door accessor bypassing bus timing, for tests
// and the debugger.
func (c *Chip) ReadDirect(addr uint8) uint8 { return c.rom[addr] }

// SetInput sets the external value presented on the I/O port's input
// side, sampled the next time an input-port read occurs.
func (c *Chip) SetInput(v uint8) { c.input = v & 0xF }

// Output returns the current output port latch value.
func (c *Chip) Output() uint8 { return c.output }

// ChipID returns this chip's configured CM-ROM selector.
func (c *Chip) ChipID() uint8 { return c.chipID }

// AttachDriver records the bus driver token this chip was assigned so
// TickBus can drive/release it; called once by the system assembler.
func (c *Chip) AttachDriver(id int) { c.driverID = id }

// TickBus implements chip.BusParticipant, following the per-phase
// behavior: A1/A2 latch the address nibbles, A3 compares CM-ROM to
// ChipID, M1/M2 drive the instruction byte when selected, X2 latches
// an output-port write, X3 drives an input-port read.
func (c *Chip) TickBus(phase bus.BusCycle, b *bus.DataBus, ctrl *bus.ControlSignals) {
	switch phase {
	case bus.A1:
		c.latchLow = b.Read() & 0xF
	case bus.A2:
		c.latchHigh = b.Read() & 0xF
	case bus.A3:
		c.address = (c.latchHigh << 4) | c.latchLow
		rom, ok := ctrl.SelectedROM()
		c.selected = ok && rom == c.chipID
	case bus.M1:
		if c.selected {
			b.Drive(c.driverID, c.rom[c.address]&0xF)
		}
	case bus.M2:
		if c.selected {
			b.Drive(c.driverID, (c.rom[c.address]>>4)&0xF)
		} else {
			b.Release(c.driverID)
		}
	case bus.X1:
		// The M1/M2 fetch-read duty, if any, is done; release now so a
		// selected chip's stale instruction-byte nibble doesn't linger
		// on the bus through X2, where it would contend with the CPU
		// driving a RAM/port write.
		b.Release(c.driverID)
		c.ioSelected = ctrl.SRCValid && ctrl.ROMIOChipSel() == c.chipID
	case bus.X2:
		if c.ioSelected && ctrl.Operation == bus.OpPortWrite {
			c.output = b.Read() & 0xF
		}
	case bus.X3:
		if c.ioSelected && ctrl.Operation == bus.OpPortRead {
			b.Drive(c.driverID, c.input)
		} else {
			b.Release(c.driverID)
		}
	}
}

// Debug renders a one-line state summary when debug logging is enabled.
func (c *Chip) Debug() string {
	if !c.debug {
		return ""
	}
	return fmt.Sprintf("4001[%d] addr=%02X selected=%v out=%X in=%X", c.chipID, c.address, c.selected, c.output, c.input)
}
