// Package i4002 implements the Intel 4002: 4 registers of 16 RAM
// nibbles each, plus 4 status nibbles per register and a 4-bit output
// port, selected by a CM-RAM bank id and addressed via the CPU's SRC
// instruction.
package i4002

import (
	"fmt"

	"github.com/mcs4/sim/bus"
)

// ChipDef configures an I4002 at construction.
type ChipDef struct {
	// ChipID selects which of the (up to 4) chips within a bank this
	// is, 0-3.
	ChipID uint8
	// BankID is this chip's CM-RAM bank selector, 0-3.
	BankID uint8
	Debug  bool
}

// Chip is an Intel 4002 RAM+output part.
type Chip struct {
	chipID uint8
	bankID uint8

	ram    [4][16]uint8
	status [4][4]uint8
	output uint8

	selReg  uint8 // register index (0-3) latched at X1, for Debug/tests
	selChar uint8 // character index (0-15) latched at X1, for Debug/tests

	selected bool
	driverID int
	debug    bool
}

// Init validates def and returns a powered-on I4002.
func Init(def *ChipDef) (*Chip, error) {
	if def.ChipID > 3 {
		return nil, fmt.Errorf("chip id %d out of range [0,3]", def.ChipID)
	}
	if def.BankID > 3 {
		return nil, fmt.Errorf("bank id %d out of range [0,3]", def.BankID)
	}
	return &Chip{chipID: def.ChipID, bankID: def.BankID, debug: def.Debug}, nil
}

// Name implements chip.Chip.
func (c *Chip) Name() string { return "4002" }

// Reset clears RAM, status, and output; SRC latches are also cleared.
func (c *Chip) Reset() {
	c.ram = [4][16]uint8{}
	c.status = [4][4]uint8{}
	c.output = 0
	c.selReg = 0
	c.selChar = 0
	c.selected = false
}

// ChipID returns this chip's index within its bank.
func (c *Chip) ChipID() uint8 { return c.chipID }

// BankID returns this chip's CM-RAM bank selector.
func (c *Chip) BankID() uint8 { return c.bankID }

// AttachDriver records the bus driver token assigned to this chip.
func (c *Chip) AttachDriver(id int) { c.driverID = id }

// Output returns the current output port latch.
func (c *Chip) Output() uint8 { return c.output }

// ReadDirect is a back-door accessor bypassing bus timing.
func (c *Chip) ReadDirect(reg, char uint8) uint8 { return c.ram[reg&0x3][char&0xF] & 0xF }

// WriteDirect is a back-door mutator bypassing bus timing.
func (c *Chip) WriteDirect(reg, char, val uint8) { c.ram[reg&0x3][char&0xF] = val & 0xF }

// TickBus implements chip.BusParticipant. The 4002 takes no action
// during address/memory phases (it never drives instruction fetches);
// at X1 it latches its selection from CM-RAM, and at X2/X3 it writes
// or drives the bus according to the CPU-published OperationKind.
func (c *Chip) TickBus(phase bus.BusCycle, b *bus.DataBus, ctrl *bus.ControlSignals) {
	switch phase {
	case bus.X1:
		ram, ok := ctrl.SelectedRAM()
		c.selected = ok && ram == c.bankID && ctrl.SRCValid && ctrl.RAMChipSel() == c.chipID
		c.selReg = ctrl.RAMReg()
		c.selChar = ctrl.RAMChar()
	case bus.X2:
		if !c.selected {
			return
		}
		switch ctrl.Operation {
		case bus.OpRAMWrite:
			c.ram[c.selReg][c.selChar] = b.Read() & 0xF
		case bus.OpPortWrite:
			c.output = b.Read() & 0xF
		case bus.OpStatusWrite:
			c.status[c.selReg][ctrl.StatusIndex&0x3] = b.Read() & 0xF
		}
	case bus.X3:
		if !c.selected {
			b.Release(c.driverID)
			return
		}
		switch ctrl.Operation {
		case bus.OpRAMRead:
			b.Drive(c.driverID, c.ram[c.selReg][c.selChar]&0xF)
		case bus.OpPortRead:
			b.Drive(c.driverID, c.output)
		case bus.OpStatusRead:
			b.Drive(c.driverID, c.status[c.selReg][ctrl.StatusIndex&0x3]&0xF)
		default:
			b.Release(c.driverID)
		}
	}
}

// Debug renders a one-line state summary when debug logging is enabled.
func (c *Chip) Debug() string {
	if !c.debug {
		return ""
	}
	return fmt.Sprintf("4002[%d/%d] reg=%d char=%X selected=%v out=%X", c.bankID, c.chipID, c.selReg, c.selChar, c.selected, c.output)
}
