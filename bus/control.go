package bus

// OperationKind is published by the CPU at its X1 decode phase so that
// memory chips can decide what to do with the bus during the following
// X-phases, instead of approximating it from ROM/RAM chip selection.
// This is the fix for the "is_io_write/is_io_read must be tracked by
// the CPU" requirement: selection alone cannot distinguish a RAM write
// from a port write from a status write.
type OperationKind int

const (
	OpNone OperationKind = iota
	OpROMFetch
	OpRAMWrite
	OpRAMRead
	OpPortWrite
	OpPortRead
	OpStatusWrite
	OpStatusRead
)

// ControlSignals carries the MCS-4/MCS-40 control lines: SYNC, the
// 4-bit CM-ROM and CM-RAM selectors, TEST (active low), RESET, and the
// 4040-only STP/STOP/INT lines.
type ControlSignals struct {
	Sync  bool
	CMROM [4]bool
	CMRAM [4]bool
	Test  bool // active low: true == deasserted
	Reset bool

	// 4040 only.
	Has4040Lines bool
	Stop         bool
	Interrupt    bool

	// Operation is the current instruction's bus-operation kind,
	// published by the CPU during X1 and consulted by memory chips
	// during X2/X3.
	Operation OperationKind

	// SRCHigh/SRCLow latch the address byte published by the CPU's SRC
	// instruction. SRCHigh carries the chip-select nibble: ROM chips
	// (16 possible) compare it whole against their chip id for
	// WRR/RDR; RAM chips only have 4 possible chips per bank, so they
	// split it into a 2-bit chip-within-bank selector and a 2-bit
	// register selector. SRCLow is the RAM character index. The latch
	// persists across instructions until the next SRC, matching real
	// hardware: RAM/port instructions following SRC reuse its address.
	SRCValid bool
	SRCHigh  uint8
	SRCLow   uint8

	// StatusIndex selects which of a RAM register's 4 status nibbles
	// the WRx/RDx opcode family addresses, published by the CPU
	// alongside Operation.
	StatusIndex uint8

	selectedROM uint8
	romValid    bool
	selectedRAM uint8
	ramValid    bool
}

// NewMCS4ControlSignals returns control lines initialized for a 4004
// based system (TEST deasserted, no STP/STOP/INT lines).
func NewMCS4ControlSignals() *ControlSignals {
	return &ControlSignals{Test: true}
}

// NewMCS40ControlSignals returns control lines initialized for a 4040
// based system, which additionally carries STP/STOP/INT.
func NewMCS40ControlSignals() *ControlSignals {
	return &ControlSignals{Test: true, Has4040Lines: true}
}

// AssertSync raises SYNC (called at bus phase A1).
func (c *ControlSignals) AssertSync() { c.Sync = true }

// DeassertSync lowers SYNC (called at bus phase A2).
func (c *ControlSignals) DeassertSync() { c.Sync = false }

// LatchSRC records the address byte from register pair p, published by
// the CPU when it executes SRC.
func (c *ControlSignals) LatchSRC(high, low uint8) {
	c.SRCValid = true
	c.SRCHigh = high & 0xF
	c.SRCLow = low & 0xF
}

// ROMIOChipSel returns the chip-select value ROM chips compare against
// their own chip id for WRR/RDR.
func (c *ControlSignals) ROMIOChipSel() uint8 { return c.SRCHigh }

// RAMChipSel returns the 2-bit chip-within-bank selector RAM chips
// compare against their own chip id.
func (c *ControlSignals) RAMChipSel() uint8 { return (c.SRCHigh >> 2) & 0x3 }

// RAMReg returns the 2-bit register selector within a selected RAM chip.
func (c *ControlSignals) RAMReg() uint8 { return c.SRCHigh & 0x3 }

// RAMChar returns the 4-bit character selector within a selected RAM
// register.
func (c *ControlSignals) RAMChar() uint8 { return c.SRCLow & 0xF }

// selectNibble renders a bank id (0-15) into a 4-bit selector array.
func selectNibble(bank uint8) [4]bool {
	var n [4]bool
	for i := range n {
		n[i] = bank&(1<<uint(i)) != 0
	}
	return n
}

// SelectROM asserts CM-ROM for the given bank (0-15).
func (c *ControlSignals) SelectROM(bank uint8) {
	c.CMROM = selectNibble(bank)
	c.selectedROM = bank
	c.romValid = true
}

// DeselectROM clears CM-ROM.
func (c *ControlSignals) DeselectROM() {
	c.CMROM = [4]bool{}
	c.romValid = false
}

// SelectRAM asserts CM-RAM for the given bank (0-3).
func (c *ControlSignals) SelectRAM(bank uint8) {
	c.CMRAM = selectNibble(bank)
	c.selectedRAM = bank
	c.ramValid = true
}

// DeselectRAM clears CM-RAM.
func (c *ControlSignals) DeselectRAM() {
	c.CMRAM = [4]bool{}
	c.ramValid = false
}

// SelectedROM returns the currently selected ROM bank and whether one
// is selected at all.
func (c *ControlSignals) SelectedROM() (uint8, bool) { return c.selectedROM, c.romValid }

// SelectedRAM returns the currently selected RAM bank and whether one
// is selected at all.
func (c *ControlSignals) SelectedRAM() (uint8, bool) { return c.selectedRAM, c.ramValid }

// TestActive reports whether the active-low TEST pin is asserted.
func (c *ControlSignals) TestActive() bool { return !c.Test }

// InReset reports whether RESET is currently asserted.
func (c *ControlSignals) InReset() bool { return c.Reset }

// AssertReset raises RESET.
func (c *ControlSignals) AssertReset() { c.Reset = true }

// DeassertReset lowers RESET.
func (c *ControlSignals) DeassertReset() { c.Reset = false }

// InterruptPending reports the 4040 INT line.
func (c *ControlSignals) InterruptPending() bool { return c.Has4040Lines && c.Interrupt }

// StopRequested reports the 4040 STP line.
func (c *ControlSignals) StopRequested() bool { return c.Has4040Lines && c.Stop }

// CMROMNibble packs the CM-ROM selector into a 4-bit value.
func (c *ControlSignals) CMROMNibble() uint8 {
	return packNibble(c.CMROM)
}

// CMRAMNibble packs the CM-RAM selector into a 4-bit value.
func (c *ControlSignals) CMRAMNibble() uint8 {
	return packNibble(c.CMRAM)
}

func packNibble(bits [4]bool) uint8 {
	var v uint8
	for i, b := range bits {
		if b {
			v |= 1 << uint(i)
		}
	}
	return v
}
