// Package i4040 implements the Intel 4040 CPU: a 4004-compatible core
// extended with a bank-switched 24-register file, a 7-level call
// stack, an interrupt controller, and 14 extension opcodes (HALT,
// interrupt return and enable/disable, bank/RAM-bank select, OR/AND
// with a fixed register, and read-program-memory).
package i4040

// Registers holds the 4040's 24 four-bit index registers, organized as
// two banks of 8 registers (0-7) sharing a common upper half (8-15):
// register r<8 maps to physical slot r+bank*16, while r>=8 always maps
// to the same physical slot regardless of bank. The 12-bit program
// counter and accumulator/carry live alongside, structured exactly as
// the 4004's, since the 4040 only changes which index registers are
// addressable.
type Registers struct {
	regs [24]uint8
	bank uint8 // 0 or 1
	pc   uint16
}

// mapIndex converts a logical register number (0-15) to its physical
// slot given the current bank.
func (r *Registers) mapIndex(reg uint8) uint8 {
	reg &= 0xF
	if reg < 8 {
		return reg + r.bank*16
	}
	return reg
}

// PC returns the current 12-bit program counter.
func (r *Registers) PC() uint16 { return r.pc }

// SetPC sets the program counter, masked to 12 bits.
func (r *Registers) SetPC(pc uint16) { r.pc = pc & 0xFFF }

// IncrementPC advances the program counter by one, wrapping modulo 4096.
func (r *Registers) IncrementPC() { r.pc = (r.pc + 1) & 0xFFF }

// Bank returns the currently selected register bank (0 or 1).
func (r *Registers) Bank() uint8 { return r.bank }

// SetBank selects register bank 0 or 1 (DB0/DB1).
func (r *Registers) SetBank(bank uint8) { r.bank = bank & 0x1 }

// GetR returns logical index register reg (0-15), masked to 4 bits.
func (r *Registers) GetR(reg uint8) uint8 { return r.regs[r.mapIndex(reg)] & 0xF }

// SetR sets logical index register reg (0-15) to a 4-bit value.
func (r *Registers) SetR(reg, val uint8) { r.regs[r.mapIndex(reg)] = val & 0xF }

// GetPair returns the 8-bit value of register pair p (0-7): the
// even-indexed logical register (2p) is the high nibble, the
// odd-indexed one (2p+1) is the low nibble.
func (r *Registers) GetPair(pair uint8) uint8 {
	base := (pair & 0x7) * 2
	return r.GetR(base)<<4 | r.GetR(base+1)
}

// SetPair loads register pair p from an 8-bit value.
func (r *Registers) SetPair(pair, value uint8) {
	base := (pair & 0x7) * 2
	r.SetR(base, (value>>4)&0xF)
	r.SetR(base+1, value&0xF)
}

// IncR increments a single logical register modulo 16 and reports
// whether the result wrapped to zero.
func (r *Registers) IncR(reg uint8) bool {
	v := (r.GetR(reg) + 1) & 0xF
	r.SetR(reg, v)
	return v == 0
}

// Reset clears all registers, the bank selector, and the program
// counter.
func (r *Registers) Reset() { *r = Registers{} }
