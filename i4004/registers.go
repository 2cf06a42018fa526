// Package i4004 implements the Intel 4004 CPU: its 16x4-bit register
// file, 3-level circular call stack, ALU, two-byte instruction
// decoder, and 8-phase bus execution core.
package i4004

// Registers holds the 4004's 16 four-bit index registers, aliased in
// adjacent pairs P0..P7 (even index = high nibble), its 12-bit program
// counter, and its 3-entry circular call stack.
type Registers struct {
	index [16]uint8
	pc    uint16
	stack [3]uint16
	sp    uint8
}

// PC returns the current 12-bit program counter.
func (r *Registers) PC() uint16 { return r.pc }

// SetPC sets the program counter, masked to 12 bits.
func (r *Registers) SetPC(pc uint16) { r.pc = pc & 0xFFF }

// IncrementPC advances the program counter by one, wrapping modulo 4096.
func (r *Registers) IncrementPC() { r.pc = (r.pc + 1) & 0xFFF }

// GetR returns index register r (0-15), masked to 4 bits.
func (r *Registers) GetR(reg uint8) uint8 { return r.index[reg&0xF] & 0xF }

// SetR sets index register r (0-15) to a 4-bit value.
func (r *Registers) SetR(reg, val uint8) { r.index[reg&0xF] = val & 0xF }

// GetPair returns the 8-bit value of register pair p (0-7): the
// even-indexed register (2p) is the high nibble, the odd-indexed
// register (2p+1) is the low nibble.
func (r *Registers) GetPair(pair uint8) uint8 {
	base := (pair & 0x7) * 2
	hi := r.index[base] & 0xF
	lo := r.index[base+1] & 0xF
	return hi<<4 | lo
}

// SetPair loads register pair p from an 8-bit value.
func (r *Registers) SetPair(pair, value uint8) {
	base := (pair & 0x7) * 2
	r.index[base] = (value >> 4) & 0xF
	r.index[base+1] = value & 0xF
}

// IncPair increments register pair p as an 8-bit value, wrapping, and
// reports whether the result is zero (used by instructions that test
// pair overflow).
func (r *Registers) IncPair(pair uint8) bool {
	v := r.GetPair(pair) + 1
	r.SetPair(pair, v)
	return v == 0
}

// IncR increments a single index register modulo 16 and reports
// whether the result wrapped to zero; this is the primitive ISZ
// actually uses (a single register, not a pair).
func (r *Registers) IncR(reg uint8) bool {
	v := (r.GetR(reg) + 1) & 0xF
	r.SetR(reg, v)
	return v == 0
}

// Call pushes the current PC onto the 3-entry circular stack and jumps
// to addr. On the 4004 a 4th nested call silently overwrites the
// oldest saved return address (real hardware behavior: there is no
// overflow detection).
func (r *Registers) Call(addr uint16) {
	r.stack[r.sp] = r.pc
	r.sp = (r.sp + 1) % 3
	r.SetPC(addr)
}

// Return pops the circular stack into PC.
func (r *Registers) Return() {
	if r.sp == 0 {
		r.sp = 2
	} else {
		r.sp--
	}
	r.SetPC(r.stack[r.sp])
}

// Reset clears all registers, the program counter, and the stack.
func (r *Registers) Reset() {
	*r = Registers{}
}
