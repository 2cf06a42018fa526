package i4004

// ALU holds the 4004's 4-bit accumulator and carry flag, and
// implements the accumulator-group and arithmetic instructions.
type ALU struct {
	Acc   uint8
	Carry bool
}

// Clb clears both the accumulator and carry.
func (a *ALU) Clb() { a.Acc = 0; a.Carry = false }

// Clc clears carry only.
func (a *ALU) Clc() { a.Carry = false }

// Cma complements the accumulator.
func (a *ALU) Cma() { a.Acc = (^a.Acc) & 0xF }

// Cmc complements carry.
func (a *ALU) Cmc() { a.Carry = !a.Carry }

// Stc sets carry.
func (a *ALU) Stc() { a.Carry = true }

// Iac increments the accumulator; carry is set on overflow past 0xF.
func (a *ALU) Iac() {
	res := uint16(a.Acc) + 1
	a.Acc = uint8(res) & 0xF
	a.Carry = res > 0xF
}

// Dac decrements the accumulator; carry is set when the pre-decrement
// value was non-zero (i.e. the operation did not borrow), per the
// Intel datasheet convention.
func (a *ALU) Dac() {
	nonZero := a.Acc != 0
	a.Acc = (a.Acc - 1) & 0xF
	a.Carry = nonZero
}

// Ral rotates the accumulator left through carry.
func (a *ALU) Ral() {
	newCarry := a.Acc&0x8 != 0
	var cin uint8
	if a.Carry {
		cin = 1
	}
	a.Acc = ((a.Acc << 1) | cin) & 0xF
	a.Carry = newCarry
}

// Rar rotates the accumulator right through carry.
func (a *ALU) Rar() {
	newCarry := a.Acc&0x1 != 0
	var cin uint8
	if a.Carry {
		cin = 0x8
	}
	a.Acc = ((a.Acc >> 1) | cin) & 0xF
	a.Carry = newCarry
}

// Add adds a register value plus carry-in into the accumulator;
// 9-bit arithmetic, carry-out is bit 4.
func (a *ALU) Add(value uint8) {
	var cin uint16
	if a.Carry {
		cin = 1
	}
	res := uint16(a.Acc) + uint16(value&0xF) + cin
	a.Acc = uint8(res) & 0xF
	a.Carry = res > 0xF
}

// Sub subtracts a register value from the accumulator using the 4004
// convention that borrow is the inverted carry-in: the subtrahend is
// one's-complemented and added with the existing carry as the carry-in.
func (a *ALU) Sub(value uint8) {
	complement := (^value) & 0xF
	var cin uint16
	if a.Carry {
		cin = 1
	}
	res := uint16(a.Acc) + uint16(complement) + cin
	a.Acc = uint8(res) & 0xF
	a.Carry = res > 0xF
}

// Load sets the accumulator from an immediate or register value and
// returns the prior accumulator value (used by XCH to complete the
// swap).
func (a *ALU) Load(value uint8) uint8 {
	old := a.Acc
	a.Acc = value & 0xF
	return old
}

// Daa performs decimal adjust: if carry is set or Acc exceeds 9, adds
// 6; a resulting overflow sets carry, but DAA never clears carry.
func (a *ALU) Daa() {
	if a.Carry || a.Acc > 9 {
		res := uint16(a.Acc) + 6
		a.Acc = uint8(res) & 0xF
		if res > 0xF {
			a.Carry = true
		}
	}
}

// Tcc transfers carry into the accumulator, then clears carry.
func (a *ALU) Tcc() {
	if a.Carry {
		a.Acc = 1
	} else {
		a.Acc = 0
	}
	a.Carry = false
}

// Tcs loads the accumulator with 9 (carry clear) or 10 (carry set),
// per the Intel datasheet, then clears carry. This matches the
// original implementation's inline TCS handling verbatim; it is not
// an ALU method there, but the semantics are identical.
func (a *ALU) Tcs() {
	if a.Carry {
		a.Acc = 10
	} else {
		a.Acc = 9
	}
	a.Carry = false
}

// Kbp encodes a one-hot keyboard pattern into BCD: 0->0, 1->1, 2->2,
// 4->3, 8->4, anything else (any input with more than one bit set)
// -> 0xF.
func (a *ALU) Kbp() {
	switch a.Acc {
	case 0:
		a.Acc = 0
	case 1:
		a.Acc = 1
	case 2:
		a.Acc = 2
	case 4:
		a.Acc = 3
	case 8:
		a.Acc = 4
	default:
		a.Acc = 0xF
	}
}

// Reset zeroes the accumulator and carry.
func (a *ALU) Reset() { a.Acc = 0; a.Carry = false }
