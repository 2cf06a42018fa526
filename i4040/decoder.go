package i4040

import "github.com/mcs4/sim/i4004"

// ExtOpcode identifies one of the 4040's 14 extension opcodes, all
// packed into the OPR=0 group that the 4004 only uses for NOP (OPA=0).
type ExtOpcode int

const (
	ExtNone ExtOpcode = iota
	ExtHLT
	ExtBBS
	ExtLCR
	ExtOR4
	ExtOR5
	ExtAN6
	ExtAN7
	ExtDB0
	ExtDB1
	ExtSB0
	ExtSB1
	ExtEIN
	ExtDIN
	ExtRPM
)

var extMnemonics = map[ExtOpcode]string{
	ExtHLT: "HLT", ExtBBS: "BBS", ExtLCR: "LCR",
	ExtOR4: "OR4", ExtOR5: "OR5", ExtAN6: "AN6", ExtAN7: "AN7",
	ExtDB0: "DB0", ExtDB1: "DB1", ExtSB0: "SB0", ExtSB1: "SB1",
	ExtEIN: "EIN", ExtDIN: "DIN", ExtRPM: "RPM",
}

// extOpcode maps OPA (1-14) to its extension opcode, in the order Intel
// assigned them.
func extOpcode(opa uint8) ExtOpcode {
	switch opa {
	case 0x1:
		return ExtHLT
	case 0x2:
		return ExtBBS
	case 0x3:
		return ExtLCR
	case 0x4:
		return ExtOR4
	case 0x5:
		return ExtOR5
	case 0x6:
		return ExtAN6
	case 0x7:
		return ExtAN7
	case 0x8:
		return ExtDB0
	case 0x9:
		return ExtDB1
	case 0xA:
		return ExtSB0
	case 0xB:
		return ExtSB1
	case 0xC:
		return ExtEIN
	case 0xD:
		return ExtDIN
	case 0xE:
		return ExtRPM
	default:
		return ExtNone
	}
}

// Instruction wraps a 4004 instruction with the 4040's extension
// opcodes, which reuse the 4004 decoder's opcode space entirely except
// for OPR=0/OPA!=0.
type Instruction struct {
	Base  i4004.Instruction
	IsExt bool
	Ext   ExtOpcode
}

// Mnemonic returns the instruction's assembler mnemonic.
func (i Instruction) Mnemonic() string {
	if i.IsExt {
		return extMnemonics[i.Ext]
	}
	return i.Base.Mnemonic()
}

// DecodeFirst decodes the first byte of an instruction, recognizing
// the 4040 extension group before falling back to the 4004 decoder.
func DecodeFirst(b uint8) (Instruction, bool) {
	if b>>4 == 0 && b&0xF != 0 {
		return Instruction{IsExt: true, Ext: extOpcode(b & 0xF)}, true
	}
	base, ok := i4004.DecodeFirst(b)
	return Instruction{Base: base}, ok
}

// DecodeSecond completes a two-byte 4004 instruction; extension
// opcodes are always one byte and never reach this path.
func DecodeSecond(partial Instruction, second uint8) Instruction {
	partial.Base = i4004.DecodeSecond(partial.Base, second)
	return partial
}

// Length returns the instruction's length in bytes.
func (i Instruction) Length() int {
	if i.IsExt {
		return 1
	}
	return i.Base.Length()
}

// Cycles returns the instruction's machine-cycle cost. RPM is one byte
// but, like FIN, needs a second machine cycle to complete its
// indirect program-memory read.
func (i Instruction) Cycles() int {
	if i.IsExt {
		if i.Ext == ExtRPM {
			return 2
		}
		return 1
	}
	return i.Base.Cycles()
}
