package i4004

// Opcode identifies a decoded 4004 instruction's operation, independent
// of its operands.
type Opcode int

const (
	OpInvalid Opcode = iota
	OpNop
	OpJCN
	OpFIM
	OpSRC
	OpFIN
	OpJIN
	OpJUN
	OpJMS
	OpINC
	OpISZ
	OpADD
	OpSUB
	OpLD
	OpXCH
	OpBBL
	OpLDM
	// RAM/IO group (OPR=0xE).
	OpWRM
	OpWMP
	OpWRR
	OpWPM
	OpWR0
	OpWR1
	OpWR2
	OpWR3
	OpSBM
	OpRDM
	OpRDR
	OpADM
	OpRD0
	OpRD1
	OpRD2
	OpRD3
	// Accumulator group (OPR=0xF).
	OpCLB
	OpCLC
	OpIAC
	OpCMC
	OpCMA
	OpRAL
	OpRAR
	OpTCC
	OpDAC
	OpTCS
	OpSTC
	OpDAA
	OpKBP
	OpDCL
)

var mnemonics = map[Opcode]string{
	OpInvalid: "???",
	OpNop:     "NOP",
	OpJCN:     "JCN",
	OpFIM:     "FIM",
	OpSRC:     "SRC",
	OpFIN:     "FIN",
	OpJIN:     "JIN",
	OpJUN:     "JUN",
	OpJMS:     "JMS",
	OpINC:     "INC",
	OpISZ:     "ISZ",
	OpADD:     "ADD",
	OpSUB:     "SUB",
	OpLD:      "LD",
	OpXCH:     "XCH",
	OpBBL:     "BBL",
	OpLDM:     "LDM",
	OpWRM:     "WRM",
	OpWMP:     "WMP",
	OpWRR:     "WRR",
	OpWPM:     "WPM",
	OpWR0:     "WR0",
	OpWR1:     "WR1",
	OpWR2:     "WR2",
	OpWR3:     "WR3",
	OpSBM:     "SBM",
	OpRDM:     "RDM",
	OpRDR:     "RDR",
	OpADM:     "ADM",
	OpRD0:     "RD0",
	OpRD1:     "RD1",
	OpRD2:     "RD2",
	OpRD3:     "RD3",
	OpCLB:     "CLB",
	OpCLC:     "CLC",
	OpIAC:     "IAC",
	OpCMC:     "CMC",
	OpCMA:     "CMA",
	OpRAL:     "RAL",
	OpRAR:     "RAR",
	OpTCC:     "TCC",
	OpDAC:     "DAC",
	OpTCS:     "TCS",
	OpSTC:     "STC",
	OpDAA:     "DAA",
	OpKBP:     "KBP",
	OpDCL:     "DCL",
}

// Instruction is a fully decoded 4004 instruction: an opcode plus its
// operands (register/pair index, condition bits, 8-bit immediate, or
// jump address, depending on which fields the opcode uses).
type Instruction struct {
	Op      Opcode
	Opcode  uint8 // raw first byte, for Invalid/trace annotation
	Reg     uint8 // register or pair index, where applicable
	Cond    uint8 // JCN condition bits
	Imm     uint8 // FIM/LDM/BBL immediate
	Addr    uint16 // JUN/JMS/JCN/ISZ jump target
}

// Mnemonic returns the instruction's assembler mnemonic.
func (i Instruction) Mnemonic() string { return mnemonics[i.Op] }

// isTwoByte reports whether an opcode group is two-byte, matching the
// original decoder's determination: JCN, FIM (but not SRC, which
// shares OPR=0x2), JUN, JMS, ISZ.
func isTwoByte(opr, opa uint8) bool {
	switch opr {
	case 0x1, 0x4, 0x5, 0x7:
		return true
	case 0x2:
		// FIM (two-byte) when OPA is even; SRC (one-byte) when OPA is odd.
		return opa&1 == 0
	default:
		return false
	}
}

// DecodeFirst decodes the first byte of an instruction. For one-byte
// instructions this produces a complete Instruction; for two-byte
// instructions it returns a partial Instruction (with Op/Reg/Cond
// filled in as known) and ok=false, signaling the caller to fetch a
// second byte and call DecodeSecond.
func DecodeFirst(b uint8) (Instruction, bool) {
	opr := b >> 4
	opa := b & 0xF

	if isTwoByte(opr, opa) {
		partial := Instruction{Opcode: b}
		switch opr {
		case 0x1:
			partial.Op = OpJCN
			partial.Cond = opa
		case 0x2:
			partial.Op = OpFIM
			partial.Reg = opa >> 1
		case 0x4:
			partial.Op = OpJUN
			partial.Addr = uint16(opa) << 8
		case 0x5:
			partial.Op = OpJMS
			partial.Addr = uint16(opa) << 8
		case 0x7:
			partial.Op = OpISZ
			partial.Reg = opa
		}
		return partial, false
	}

	return decodeSingleByte(opr, opa, b), true
}

// DecodeSecond completes a two-byte instruction given the partially
// decoded first-byte Instruction and the second byte.
func DecodeSecond(partial Instruction, second uint8) Instruction {
	switch partial.Op {
	case OpJCN:
		partial.Addr = uint16(second)
	case OpFIM:
		partial.Imm = second
	case OpJUN:
		partial.Addr |= uint16(second)
	case OpJMS:
		partial.Addr |= uint16(second)
	case OpISZ:
		partial.Addr = uint16(second)
	}
	return partial
}

func decodeSingleByte(opr, opa, raw uint8) Instruction {
	switch opr {
	case 0x0:
		if opa == 0 {
			return Instruction{Op: OpNop, Opcode: raw}
		}
		return Instruction{Op: OpInvalid, Opcode: raw}
	case 0x2:
		// OPA odd: SRC p.
		return Instruction{Op: OpSRC, Opcode: raw, Reg: opa >> 1}
	case 0x3:
		if opa&1 == 0 {
			return Instruction{Op: OpFIN, Opcode: raw, Reg: opa >> 1}
		}
		return Instruction{Op: OpJIN, Opcode: raw, Reg: opa >> 1}
	case 0x6:
		return Instruction{Op: OpINC, Opcode: raw, Reg: opa}
	case 0x8:
		return Instruction{Op: OpADD, Opcode: raw, Reg: opa}
	case 0x9:
		return Instruction{Op: OpSUB, Opcode: raw, Reg: opa}
	case 0xA:
		return Instruction{Op: OpLD, Opcode: raw, Reg: opa}
	case 0xB:
		return Instruction{Op: OpXCH, Opcode: raw, Reg: opa}
	case 0xC:
		return Instruction{Op: OpBBL, Opcode: raw, Imm: opa}
	case 0xD:
		return Instruction{Op: OpLDM, Opcode: raw, Imm: opa}
	case 0xE:
		return decodeRAMIOGroup(opa, raw)
	case 0xF:
		return decodeAccGroup(opa, raw)
	default:
		return Instruction{Op: OpInvalid, Opcode: raw}
	}
}

func decodeRAMIOGroup(opa, raw uint8) Instruction {
	switch opa {
	case 0x0:
		return Instruction{Op: OpWRM, Opcode: raw}
	case 0x1:
		return Instruction{Op: OpWMP, Opcode: raw}
	case 0x2:
		return Instruction{Op: OpWRR, Opcode: raw}
	case 0x3:
		return Instruction{Op: OpWPM, Opcode: raw}
	case 0x4, 0x5, 0x6, 0x7:
		return Instruction{Op: Opcode(int(OpWR0) + int(opa-0x4)), Opcode: raw, Reg: opa - 0x4}
	case 0x8:
		return Instruction{Op: OpSBM, Opcode: raw}
	case 0x9:
		return Instruction{Op: OpRDM, Opcode: raw}
	case 0xA:
		return Instruction{Op: OpRDR, Opcode: raw}
	case 0xB:
		return Instruction{Op: OpADM, Opcode: raw}
	case 0xC, 0xD, 0xE, 0xF:
		return Instruction{Op: Opcode(int(OpRD0) + int(opa-0xC)), Opcode: raw, Reg: opa - 0xC}
	default:
		return Instruction{Op: OpInvalid, Opcode: raw}
	}
}

func decodeAccGroup(opa, raw uint8) Instruction {
	switch opa {
	case 0x0:
		return Instruction{Op: OpCLB, Opcode: raw}
	case 0x1:
		return Instruction{Op: OpCLC, Opcode: raw}
	case 0x2:
		return Instruction{Op: OpIAC, Opcode: raw}
	case 0x3:
		return Instruction{Op: OpCMC, Opcode: raw}
	case 0x4:
		return Instruction{Op: OpCMA, Opcode: raw}
	case 0x5:
		return Instruction{Op: OpRAL, Opcode: raw}
	case 0x6:
		return Instruction{Op: OpRAR, Opcode: raw}
	case 0x7:
		return Instruction{Op: OpTCC, Opcode: raw}
	case 0x8:
		return Instruction{Op: OpDAC, Opcode: raw}
	case 0x9:
		return Instruction{Op: OpTCS, Opcode: raw}
	case 0xA:
		return Instruction{Op: OpSTC, Opcode: raw}
	case 0xB:
		return Instruction{Op: OpDAA, Opcode: raw}
	case 0xC:
		return Instruction{Op: OpKBP, Opcode: raw}
	case 0xD:
		return Instruction{Op: OpDCL, Opcode: raw}
	default:
		return Instruction{Op: OpInvalid, Opcode: raw}
	}
}

// Length returns the instruction's length in bytes (1 or 2).
func (i Instruction) Length() int {
	switch i.Op {
	case OpJCN, OpFIM, OpJUN, OpJMS, OpISZ:
		return 2
	default:
		return 1
	}
}

// Cycles returns the instruction's machine-cycle cost (1 or 2). FIN
// and JIN are one byte but cost 2 machine cycles (the indirect fetch
// and the direct jump both need a second cycle to settle), matching
// every two-byte instruction's cost.
func (i Instruction) Cycles() int {
	switch i.Op {
	case OpFIN, OpJIN:
		return 2
	default:
		return i.Length()
	}
}
