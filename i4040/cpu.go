package i4040

import (
	"fmt"

	"github.com/mcs4/sim/bus"
	"github.com/mcs4/sim/i4004"
)

// ChipDef configures a 4040 Chip at construction.
type ChipDef struct {
	Debug bool
}

// Chip is an Intel 4040 CPU: the 4004's execution model extended with
// a banked register file, a bounded 7-level call stack, and an
// interrupt controller.
type Chip struct {
	Registers
	alu       i4004.ALU
	stack     Stack
	interrupt InterruptController

	cycle bus.CycleState

	pending Instruction
	ready   bool
	jumped  bool
	halted  bool

	fetchLow  uint8
	fetchHigh uint8

	finTarget uint16
	finData   uint8

	driverID int
	debug    bool
}

// Init returns a powered-on 4040.
func Init(def *ChipDef) (*Chip, error) {
	if def == nil {
		return nil, fmt.Errorf("nil chip def")
	}
	return &Chip{debug: def.Debug}, nil
}

// Name implements chip.Chip.
func (c *Chip) Name() string { return "4040" }

// Reset clears registers, the ALU, the stack, interrupt state, and all
// in-flight decode state; HALT is also cleared.
func (c *Chip) Reset() {
	c.Registers.Reset()
	c.alu.Reset()
	c.stack.Reset()
	c.interrupt.Reset()
	c.cycle = bus.CycleState{}
	c.pending = Instruction{}
	c.ready = false
	c.jumped = false
	c.halted = false
	c.fetchLow = 0
	c.fetchHigh = 0
	c.finTarget = 0
	c.finData = 0
}

// AttachDriver records the bus driver token this chip was assigned.
func (c *Chip) AttachDriver(id int) { c.driverID = id }

// Accumulator returns the current 4-bit accumulator value.
func (c *Chip) Accumulator() uint8 { return c.alu.Acc }

// Carry returns the current carry flag.
func (c *Chip) Carry() bool { return c.alu.Carry }

// Halted reports whether HLT has stopped instruction execution.
func (c *Chip) Halted() bool { return c.halted }

// RequestInterrupt latches an external interrupt request (the 4040's
// INT line), to be serviced at the next instruction boundary if
// interrupts are enabled.
func (c *Chip) RequestInterrupt() { c.interrupt.Request() }

// Phase returns the bus phase the CPU last ticked through.
func (c *Chip) Phase() bus.BusCycle { return c.cycle.Phase }

// InstructionCount returns the number of instructions fully retired.
func (c *Chip) InstructionCount() uint64 { return c.cycle.InstructionCount }

// AtInstructionBoundary reports whether the chip is about to begin
// fetching a fresh instruction.
func (c *Chip) AtInstructionBoundary() bool {
	return c.cycle.Phase == bus.A1 && !c.cycle.SecondCycle
}

func (c *Chip) currentFetchAddr() uint16 {
	if c.pending.IsExt && c.pending.Ext == ExtRPM && c.cycle.SecondCycle {
		return c.finTarget
	}
	if !c.pending.IsExt && c.pending.Base.Op == i4004.OpFIN && c.cycle.SecondCycle {
		return c.finTarget
	}
	return c.PC()
}

// TickBus implements chip.BusParticipant. Before a fresh instruction's
// address phase, a pending, enabled interrupt redirects the fetch to
// the 4040's fixed service vector (0x003); HLT otherwise freezes the
// bus entirely (the chip still ticks, but drives nothing and advances
// no state) until reset.
func (c *Chip) TickBus(phase bus.BusCycle, b *bus.DataBus, ctrl *bus.ControlSignals) {
	if c.halted {
		return
	}
	if phase == bus.A1 && !c.cycle.SecondCycle && c.interrupt.ShouldService() {
		vector := c.interrupt.Service(c.PC(), c.Bank())
		c.SetBank(0)
		c.SetPC(vector)
	}

	switch phase {
	case bus.A1:
		addr := c.currentFetchAddr()
		b.Drive(c.driverID, uint8(addr&0xF))
		ctrl.AssertSync()
	case bus.A2:
		addr := c.currentFetchAddr()
		b.Drive(c.driverID, uint8((addr>>4)&0xF))
		ctrl.DeassertSync()
	case bus.A3:
		addr := c.currentFetchAddr()
		page := uint8((addr >> 8) & 0xF)
		b.Drive(c.driverID, page)
		ctrl.SelectROM(page)
		b.Release(c.driverID)
	case bus.M1:
		c.fetchLow = b.Read() & 0xF
	case bus.M2:
		c.fetchHigh = b.Read() & 0xF
	case bus.X1:
		c.phaseX1(ctrl)
	case bus.X2:
		c.phaseX2(b, ctrl)
	case bus.X3:
		c.phaseX3(b, ctrl)
	}
	c.cycle.Advance()
}

func (c *Chip) phaseX1(ctrl *bus.ControlSignals) {
	raw := bus.NewByte8FromNibbles(c.fetchLow, c.fetchHigh).Value

	if !c.cycle.SecondCycle {
		c.jumped = false
		instr, ok := DecodeFirst(raw)
		c.pending = instr
		if !ok {
			c.cycle.TwoCycle = true
			c.ready = false
		} else {
			c.cycle.TwoCycle = instr.Cycles() == 2
			isFin := !instr.IsExt && instr.Base.Op == i4004.OpFIN
			isRPM := instr.IsExt && instr.Ext == ExtRPM
			c.ready = !isFin && !isRPM
			if isFin || isRPM {
				c.finTarget = (c.PC() & 0xF00) | uint16(c.GetPair(0))
			}
		}
	} else {
		switch {
		case !c.pending.IsExt && c.pending.Base.Op == i4004.OpFIN:
			c.finData = raw
			c.ready = true
		case c.pending.IsExt && c.pending.Ext == ExtRPM:
			c.finData = raw
			c.ready = true
		case !c.pending.IsExt && c.pending.Base.Op == i4004.OpJIN:
			c.ready = false
		default:
			c.pending.Base = i4004.DecodeSecond(c.pending.Base, raw)
			c.ready = true
		}
	}

	c.publishOperation(ctrl)
}

func (c *Chip) publishOperation(ctrl *bus.ControlSignals) {
	if !c.ready || c.pending.IsExt {
		ctrl.Operation = bus.OpNone
		return
	}
	switch c.pending.Base.Op {
	case i4004.OpWRM, i4004.OpWPM:
		ctrl.Operation = bus.OpRAMWrite
	case i4004.OpWMP, i4004.OpWRR:
		ctrl.Operation = bus.OpPortWrite
	case i4004.OpWR0, i4004.OpWR1, i4004.OpWR2, i4004.OpWR3:
		ctrl.Operation = bus.OpStatusWrite
		ctrl.StatusIndex = c.pending.Base.Reg
	case i4004.OpSBM, i4004.OpADM, i4004.OpRDM:
		ctrl.Operation = bus.OpRAMRead
	case i4004.OpRDR:
		ctrl.Operation = bus.OpPortRead
	case i4004.OpRD0, i4004.OpRD1, i4004.OpRD2, i4004.OpRD3:
		ctrl.Operation = bus.OpStatusRead
		ctrl.StatusIndex = c.pending.Base.Reg
	default:
		ctrl.Operation = bus.OpNone
	}
}

func (c *Chip) phaseX2(b *bus.DataBus, ctrl *bus.ControlSignals) {
	if !c.ready {
		return
	}
	if c.pending.IsExt {
		c.execExt(ctrl)
		return
	}
	c.execBase(b, ctrl)
}

// execExt runs one of the 4040's 14 extension opcodes.
func (c *Chip) execExt(ctrl *bus.ControlSignals) {
	switch c.pending.Ext {
	case ExtHLT:
		c.halted = true
	case ExtBBS:
		pc, bank := c.interrupt.Return()
		c.SetBank(bank)
		c.SetPC(pc)
		c.jumped = true
	case ExtLCR:
		if c.interrupt.Enabled() {
			c.alu.Load(1)
		} else {
			c.alu.Load(0)
		}
	case ExtOR4:
		c.alu.Acc = (c.alu.Acc | c.GetR(4)) & 0xF
	case ExtOR5:
		c.alu.Acc = (c.alu.Acc | c.GetR(5)) & 0xF
	case ExtAN6:
		c.alu.Acc = (c.alu.Acc & c.GetR(6)) & 0xF
	case ExtAN7:
		c.alu.Acc = (c.alu.Acc & c.GetR(7)) & 0xF
	case ExtDB0:
		c.SetBank(0)
	case ExtDB1:
		c.SetBank(1)
	case ExtSB0:
		ctrl.SelectRAM(0)
	case ExtSB1:
		ctrl.SelectRAM(1)
	case ExtEIN:
		c.interrupt.Enable()
	case ExtDIN:
		c.interrupt.Disable()
	case ExtRPM:
		c.alu.Load(c.finData & 0xF)
	}
}

// execBase runs one of the 46 4004-compatible opcodes, substituting
// this chip's bounded stack for JMS/BBL in place of the 4004's
// circular one.
func (c *Chip) execBase(b *bus.DataBus, ctrl *bus.ControlSignals) {
	instr := c.pending.Base
	switch instr.Op {
	case i4004.OpNop, i4004.OpInvalid:

	case i4004.OpJCN:
		c.execJCN(instr, ctrl)
	case i4004.OpFIM:
		c.SetPair(instr.Reg, instr.Imm)
	case i4004.OpSRC:
		pair := c.GetPair(instr.Reg)
		ctrl.LatchSRC((pair>>4)&0xF, pair&0xF)
	case i4004.OpFIN:
		c.SetPair(instr.Reg, c.finData)
	case i4004.OpJIN:
		c.SetPC((c.PC() & 0xF00) | uint16(c.GetPair(instr.Reg)))
		c.jumped = true
	case i4004.OpJUN:
		c.SetPC(instr.Addr)
		c.jumped = true
	case i4004.OpJMS:
		ret := (c.PC() + 1) & 0xFFF
		if err := c.stack.Push(ret); err == nil {
			c.SetPC(instr.Addr)
		} else {
			c.SetPC(ret)
		}
		// On overflow the call is simply not taken: the stack is left
		// unchanged and execution continues after the JMS. The
		// StackOverflow error is not reported outside this chip.
		c.jumped = true
	case i4004.OpINC:
		c.IncR(instr.Reg)
	case i4004.OpISZ:
		c.execISZ(instr)
	case i4004.OpADD:
		c.alu.Add(c.GetR(instr.Reg))
	case i4004.OpSUB:
		c.alu.Sub(c.GetR(instr.Reg))
	case i4004.OpLD:
		c.alu.Load(c.GetR(instr.Reg))
	case i4004.OpXCH:
		old := c.alu.Load(c.GetR(instr.Reg))
		c.SetR(instr.Reg, old)
	case i4004.OpBBL:
		if pc, err := c.stack.Pop(); err == nil {
			c.SetPC(pc)
		}
		c.alu.Acc = instr.Imm & 0xF
		c.jumped = true
	case i4004.OpLDM:
		c.alu.Load(instr.Imm)

	case i4004.OpWRM, i4004.OpWMP, i4004.OpWRR, i4004.OpWPM,
		i4004.OpWR0, i4004.OpWR1, i4004.OpWR2, i4004.OpWR3:
		b.Drive(c.driverID, c.alu.Acc)
	case i4004.OpSBM, i4004.OpRDM, i4004.OpRDR, i4004.OpADM,
		i4004.OpRD0, i4004.OpRD1, i4004.OpRD2, i4004.OpRD3:

	case i4004.OpCLB:
		c.alu.Clb()
	case i4004.OpCLC:
		c.alu.Clc()
	case i4004.OpIAC:
		c.alu.Iac()
	case i4004.OpCMC:
		c.alu.Cmc()
	case i4004.OpCMA:
		c.alu.Cma()
	case i4004.OpRAL:
		c.alu.Ral()
	case i4004.OpRAR:
		c.alu.Rar()
	case i4004.OpTCC:
		c.alu.Tcc()
	case i4004.OpDAC:
		c.alu.Dac()
	case i4004.OpTCS:
		c.alu.Tcs()
	case i4004.OpSTC:
		c.alu.Stc()
	case i4004.OpDAA:
		c.alu.Daa()
	case i4004.OpKBP:
		c.alu.Kbp()
	case i4004.OpDCL:
		ctrl.SelectRAM(c.alu.Acc & 0x7)
	}
}

func (c *Chip) execJCN(instr i4004.Instruction, ctrl *bus.ControlSignals) {
	cond := instr.Cond
	base := (cond&0x1 != 0 && c.alu.Acc == 0) ||
		(cond&0x2 != 0 && c.alu.Carry) ||
		(cond&0x4 != 0 && ctrl.TestActive())
	if base != (cond&0x8 != 0) {
		c.SetPC((c.PC() & 0xF00) | instr.Addr)
		c.jumped = true
	}
}

func (c *Chip) execISZ(instr i4004.Instruction) {
	wrapped := c.IncR(instr.Reg)
	if !wrapped {
		c.SetPC((c.PC() & 0xF00) | instr.Addr)
		c.jumped = true
	}
}

func (c *Chip) phaseX3(b *bus.DataBus, ctrl *bus.ControlSignals) {
	if c.ready && !c.pending.IsExt {
		switch c.pending.Base.Op {
		case i4004.OpRDM, i4004.OpRD0, i4004.OpRD1, i4004.OpRD2, i4004.OpRD3, i4004.OpRDR:
			c.alu.Load(b.Read())
		case i4004.OpSBM:
			c.alu.Sub(b.Read())
		case i4004.OpADM:
			c.alu.Add(b.Read())
		}
	}
	b.Release(c.driverID)
	c.advancePC()
}

func (c *Chip) advancePC() {
	if c.jumped {
		return
	}
	if !c.cycle.SecondCycle {
		c.IncrementPC()
		return
	}
	isFin := !c.pending.IsExt && c.pending.Base.Op == i4004.OpFIN
	isRPM := c.pending.IsExt && c.pending.Ext == ExtRPM
	if !isFin && !isRPM {
		c.IncrementPC()
	}
}

// Debug renders a one-line state summary when debug logging is enabled.
func (c *Chip) Debug() string {
	if !c.debug {
		return ""
	}
	return fmt.Sprintf("4040 pc=%03X bank=%d acc=%X cy=%v %s phase=%s halted=%v instr=%d",
		c.PC(), c.Bank(), c.alu.Acc, c.alu.Carry, c.pending.Mnemonic(), c.cycle.Phase, c.halted, c.cycle.InstructionCount)
}
