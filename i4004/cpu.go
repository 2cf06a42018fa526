package i4004

import (
	"fmt"

	"github.com/mcs4/sim/bus"
)

// ChipDef configures a 4004 Chip at construction.
type ChipDef struct {
	// Debug, if true, causes Debug() to return a non-empty summary
	// each tick.
	Debug bool
}

// Chip is an Intel 4004 CPU: the register file, ALU, and instruction
// decoder driven across the 8-phase bus protocol.
type Chip struct {
	Registers
	alu ALU

	cycle bus.CycleState

	pending   Instruction // the instruction under decode/execution
	ready     bool        // pending is complete and should execute this X2/X3
	jumped    bool        // execute() set PC directly this instruction
	fetchLow  uint8
	fetchHigh uint8

	finTarget uint16 // FIN's indirect ROM address, computed on decode
	finData   uint8  // byte fetched from finTarget during FIN's 2nd cycle

	driverID int
	debug    bool
}

// Init returns a powered-on 4004.
func Init(def *ChipDef) (*Chip, error) {
	if def == nil {
		return nil, fmt.Errorf("nil chip def")
	}
	return &Chip{debug: def.Debug}, nil
}

// Name implements chip.Chip.
func (c *Chip) Name() string { return "4004" }

// Reset clears registers, the ALU, and all in-flight decode state.
func (c *Chip) Reset() {
	c.Registers.Reset()
	c.alu.Reset()
	c.cycle = bus.CycleState{}
	c.pending = Instruction{}
	c.ready = false
	c.jumped = false
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

// Phase returns the bus phase the CPU last ticked through.
func (c *Chip) Phase() bus.BusCycle { return c.cycle.Phase }

// InstructionCount returns the number of instructions fully retired.
func (c *Chip) InstructionCount() uint64 { return c.cycle.InstructionCount }

// Halted is always false for the 4004, which has no halt state; it
// exists so callers can treat i4004/i4040 chips uniformly.
func (c *Chip) Halted() bool { return false }

// AtInstructionBoundary reports whether the chip is about to begin
// fetching a fresh instruction (as opposed to sitting mid-way through
// a two-cycle one), the point at which a system assembly should check
// breakpoints.
func (c *Chip) AtInstructionBoundary() bool {
	return c.cycle.Phase == bus.A1 && !c.cycle.SecondCycle
}

// currentFetchAddr returns the address the CPU drives during A1-A3:
// the program counter, except during FIN's second machine cycle, when
// it is the indirect address computed from register pair 0.
func (c *Chip) currentFetchAddr() uint16 {
	if c.pending.Op == OpFIN && c.cycle.SecondCycle {
		return c.finTarget
	}
	return c.PC()
}

// TickBus implements chip.BusParticipant across all 8 machine-cycle
// phases: A1-A3 drive the fetch address and the SYNC/CM-ROM lines,
// M1-M2 read the instruction byte back off the bus, X1 decodes (and
// publishes the bus OperationKind for the memory chips), X2 executes,
// and X3 consumes any read result, releases the bus, and advances PC.
func (c *Chip) TickBus(phase bus.BusCycle, b *bus.DataBus, ctrl *bus.ControlSignals) {
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

// phaseX1 decodes the byte read during M1/M2 and publishes this
// instruction's bus OperationKind (and, for the status opcode family,
// StatusIndex) for the X2/X3 phases that follow.
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
			c.ready = instr.Op != OpFIN
			if instr.Op == OpFIN {
				c.finTarget = (c.PC() & 0xF00) | uint16(c.GetPair(0))
			}
		}
	} else {
		switch c.pending.Op {
		case OpFIN:
			c.finData = raw
			c.ready = true
		case OpJIN:
			// Already executed on the first cycle; this cycle is an
			// idle bus cycle needed only for timing.
			c.ready = false
		default:
			c.pending = DecodeSecond(c.pending, raw)
			c.ready = true
		}
	}

	c.publishOperation(ctrl)
}

// publishOperation sets ctrl.Operation (and StatusIndex, where it
// applies) from the now-decoded instruction, resolving the
// is_io_write/is_io_read ambiguity by having the CPU state its intent
// up front instead of memory chips inferring it from selection alone.
func (c *Chip) publishOperation(ctrl *bus.ControlSignals) {
	if !c.ready {
		ctrl.Operation = bus.OpNone
		return
	}
	switch c.pending.Op {
	case OpWRM, OpWPM:
		ctrl.Operation = bus.OpRAMWrite
	case OpWMP, OpWRR:
		ctrl.Operation = bus.OpPortWrite
	case OpWR0, OpWR1, OpWR2, OpWR3:
		ctrl.Operation = bus.OpStatusWrite
		ctrl.StatusIndex = c.pending.Reg
	case OpSBM, OpADM, OpRDM:
		ctrl.Operation = bus.OpRAMRead
	case OpRDR:
		ctrl.Operation = bus.OpPortRead
	case OpRD0, OpRD1, OpRD2, OpRD3:
		ctrl.Operation = bus.OpStatusRead
		ctrl.StatusIndex = c.pending.Reg
	default:
		ctrl.Operation = bus.OpNone
	}
}

// phaseX2 runs the instruction's effect once it is fully decoded
// (immediately for one-cycle instructions and for JIN, whose second
// cycle is idle; on the completing cycle for two-byte or FIN
// instructions), driving the bus for any RAM/IO write the instruction
// performs.
func (c *Chip) phaseX2(b *bus.DataBus, ctrl *bus.ControlSignals) {
	if !c.ready {
		return
	}

	switch c.pending.Op {
	case OpNop, OpInvalid:

	case OpJCN:
		c.execJCN(ctrl)
	case OpFIM:
		c.SetPair(c.pending.Reg, c.pending.Imm)
	case OpSRC:
		pair := c.GetPair(c.pending.Reg)
		ctrl.LatchSRC((pair>>4)&0xF, pair&0xF)
	case OpFIN:
		c.SetPair(c.pending.Reg, c.finData)
	case OpJIN:
		c.SetPC((c.PC() & 0xF00) | uint16(c.GetPair(c.pending.Reg)))
		c.jumped = true
	case OpJUN:
		c.SetPC(c.pending.Addr)
		c.jumped = true
	case OpJMS:
		c.SetPC((c.PC() + 1) & 0xFFF)
		c.Call(c.pending.Addr)
		c.jumped = true
	case OpINC:
		c.IncR(c.pending.Reg)
	case OpISZ:
		c.execISZ()
	case OpADD:
		c.alu.Add(c.GetR(c.pending.Reg))
	case OpSUB:
		c.alu.Sub(c.GetR(c.pending.Reg))
	case OpLD:
		c.alu.Load(c.GetR(c.pending.Reg))
	case OpXCH:
		old := c.alu.Load(c.GetR(c.pending.Reg))
		c.SetR(c.pending.Reg, old)
	case OpBBL:
		c.Return()
		c.alu.Acc = c.pending.Imm & 0xF
		c.jumped = true
	case OpLDM:
		c.alu.Load(c.pending.Imm)

	case OpWRM, OpWMP, OpWRR, OpWPM, OpWR0, OpWR1, OpWR2, OpWR3:
		b.Drive(c.driverID, c.alu.Acc)
	case OpSBM, OpRDM, OpRDR, OpADM, OpRD0, OpRD1, OpRD2, OpRD3:
		// Read-type RAM/IO ops: the selected chip drives the bus at
		// X3; nothing for the CPU to drive here.

	case OpCLB:
		c.alu.Clb()
	case OpCLC:
		c.alu.Clc()
	case OpIAC:
		c.alu.Iac()
	case OpCMC:
		c.alu.Cmc()
	case OpCMA:
		c.alu.Cma()
	case OpRAL:
		c.alu.Ral()
	case OpRAR:
		c.alu.Rar()
	case OpTCC:
		c.alu.Tcc()
	case OpDAC:
		c.alu.Dac()
	case OpTCS:
		c.alu.Tcs()
	case OpSTC:
		c.alu.Stc()
	case OpDAA:
		c.alu.Daa()
	case OpKBP:
		c.alu.Kbp()
	case OpDCL:
		// The low 3 accumulator bits select the active CM-RAM bank;
		// a plain 4004 system only ever populates bank 0.
		ctrl.SelectRAM(c.alu.Acc & 0x7)
	}
}

// execJCN evaluates the 4-bit condition nibble: bit0 tests Acc==0,
// bit1 tests carry set, bit2 tests the TEST pin asserted, bit3
// inverts the combined result. A condition nibble of 0 never jumps; a
// lone invert bit (8) always does.
func (c *Chip) execJCN(ctrl *bus.ControlSignals) {
	cond := c.pending.Cond
	base := (cond&0x1 != 0 && c.alu.Acc == 0) ||
		(cond&0x2 != 0 && c.alu.Carry) ||
		(cond&0x4 != 0 && ctrl.TestActive())
	if base != (cond&0x8 != 0) {
		c.SetPC((c.PC() & 0xF00) | c.pending.Addr)
		c.jumped = true
	}
}

// execISZ increments a register and jumps to the instruction's address
// when the result is non-zero.
func (c *Chip) execISZ() {
	wrapped := c.IncR(c.pending.Reg)
	if !wrapped {
		c.SetPC((c.PC() & 0xF00) | c.pending.Addr)
		c.jumped = true
	}
}

// phaseX3 consumes a read-type RAM/IO op's result off the bus,
// releases the CPU's own driver, and advances the program counter.
func (c *Chip) phaseX3(b *bus.DataBus, ctrl *bus.ControlSignals) {
	if c.ready {
		switch c.pending.Op {
		case OpRDM, OpRD0, OpRD1, OpRD2, OpRD3, OpRDR:
			c.alu.Load(b.Read())
		case OpSBM:
			c.alu.Sub(b.Read())
		case OpADM:
			c.alu.Add(b.Read())
		}
	}
	b.Release(c.driverID)
	c.advancePC()
}

// advancePC applies the instruction's byte-length PC increment, unless
// execute() already redirected PC directly (a taken jump/call/return),
// or this is FIN's second cycle, whose indirect fetch consumes no byte
// of the instruction stream.
func (c *Chip) advancePC() {
	if c.jumped {
		return
	}
	if !c.cycle.SecondCycle {
		c.IncrementPC()
		return
	}
	if c.pending.Op != OpFIN {
		c.IncrementPC()
	}
}

// Debug renders a one-line state summary when debug logging is enabled.
func (c *Chip) Debug() string {
	if !c.debug {
		return ""
	}
	return fmt.Sprintf("4004 pc=%03X acc=%X cy=%v %s phase=%s instr=%d",
		c.PC(), c.alu.Acc, c.alu.Carry, c.pending.Mnemonic(), c.cycle.Phase, c.cycle.InstructionCount)
}
