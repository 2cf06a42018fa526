package system

import (
	"fmt"

	"github.com/mcs4/sim/bus"
	"github.com/mcs4/sim/core"
	"github.com/mcs4/sim/i4001"
	"github.com/mcs4/sim/i4002"
	"github.com/mcs4/sim/i4040"
	"github.com/mcs4/sim/trace"
)

// Mcs40System is a complete 4040-based machine. It reuses the same
// 4001/4002 memory chips and bus protocol as Mcs4System; the 4040 CPU
// adds banked registers, a deeper stack, and a single maskable
// interrupt line that this type exposes via RequestInterrupt.
type Mcs40System struct {
	cpu  *i4040.Chip
	roms []*i4001.Chip
	rams []*i4002.Chip

	dataBus *bus.DataBus
	ctrl    *bus.ControlSignals
	clock   *bus.TwoPhaseClock

	// sched drives PHI1/PHI2 as real, picosecond-delay scheduler
	// signals: ScheduleEvents enqueues one period's worth of edges each
	// Step, and RunEvents drains them, so each trace Capture's WallTime
	// carries picosecond scheduler time alongside the bare cycle count
	// that Cycles and Capture.Timestamp report.
	sched      *core.Scheduler
	phi1, phi2 core.SignalID

	cycles uint64

	breakpoints map[uint16]bool
	rec         *trace.Recorder
}

// Minimal40 builds the smallest useful 4040 system: one 4001 and one 4002.
func Minimal40() (*Mcs40System, error) {
	return build40(1, 1)
}

// Standard40 builds a typical 4040 development system: four 4001s and
// eight 4002s (2 banks of 4 chips each).
func Standard40() (*Mcs40System, error) {
	return build40(4, 8)
}

// Maximal40 builds the largest system the address space supports:
// sixteen 4001s and sixteen 4002s across four banks.
func Maximal40() (*Mcs40System, error) {
	return build40(16, 16)
}

func build40(numROM, numRAM int) (*Mcs40System, error) {
	cpu, err := i4040.Init(&i4040.ChipDef{})
	if err != nil {
		return nil, fmt.Errorf("init cpu: %w", err)
	}

	sched := core.NewScheduler(core.DefaultConfig())

	s := &Mcs40System{
		cpu:         cpu,
		dataBus:     bus.NewDataBus(),
		ctrl:        bus.NewMCS40ControlSignals(),
		clock:       bus.DefaultTwoPhaseClock(),
		sched:       sched,
		phi1:        sched.AllocSignal("PHI1", core.Low),
		phi2:        sched.AllocSignal("PHI2", core.Low),
		breakpoints: make(map[uint16]bool),
		rec:         trace.NewRecorder(),
	}

	cpu.AttachDriver(s.dataBus.AddDriver("cpu"))

	for i := 0; i < numROM; i++ {
		rom, err := i4001.Init(&i4001.ChipDef{ChipID: uint8(i)})
		if err != nil {
			return nil, fmt.Errorf("init rom %d: %w", i, err)
		}
		rom.AttachDriver(s.dataBus.AddDriver(fmt.Sprintf("rom%d", i)))
		s.roms = append(s.roms, rom)
	}

	for i := 0; i < numRAM; i++ {
		bank := uint8(i / 4)
		chip := uint8(i % 4)
		ram, err := i4002.Init(&i4002.ChipDef{ChipID: chip, BankID: bank})
		if err != nil {
			return nil, fmt.Errorf("init ram %d: %w", i, err)
		}
		ram.AttachDriver(s.dataBus.AddDriver(fmt.Sprintf("ram%d.%d", bank, chip)))
		s.rams = append(s.rams, ram)
	}

	s.ctrl.SelectRAM(0)

	return s, nil
}

// tickPhase drives every participant through one bus phase, in the
// same order as Mcs4System.tickPhase: the 4040's extensions change
// what happens at a given phase, never the phase dispatch order
// itself, since they share one bus protocol.
func (s *Mcs40System) tickPhase(phase bus.BusCycle) {
	switch {
	case phase.IsAddressPhase():
		s.cpu.TickBus(phase, s.dataBus, s.ctrl)
		for _, r := range s.roms {
			r.TickBus(phase, s.dataBus, s.ctrl)
		}
		for _, r := range s.rams {
			r.TickBus(phase, s.dataBus, s.ctrl)
		}
	case phase.IsMemoryPhase():
		for _, r := range s.roms {
			r.TickBus(phase, s.dataBus, s.ctrl)
		}
		s.cpu.TickBus(phase, s.dataBus, s.ctrl)
	case phase == bus.X2:
		s.cpu.TickBus(phase, s.dataBus, s.ctrl)
		for _, r := range s.rams {
			r.TickBus(phase, s.dataBus, s.ctrl)
		}
		for _, r := range s.roms {
			r.TickBus(phase, s.dataBus, s.ctrl)
		}
	default: // X1, X3
		for _, r := range s.rams {
			r.TickBus(phase, s.dataBus, s.ctrl)
		}
		for _, r := range s.roms {
			r.TickBus(phase, s.dataBus, s.ctrl)
		}
		s.cpu.TickBus(phase, s.dataBus, s.ctrl)
	}
}

// Step runs one complete 8-phase machine cycle.
func (s *Mcs40System) Step() {
	_ = s.clock.ScheduleEvents(s.sched, s.phi1, s.phi2, s.sched.Now(), 1)

	for phase := bus.A1; ; phase = phase.Next() {
		s.tickPhase(phase)
		s.clock.Tick(core.Time(s.cycles))
		if phase == bus.X3 {
			s.cycles++
			break
		}
	}

	s.sched.RunEvents(4)
	s.recordCapture(bus.X3)
}

func (s *Mcs40System) recordCapture(phase bus.BusCycle) {
	rom, _ := s.ctrl.SelectedROM()
	ram, _ := s.ctrl.SelectedRAM()
	s.rec.Record(trace.Capture{
		Timestamp: s.cycles,
		WallTime:  s.sched.Now(),
		Sync:      s.ctrl.Sync,
		DataBus:   s.dataBus.Read(),
		CMROM:     rom,
		CMRAM:     ram,
		Phase:     phase,
	})
}

// RunCycles steps the system n machine cycles.
func (s *Mcs40System) RunCycles(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// RunUntilBreakpoint steps until the CPU is at an instruction boundary
// on a breakpointed address, the CPU halts (HLT), or maxCycles is
// reached. It returns whether a breakpoint was hit (a HLT stop returns
// false, distinguishing the two causes for the caller).
func (s *Mcs40System) RunUntilBreakpoint(maxCycles int) bool {
	for i := 0; i < maxCycles; i++ {
		if s.cpu.Halted() {
			return false
		}
		s.Step()
		if s.cpu.AtInstructionBoundary() && s.breakpoints[s.cpu.PC()] {
			return true
		}
	}
	return false
}

// AddBreakpoint arms a breakpoint at addr.
func (s *Mcs40System) AddBreakpoint(addr uint16) { s.breakpoints[addr&0xFFF] = true }

// RemoveBreakpoint disarms a breakpoint at addr.
func (s *Mcs40System) RemoveBreakpoint(addr uint16) { delete(s.breakpoints, addr&0xFFF) }

// ClearBreakpoints disarms every breakpoint.
func (s *Mcs40System) ClearBreakpoints() { s.breakpoints = make(map[uint16]bool) }

// Reset restores every chip and the shared bus/control lines.
func (s *Mcs40System) Reset() {
	s.cpu.Reset()
	for _, r := range s.roms {
		r.Reset()
	}
	for _, r := range s.rams {
		r.Reset()
	}
	s.dataBus = bus.NewDataBus()
	s.cpu.AttachDriver(s.dataBus.AddDriver("cpu"))
	for i, r := range s.roms {
		r.AttachDriver(s.dataBus.AddDriver(fmt.Sprintf("rom%d", i)))
	}
	for i, r := range s.rams {
		r.AttachDriver(s.dataBus.AddDriver(fmt.Sprintf("ram%d", i)))
	}
	s.ctrl = bus.NewMCS40ControlSignals()
	s.ctrl.SelectRAM(0)
	s.cycles = 0
	s.sched.Reset()
	s.rec.Clear()
}

// SetTestPin drives the CPU's TEST input.
func (s *Mcs40System) SetTestPin(asserted bool) { s.ctrl.Test = !asserted }

// RequestInterrupt raises the 4040's single maskable interrupt line;
// it is serviced at the next instruction boundary if EIN is in
// effect.
func (s *Mcs40System) RequestInterrupt() { s.cpu.RequestInterrupt() }

// Halted reports whether the CPU has executed HLT and is idling.
func (s *Mcs40System) Halted() bool { return s.cpu.Halted() }

// PC returns the CPU's program counter.
func (s *Mcs40System) PC() uint16 { return s.cpu.PC() }

// Accumulator returns the CPU's accumulator.
func (s *Mcs40System) Accumulator() uint8 { return s.cpu.Accumulator() }

// Carry returns the CPU's carry flag.
func (s *Mcs40System) Carry() bool { return s.cpu.Carry() }

// Register returns logical index register r (0-15); r 0-7 read from
// the currently selected bank.
func (s *Mcs40System) Register(r uint8) uint8 { return s.cpu.GetR(r) }

// RegisterPair returns register pair p as an 8-bit value.
func (s *Mcs40System) RegisterPair(p uint8) uint8 { return s.cpu.GetPair(p) }

// Bank returns the CPU's currently selected register bank (0 or 1).
func (s *Mcs40System) Bank() uint8 { return s.cpu.Bank() }

// Cycles returns the number of machine cycles executed since the last
// Reset.
func (s *Mcs40System) Cycles() uint64 { return s.cycles }

// Trace returns the signal-trace recorder.
func (s *Mcs40System) Trace() *trace.Recorder { return s.rec }

// LoadROM loads data into the ROM chip array starting at ROM address 0.
func (s *Mcs40System) LoadROM(data []byte) { s.LoadROMAt(0, data) }

// LoadROMAt loads data starting at the given absolute ROM address.
func (s *Mcs40System) LoadROMAt(addr uint16, data []byte) {
	for len(data) > 0 && addr < uint16(256*len(s.roms)) {
		chip := addr / 256
		offset := uint8(addr % 256)
		n := 256 - int(offset)
		if n > len(data) {
			n = len(data)
		}
		s.roms[chip].LoadAt(offset, data[:n])
		data = data[n:]
		addr += uint16(n)
	}
}

// ReadROM reads a byte from the ROM address space by chip/offset.
func (s *Mcs40System) ReadROM(chip int, addr uint8) uint8 {
	if chip < 0 || chip >= len(s.roms) {
		return 0
	}
	return s.roms[chip].ReadDirect(addr)
}

// ReadRAM reads a RAM character by bank/chip/register/char.
func (s *Mcs40System) ReadRAM(bank, chip uint8, reg, char uint8) uint8 {
	for _, r := range s.rams {
		if r.BankID() == bank && r.ChipID() == chip {
			return r.ReadDirect(reg, char)
		}
	}
	return 0
}

// WriteRAM writes a RAM character by bank/chip/register/char.
func (s *Mcs40System) WriteRAM(bank, chip uint8, reg, char, val uint8) {
	for _, r := range s.rams {
		if r.BankID() == bank && r.ChipID() == chip {
			r.WriteDirect(reg, char, val)
			return
		}
	}
}
