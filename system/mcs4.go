// Package system assembles CPU and memory chips into a runnable
// MCS-4/MCS-40 machine: it owns the shared bus and control lines,
// drives the 8-phase machine cycle across every participant in the
// order real hardware settles it, and exposes the run/breakpoint/load
// controls a front end (debugger, test harness, trace exporter) needs.
package system

import (
	"fmt"

	"github.com/mcs4/sim/bus"
	"github.com/mcs4/sim/core"
	"github.com/mcs4/sim/i4001"
	"github.com/mcs4/sim/i4002"
	"github.com/mcs4/sim/i4004"
	"github.com/mcs4/sim/trace"
)

// Mcs4System is a complete 4004-based machine: one CPU, a set of 4001
// ROM+I/O chips, and a set of 4002 RAM+output chips, sharing one data
// bus and one set of control lines.
type Mcs4System struct {
	cpu  *i4004.Chip
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

// Minimal builds the smallest useful 4004 system: one 4001 (chip id 0)
// and one 4002 (bank 0, chip 0).
func Minimal() (*Mcs4System, error) {
	return build(1, 1)
}

// Standard builds a typical 4004 development system: four 4001s and
// eight 4002s (2 banks of 4 chips each).
func Standard() (*Mcs4System, error) {
	return build(4, 8)
}

// Maximal builds the largest system the address space supports:
// sixteen 4001s (the full CM-ROM space) and sixteen 4002s (four banks
// of four chips each, the full CM-RAM x chip-select space).
func Maximal() (*Mcs4System, error) {
	return build(16, 16)
}

func build(numROM, numRAM int) (*Mcs4System, error) {
	cpuDef := &i4004.ChipDef{}
	cpu, err := i4004.Init(cpuDef)
	if err != nil {
		return nil, fmt.Errorf("init cpu: %w", err)
	}

	sched := core.NewScheduler(core.DefaultConfig())

	s := &Mcs4System{
		cpu:         cpu,
		dataBus:     bus.NewDataBus(),
		ctrl:        bus.NewMCS4ControlSignals(),
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

	// A freshly built system has not yet executed a DCL, so latch
	// bank 0 as selected from power-on; real firmware almost always
	// issues DCL early, but RAM should be reachable before it does.
	s.ctrl.SelectRAM(0)

	return s, nil
}

// tickPhase drives every participant through one bus phase, in the
// dispatch order real MCS-4 hardware settles it: on address phases the
// CPU asserts the address before memories latch it; on memory phases
// ROM drives the instruction byte before the CPU samples it; on X2 (the
// execute-phase write half) the CPU drives the accumulator before RAM
// or ROM latch it; on X1/X3 (select and read) memory settles before
// the CPU, since X3 is where a selected chip drives its read data for
// the CPU to sample.
func (s *Mcs4System) tickPhase(phase bus.BusCycle) {
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

// Step runs one complete 8-phase machine cycle and records a trace
// capture at its end.
func (s *Mcs4System) Step() {
	// Enqueue this cycle's PHI1/PHI2 rise/fall edges on the scheduler
	// before running the phases, then drain them once the cycle's
	// procedural dispatch is done. No participant reads PHI1/PHI2; the
	// edges only advance scheduler time.
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

func (s *Mcs4System) recordCapture(phase bus.BusCycle) {
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
func (s *Mcs4System) RunCycles(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// RunUntilBreakpoint steps the system until the CPU is about to fetch
// an instruction at a breakpointed address, or maxCycles machine
// cycles have elapsed, whichever comes first. It returns whether a
// breakpoint was hit.
func (s *Mcs4System) RunUntilBreakpoint(maxCycles int) bool {
	for i := 0; i < maxCycles; i++ {
		s.Step()
		if s.cpu.AtInstructionBoundary() && s.breakpoints[s.cpu.PC()] {
			return true
		}
	}
	return false
}

// AddBreakpoint arms a breakpoint at addr.
func (s *Mcs4System) AddBreakpoint(addr uint16) { s.breakpoints[addr&0xFFF] = true }

// RemoveBreakpoint disarms a breakpoint at addr.
func (s *Mcs4System) RemoveBreakpoint(addr uint16) { delete(s.breakpoints, addr&0xFFF) }

// ClearBreakpoints disarms every breakpoint.
func (s *Mcs4System) ClearBreakpoints() { s.breakpoints = make(map[uint16]bool) }

// Reset restores every chip and the shared bus/control lines to their
// post-reset state, then re-latches RAM bank 0 as selected.
func (s *Mcs4System) Reset() {
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
	s.ctrl = bus.NewMCS4ControlSignals()
	s.ctrl.SelectRAM(0)
	s.cycles = 0
	s.sched.Reset()
	s.rec.Clear()
}

// SetTestPin drives the CPU's TEST input (active low: asserted means
// logically low/true for JCN's test condition).
func (s *Mcs4System) SetTestPin(asserted bool) { s.ctrl.Test = !asserted }

// PC returns the CPU's program counter.
func (s *Mcs4System) PC() uint16 { return s.cpu.PC() }

// Accumulator returns the CPU's accumulator.
func (s *Mcs4System) Accumulator() uint8 { return s.cpu.Accumulator() }

// Carry returns the CPU's carry flag.
func (s *Mcs4System) Carry() bool { return s.cpu.Carry() }

// Register returns index register r (0-15).
func (s *Mcs4System) Register(r uint8) uint8 { return s.cpu.GetR(r) }

// RegisterPair returns register pair p (0-7) as an 8-bit value.
func (s *Mcs4System) RegisterPair(p uint8) uint8 { return s.cpu.GetPair(p) }

// Cycles returns the number of machine cycles executed since the last
// Reset.
func (s *Mcs4System) Cycles() uint64 { return s.cycles }

// Trace returns the signal-trace recorder accumulating one Capture per
// machine cycle.
func (s *Mcs4System) Trace() *trace.Recorder { return s.rec }

// LoadROM loads data into the ROM chip array starting at ROM address
// 0, splitting across chip boundaries (each 4001 holds 256 bytes) as
// needed; it silently truncates data that exceeds the populated ROM.
func (s *Mcs4System) LoadROM(data []byte) { s.LoadROMAt(0, data) }

// LoadROMAt loads data starting at the given absolute ROM address (0 to
// 256*len(roms)-1), splitting across chip boundaries as needed.
func (s *Mcs4System) LoadROMAt(addr uint16, data []byte) {
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
func (s *Mcs4System) ReadROM(chip int, addr uint8) uint8 {
	if chip < 0 || chip >= len(s.roms) {
		return 0
	}
	return s.roms[chip].ReadDirect(addr)
}

// ReadRAM reads a RAM character by bank/chip/register/char.
func (s *Mcs4System) ReadRAM(bank, chip uint8, reg, char uint8) uint8 {
	for _, r := range s.rams {
		if r.BankID() == bank && r.ChipID() == chip {
			return r.ReadDirect(reg, char)
		}
	}
	return 0
}

// WriteRAM writes a RAM character by bank/chip/register/char.
func (s *Mcs4System) WriteRAM(bank, chip uint8, reg, char, val uint8) {
	for _, r := range s.rams {
		if r.BankID() == bank && r.ChipID() == chip {
			r.WriteDirect(reg, char, val)
			return
		}
	}
}
