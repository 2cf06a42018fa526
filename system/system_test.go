package system

import (
	"testing"

	"github.com/go-test/deep"
)

func TestLDMLoadsAccumulator(t *testing.T) {
	s, err := Minimal()
	if err != nil {
		t.Fatalf("Minimal: %v", err)
	}
	s.LoadROM([]byte{0xD5}) // LDM 5
	s.RunCycles(1)
	if got := s.Accumulator(); got != 5 {
		t.Fatalf("Accumulator() = %#x, want 5", got)
	}
	if got := s.PC(); got != 1 {
		t.Fatalf("PC() = %#x, want 1", got)
	}
}

func TestLDMAddXCHSequence(t *testing.T) {
	s, err := Minimal()
	if err != nil {
		t.Fatalf("Minimal: %v", err)
	}
	// LDM 3; XCH R0 (save 3 into R0, acc becomes 0); LDM 4; ADD R0
	// (acc = 4 + 3 = 7).
	s.LoadROM([]byte{0xD3, 0xB0, 0xD4, 0x80})
	s.RunCycles(4)
	if got := s.Accumulator(); got != 7 {
		t.Fatalf("Accumulator() = %#x, want 7", got)
	}
}

func TestADDCarryPropagation(t *testing.T) {
	s, err := Minimal()
	if err != nil {
		t.Fatalf("Minimal: %v", err)
	}
	// LDM 0xF; XCH R0; LDM 2; ADD R0 -> 0xF + 2 = 0x11, acc=1 carry=1.
	s.LoadROM([]byte{0xDF, 0xB0, 0xD2, 0x80})
	s.RunCycles(4)
	if got := s.Accumulator(); got != 1 {
		t.Fatalf("Accumulator() = %#x, want 1", got)
	}
	if !s.Carry() {
		t.Fatalf("Carry() = false, want true after 0xF+2 overflow")
	}
}

func TestJUNJumps(t *testing.T) {
	s, err := Minimal()
	if err != nil {
		t.Fatalf("Minimal: %v", err)
	}
	s.LoadROM([]byte{0x41, 0x23}) // JUN 0x123
	s.RunCycles(2)
	if got := s.PC(); got != 0x123 {
		t.Fatalf("PC() = %#x, want 0x123", got)
	}
}

func TestJMSThenBBLReturns(t *testing.T) {
	s, err := Minimal()
	if err != nil {
		t.Fatalf("Minimal: %v", err)
	}
	// At 0: JMS 0x004 (2 cycles). At 4: BBL 7 (1 cycle, returns with
	// acc=7). Execution should resume at address 2, the instruction
	// following JMS.
	prog := make([]byte, 256)
	prog[0] = 0x50
	prog[1] = 0x04
	prog[4] = 0xC7
	s.LoadROM(prog)
	s.RunCycles(3)
	if got := s.PC(); got != 2 {
		t.Fatalf("PC() after return = %#x, want 2", got)
	}
	if got := s.Accumulator(); got != 7 {
		t.Fatalf("Accumulator() after BBL = %#x, want 7", got)
	}
}

func TestRunUntilBreakpointStopsAtTarget(t *testing.T) {
	s, err := Minimal()
	if err != nil {
		t.Fatalf("Minimal: %v", err)
	}
	// Three NOPs then an LDM; breakpoint set on the LDM's address.
	s.LoadROM([]byte{0x00, 0x00, 0x00, 0xD9})
	s.AddBreakpoint(3)
	hit := s.RunUntilBreakpoint(100)
	if !hit {
		t.Fatalf("RunUntilBreakpoint did not report a hit")
	}
	if got := s.PC(); got != 3 {
		t.Fatalf("PC() at breakpoint = %#x, want 3", got)
	}
	// The instruction at the breakpoint has not executed yet.
	if got := s.Accumulator(); got != 0 {
		t.Fatalf("Accumulator() = %#x, want 0 (LDM not yet executed)", got)
	}
}

func TestRunUntilBreakpointRespectsCycleBudget(t *testing.T) {
	s, err := Minimal()
	if err != nil {
		t.Fatalf("Minimal: %v", err)
	}
	s.LoadROM([]byte{0x00, 0x00, 0x00})
	s.AddBreakpoint(0xFF) // never reached
	if hit := s.RunUntilBreakpoint(3); hit {
		t.Fatalf("RunUntilBreakpoint reported a hit, want budget exhaustion")
	}
}

func TestResetPreservesROMClearsRAM(t *testing.T) {
	s, err := Standard()
	if err != nil {
		t.Fatalf("Standard: %v", err)
	}
	s.LoadROM([]byte{0xD5})
	s.WriteRAM(0, 0, 0, 0, 0xA)
	s.RunCycles(1)

	s.Reset()

	if got := s.ReadROM(0, 0); got != 0xD5 {
		t.Fatalf("ROM not preserved across Reset(): ReadROM(0,0) = %#x, want 0xD5", got)
	}
	if got := s.ReadRAM(0, 0, 0, 0); got != 0 {
		t.Fatalf("RAM not cleared across Reset(): ReadRAM = %#x, want 0", got)
	}
	if got := s.Accumulator(); got != 0 {
		t.Fatalf("Accumulator() after Reset() = %#x, want 0", got)
	}
	if got := s.PC(); got != 0 {
		t.Fatalf("PC() after Reset() = %#x, want 0", got)
	}
}

func TestTraceRecordsOneCapturePerStep(t *testing.T) {
	s, err := Minimal()
	if err != nil {
		t.Fatalf("Minimal: %v", err)
	}
	s.LoadROM([]byte{0x00, 0x00, 0x00})
	s.RunCycles(3)
	if got := s.Trace().Len(); got != 3 {
		t.Fatalf("Trace().Len() = %d, want 3", got)
	}
}

func TestSRCAddressedRAMRoundTrip(t *testing.T) {
	s, err := Standard()
	if err != nil {
		t.Fatalf("Standard: %v", err)
	}
	// FIM P0, 0x00 (select chip/register/char via R0R1); SRC P0; LDM 6; WRM
	// (write acc into the RAM char SRC points at); then read it back
	// through the back door.
	prog := []byte{
		0x20, 0x00, // FIM P0, 0x00 -> chip 0 reg 0 char 0
		0x21,       // SRC P0
		0xD6,       // LDM 6
		0xE0,       // WRM
	}
	s.LoadROM(prog)
	s.RunCycles(5) // FIM costs 2 cycles; SRC, LDM, WRM cost 1 each

	if got := s.ReadRAM(0, 0, 0, 0); got != 6 {
		t.Fatalf("ReadRAM(0,0,0,0) = %#x, want 6", got)
	}
}

func TestMcs40HaltStopsExecution(t *testing.T) {
	s, err := Minimal40()
	if err != nil {
		t.Fatalf("Minimal40: %v", err)
	}
	s.LoadROM([]byte{0x01, 0xD5}) // HLT; LDM 5 (should never execute)
	s.RunCycles(1)
	if !s.Halted() {
		t.Fatalf("Halted() = false after HLT")
	}
	s.RunCycles(5)
	if got := s.Accumulator(); got != 0 {
		t.Fatalf("Accumulator() = %#x, want 0 (halted CPU must not execute past HLT)", got)
	}
}

func TestTraceWallTimeAdvancesEachCycle(t *testing.T) {
	s, err := Minimal()
	if err != nil {
		t.Fatalf("Minimal: %v", err)
	}
	s.LoadROM([]byte{0x00, 0x00, 0x00})
	s.RunCycles(3)

	frames := s.Trace().Frames()
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].WallTime <= frames[i-1].WallTime {
			t.Fatalf("WallTime did not advance: frame %d = %d, frame %d = %d", i-1, frames[i-1].WallTime, i, frames[i].WallTime)
		}
	}
}

func TestSnapshotComparisonWithDeep(t *testing.T) {
	a, err := Minimal()
	if err != nil {
		t.Fatalf("Minimal: %v", err)
	}
	b, err := Minimal()
	if err != nil {
		t.Fatalf("Minimal: %v", err)
	}
	prog := []byte{0xD5}
	a.LoadROM(prog)
	b.LoadROM(prog)
	a.RunCycles(1)
	b.RunCycles(1)

	type snapshot struct {
		PC  uint16
		Acc uint8
	}
	got := snapshot{PC: a.PC(), Acc: a.Accumulator()}
	want := snapshot{PC: b.PC(), Acc: b.Accumulator()}
	if diff := deep.Equal(got, want); diff != nil {
		t.Fatalf("snapshots diverged: %v", diff)
	}
}
