package bus

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/mcs4/sim/core"
)

func TestDataBusResolution(t *testing.T) {
	b := NewDataBus()
	idA := b.AddDriver("A")
	idB := b.AddDriver("B")

	if got := b.Read(); got != 0 || b.IsValid() {
		t.Fatalf("idle bus: read=%d valid=%v, want 0/false\n%s", got, b.IsValid(), spew.Sdump(b))
	}

	b.Drive(idA, 0b1010)
	if got := b.Read(); got != 0b1010 || !b.IsValid() {
		t.Fatalf("single driver: read=%04b valid=%v", got, b.IsValid())
	}

	b.Drive(idB, 0b0101)
	if !b.HasContention() {
		t.Fatalf("disagreeing drivers should contend")
	}
	if got := b.Read(); got == 0b1010 || got == 0b0101 {
		t.Fatalf("contended read should not equal either driver's value, got %04b", got)
	}

	b.Release(idB)
	if got := b.Read(); got != 0b1010 || b.HasContention() {
		t.Fatalf("after release: read=%04b contend=%v, want 1010/false", got, b.HasContention())
	}

	b.Release(idA)
	if b.IsValid() {
		t.Fatalf("idle after release should not be valid")
	}
}

func TestScheduleEventsEnqueuesOnePeriod(t *testing.T) {
	sched := core.NewScheduler(core.DefaultConfig())
	phi1 := sched.AllocSignal("PHI1", core.Low)
	phi2 := sched.AllocSignal("PHI2", core.Low)
	c := DefaultTwoPhaseClock()

	if err := c.ScheduleEvents(sched, phi1, phi2, 0, 1); err != nil {
		t.Fatalf("ScheduleEvents: %v", err)
	}

	var edges int
	for {
		if _, ok := sched.Step(); !ok {
			break
		}
		edges++
	}
	if edges != 4 {
		t.Fatalf("events processed = %d, want 4 (phi1 rise/fall, phi2 rise/fall)", edges)
	}
	if got := sched.Level(phi1); got != core.Low {
		t.Fatalf("PHI1 after one period = %v, want Low", got)
	}
	if got := sched.Level(phi2); got != core.Low {
		t.Fatalf("PHI2 after one period = %v, want Low", got)
	}
}

func TestAddress12Nibbles(t *testing.T) {
	a := NewAddress12FromNibbles(0x5, 0x3, 0x1)
	if a.Value != 0x135 {
		t.Fatalf("Value = %#x, want 0x135", a.Value)
	}
	if a.Page() != 0x1 {
		t.Fatalf("Page() = %#x, want 0x1", a.Page())
	}
	if a.Offset() != 0x35 {
		t.Fatalf("Offset() = %#x, want 0x35", a.Offset())
	}
}

func TestByte8OPRAndOPA(t *testing.T) {
	b := NewByte8FromNibbles(0x5, 0xD) // M1=low=5 (OPA), M2=high=D (OPR)
	if b.OPR() != 0xD {
		t.Fatalf("OPR() = %#x, want 0xD", b.OPR())
	}
	if b.OPA() != 0x5 {
		t.Fatalf("OPA() = %#x, want 0x5", b.OPA())
	}
}

func TestCycleStateAdvanceSingleByte(t *testing.T) {
	cs := NewCycleState()
	for i := 0; i < 7; i++ {
		cs.Advance()
	}
	if cs.Phase != X3 {
		t.Fatalf("after 7 advances phase = %v, want X3", cs.Phase)
	}
	if cs.InstructionCount != 0 {
		t.Fatalf("instruction count should not increment before rollover")
	}
	cs.Advance() // X3 -> A1 rollover
	if cs.Phase != A1 {
		t.Fatalf("phase = %v, want A1", cs.Phase)
	}
	if cs.InstructionCount != 1 {
		t.Fatalf("instruction count = %d, want 1 for single-byte instruction", cs.InstructionCount)
	}
}

func TestCycleStateAdvanceTwoByte(t *testing.T) {
	cs := NewCycleState()
	cs.TwoCycle = true
	for i := 0; i < 8; i++ {
		cs.Advance()
	}
	if cs.State != Fetch2 || !cs.SecondCycle {
		t.Fatalf("after first cycle: state=%v secondCycle=%v, want Fetch2/true", cs.State, cs.SecondCycle)
	}
	if cs.InstructionCount != 0 {
		t.Fatalf("instruction count should not increment after only first of two cycles")
	}
	for i := 0; i < 8; i++ {
		cs.Advance()
	}
	if cs.InstructionCount != 1 {
		t.Fatalf("instruction count = %d, want 1 after both cycles of a two-byte instruction", cs.InstructionCount)
	}
	if cs.TwoCycle || cs.SecondCycle {
		t.Fatalf("two-byte flags should clear after Fetch2 completes")
	}
}

func TestClockNeverOverlaps(t *testing.T) {
	c := DefaultTwoPhaseClock()
	phi1, phi2 := false, false
	for i := core.Time(0); i < 10; i++ {
		switch c.Tick(i) {
		case EdgePhi1Rising:
			phi1 = true
		case EdgePhi1Falling:
			phi1 = false
		case EdgePhi2Rising:
			phi2 = true
		case EdgePhi2Falling:
			phi2 = false
		}
		if phi1 && phi2 {
			t.Fatalf("PHI1 and PHI2 both high at tick %d", i)
		}
	}
}
