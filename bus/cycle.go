package bus

// BusCycle is the 8-phase machine-cycle state machine of the MCS-4 bus.
type BusCycle int

const (
	A1 BusCycle = iota
	A2
	A3
	M1
	M2
	X1
	X2
	X3
)

// Next returns the cyclic successor phase (X3 wraps to A1).
func (p BusCycle) Next() BusCycle {
	if p == X3 {
		return A1
	}
	return p + 1
}

// IsAddressPhase reports whether p is one of A1..A3.
func (p BusCycle) IsAddressPhase() bool { return p >= A1 && p <= A3 }

// IsMemoryPhase reports whether p is one of M1..M2.
func (p BusCycle) IsMemoryPhase() bool { return p == M1 || p == M2 }

// IsExecutionPhase reports whether p is one of X1..X3.
func (p BusCycle) IsExecutionPhase() bool { return p >= X1 && p <= X3 }

// PhaseNumber returns the 1-based position of p within its group
// (e.g. A2 -> 2, X3 -> 3).
func (p BusCycle) PhaseNumber() int {
	switch {
	case p.IsAddressPhase():
		return int(p-A1) + 1
	case p.IsMemoryPhase():
		return int(p-M1) + 1
	default:
		return int(p-X1) + 1
	}
}

func (p BusCycle) String() string {
	switch p {
	case A1:
		return "A1"
	case A2:
		return "A2"
	case A3:
		return "A3"
	case M1:
		return "M1"
	case M2:
		return "M2"
	case X1:
		return "X1"
	case X2:
		return "X2"
	case X3:
		return "X3"
	default:
		return "?"
	}
}

// MachineState names where a CPU sits with respect to the current
// instruction's fetch/execute pipeline.
type MachineState int

const (
	Fetch1 MachineState = iota
	Fetch2
	Execute
	Halted
	InterruptAck
)

// IsFetching reports whether the CPU is in either fetch state.
func (m MachineState) IsFetching() bool { return m == Fetch1 || m == Fetch2 }

// CycleState tracks the current bus phase together with the
// instruction-boundary bookkeeping (two-byte sequencing, cycle and
// instruction counters) needed to drive MachineState transitions.
type CycleState struct {
	Phase            BusCycle
	State            MachineState
	CycleCount       uint64
	InstructionCount uint64
	TwoCycle         bool
	SecondCycle      bool
}

// NewCycleState returns a CycleState reset to A1/Fetch1.
func NewCycleState() *CycleState {
	return &CycleState{Phase: A1, State: Fetch1}
}

// Advance moves to the next bus phase. On an X3->A1 rollover it
// increments CycleCount and applies the machine-state transition table
// from the bus-cycle design: Fetch1 with TwoCycle set moves to
// Fetch2/SecondCycle; Fetch1 without TwoCycle, or Fetch2, increments
// InstructionCount and (for Fetch2) clears the two-byte flags; Execute
// returns to Fetch1; Halted/InterruptAck are sticky until an external
// stimulus (reset or interrupt service) changes them directly.
func (c *CycleState) Advance() {
	rollover := c.Phase == X3
	c.Phase = c.Phase.Next()
	if !rollover {
		return
	}
	c.CycleCount++
	switch c.State {
	case Fetch1:
		if c.TwoCycle {
			c.State = Fetch2
			c.SecondCycle = true
		} else {
			c.State = Fetch1
			c.InstructionCount++
		}
	case Fetch2:
		c.State = Fetch1
		c.InstructionCount++
		c.TwoCycle = false
		c.SecondCycle = false
	case Execute:
		c.State = Fetch1
	case Halted, InterruptAck:
		// Sticky: only external stimulus changes these.
	}
}

// Timing-contract constants: the bus phase at which each control line
// must be valid.
const (
	SyncAssertPhase   = A1
	SyncDeassertPhase = A2
	CMROMValidPhase   = A3
	CMRAMValidPhase   = X2
)
