// Package bus implements the MCS-4 bus protocol: the two-phase clock,
// the multiplexed 4-bit data bus with tri-state arbitration, the
// SYNC/CM-ROM/CM-RAM control lines, and the 8-phase machine-cycle
// state machine.
package bus

import "github.com/mcs4/sim/core"

// ClockConfig parameterizes a TwoPhaseClock.
type ClockConfig struct {
	Period         core.Delay
	Phi1Width      core.Delay
	Phi2Width      core.Delay
	Phi1ToPhi2     core.Delay
	Phi2ToPhi1     core.Delay
	RiseTime       core.Delay
	FallTime       core.Delay
}

// DefaultClockConfig returns the typical MCS-4 clock timing figures
// (740 kHz, 1,350,000 ps period).
func DefaultClockConfig() ClockConfig {
	return ClockConfig{
		Period:     core.ClockPeriodTyp,
		Phi1Width:  core.Phi1PulseMin,
		Phi2Width:  core.Phi1PulseMin,
		Phi1ToPhi2: core.Phi1ToPhi2Min,
		Phi2ToPhi1: core.Phi2ToPhi1Min,
		RiseTime:   core.ClockRiseTime,
		FallTime:   core.ClockFallTime,
	}
}

// ForFrequency derives a clock configuration for an arbitrary
// frequency in Hz, keeping the typical duty-cycle proportions.
func ForFrequency(hz uint64) ClockConfig {
	period := core.Delay(1_000_000_000_000 / hz)
	cfg := DefaultClockConfig()
	cfg.Period = period
	cfg.Phi1Width = period * 2 / 7
	cfg.Phi2Width = period * 2 / 7
	cfg.Phi1ToPhi2 = period / 7
	cfg.Phi2ToPhi1 = period / 14
	return cfg
}

// ClockEdge names the transition produced by a single TwoPhaseClock.Tick call.
type ClockEdge int

const (
	EdgeNone ClockEdge = iota
	EdgePhi1Rising
	EdgePhi1Falling
	EdgePhi2Rising
	EdgePhi2Falling
)

// IsRising reports whether e is a rising edge of either phase.
func (e ClockEdge) IsRising() bool { return e == EdgePhi1Rising || e == EdgePhi2Rising }

// IsFalling reports whether e is a falling edge of either phase.
func (e ClockEdge) IsFalling() bool { return e == EdgePhi1Falling || e == EdgePhi2Falling }

// IsPhi1 reports whether e is an edge of PHI1.
func (e ClockEdge) IsPhi1() bool { return e == EdgePhi1Rising || e == EdgePhi1Falling }

// IsPhi2 reports whether e is an edge of PHI2.
func (e ClockEdge) IsPhi2() bool { return e == EdgePhi2Rising || e == EdgePhi2Falling }

// TwoPhaseClock generates non-overlapping PHI1/PHI2 pulses, either by
// enqueuing a run of events onto a core.Scheduler (schedule mode) or by
// stepping phase-by-phase under caller control (tick mode).
type TwoPhaseClock struct {
	cfg        ClockConfig
	phase      ClockEdge
	phaseStart core.Time
	cycles     uint64
}

// NewTwoPhaseClock builds a clock generator with the given configuration.
func NewTwoPhaseClock(cfg ClockConfig) *TwoPhaseClock {
	return &TwoPhaseClock{cfg: cfg, phase: EdgeNone}
}

// DefaultTwoPhaseClock builds a clock generator using
// DefaultClockConfig.
func DefaultTwoPhaseClock() *TwoPhaseClock {
	return NewTwoPhaseClock(DefaultClockConfig())
}

// Cycles returns the number of complete PHI1/PHI2 periods ticked so far.
func (c *TwoPhaseClock) Cycles() uint64 { return c.cycles }

// ScheduleEvents enqueues rising/falling edges for n periods starting
// at start: PHI1 rises at t, falls at t+Phi1Width; PHI2 rises at
// t+Phi1Width+Phi1ToPhi2, falls Phi2Width later; the next period
// begins Phi2ToPhi1 after that.
func (c *TwoPhaseClock) ScheduleEvents(sched *core.Scheduler, phi1, phi2 core.SignalID, start core.Time, n int) error {
	t := start
	for i := 0; i < n; i++ {
		if err := sched.Schedule(t, phi1, core.High, core.SourceClock); err != nil {
			return err
		}
		t += core.Time(c.cfg.Phi1Width)
		if err := sched.Schedule(t, phi1, core.Low, core.SourceClock); err != nil {
			return err
		}
		t2 := t + core.Time(c.cfg.Phi1ToPhi2)
		if err := sched.Schedule(t2, phi2, core.High, core.SourceClock); err != nil {
			return err
		}
		t2 += core.Time(c.cfg.Phi2Width)
		if err := sched.Schedule(t2, phi2, core.Low, core.SourceClock); err != nil {
			return err
		}
		t = t2 + core.Time(c.cfg.Phi2ToPhi1)
	}
	return nil
}

// Tick advances the clock's internal phase state machine by one step
// and returns which edge occurred. The clock holds no PHI1/PHI2 level
// or signal of its own; callers track the levels from the returned
// edge. The sequence cycles Phi1Rising -> Phi1Falling -> Phi2Rising ->
// Phi2Falling -> None, incrementing the cycle counter on the final
// falling edge.
func (c *TwoPhaseClock) Tick(now core.Time) ClockEdge {
	switch c.phase {
	case EdgeNone:
		c.phase = EdgePhi1Rising
	case EdgePhi2Falling:
		c.phase = EdgeNone
	case EdgePhi1Rising:
		c.phase = EdgePhi1Falling
	case EdgePhi1Falling:
		c.phase = EdgePhi2Rising
	case EdgePhi2Rising:
		c.phase = EdgePhi2Falling
		c.cycles++
	}
	c.phaseStart = now
	return c.phase
}
