// Package core defines the time-ordered event scheduler and four-valued
// signal propagation engine that the MCS-4/MCS-40 bus and chip packages
// are built on top of.
package core

// Time is a monotonically non-decreasing simulated timestamp in
// picoseconds. No floating point appears anywhere on this hot path.
type Time uint64

// Delay is a duration in picoseconds, always used as a relative offset
// from the current simulated Time.
type Delay uint64

// Base time units, all expressed in picoseconds.
const (
	Picosecond = Delay(1)
	Nanosecond = 1000 * Picosecond
	Microsecond = 1000 * Nanosecond
	Millisecond = 1000 * Microsecond
)

// Gate propagation constants (example targets from the Intel MCS-4
// datasheet timing figures).
const (
	DelayINV   = 3 * Nanosecond
	DelayNAND2 = 5 * Nanosecond
	DelayNOR2  = 6 * Nanosecond
	DelayNAND3 = 7 * Nanosecond
	DelayNOR3  = 8 * Nanosecond
	DelayNAND4 = DelayNAND3 + 2*Nanosecond
	DelayNOR4  = DelayNOR3 + 2*Nanosecond
	DelayXOR2  = DelayNAND2 * 2
	DelayMUX2  = DelayNAND2 * 2
	DelayLatch = DelayINV * 2
	DelayDFF   = DelayNAND2 * 3

	// FanoutFactor is the additional propagation delay contributed by
	// each downstream gate input attached to a given output.
	FanoutFactor = 500 * Picosecond
)

// WithFanout computes the effective propagation delay for a gate with
// the given base delay and number of downstream loads.
func WithFanout(base Delay, fanout int) Delay {
	return base + Delay(fanout)*FanoutFactor
}

// Clock timing figures for a typical MCS-4 two-phase clock (picoseconds).
const (
	ClockPeriodTyp = Delay(1_350_000)
	ClockPeriodMin = Delay(1_350_000)
	ClockPeriodMax = Delay(2_000_000)
	ClockRiseTime  = Delay(50_000)
	ClockFallTime  = Delay(50_000)
	Phi1PulseMin   = Delay(380_000)
	Phi1PulseMax   = Delay(480_000)
	Phi1ToPhi2Min  = Delay(400_000)
	Phi1ToPhi2Max  = Delay(550_000)
	Phi2ToPhi1Min  = Delay(150_000)
)
