// Package i4201 implements the Intel 4201: the MCS-40 single-phase
// clock generator chip. It is a behavioral stub; this simulator's
// bus.TwoPhaseClock already produces the two-phase waveform the 4201
// would generate from a crystal, so this type exists only to let a
// system assembly name the part in its topology.
package i4201

// Chip is an Intel 4201 clock generator placeholder.
type Chip struct{}

// New returns an I4201 placeholder.
func New() *Chip { return &Chip{} }

// Name implements chip.Chip.
func (c *Chip) Name() string { return "4201" }

// Reset is a no-op; the chip carries no state.
func (c *Chip) Reset() {}
