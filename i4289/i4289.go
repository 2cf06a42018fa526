// Package i4289 implements the Intel 4289: the MCS-40 standard memory
// interface, which lets 4040 systems address conventional byte-wide
// ROM/RAM instead of 4001/4002 parts. It is a behavioral stub; this
// simulator's i4101/i4308 stand in directly for the memories it would
// front, so no address-translation logic is modeled here.
package i4289

// Chip is an Intel 4289 standard memory interface placeholder.
type Chip struct{}

// New returns an I4289 placeholder.
func New() *Chip { return &Chip{} }

// Name implements chip.Chip.
func (c *Chip) Name() string { return "4289" }

// Reset is a no-op; the chip carries no state.
func (c *Chip) Reset() {}
