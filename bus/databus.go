package bus

import (
	"fmt"
	"log"

	"github.com/mcs4/sim/core"
)

// BusDriver is a named, tokenized driver onto the data bus. Only the
// holder identified by the id returned from AddDriver may mutate its
// own active/value fields (via DataBus.Drive/Release).
type BusDriver struct {
	Name   string
	Active bool
	Value  uint8 // low 4 bits significant
}

// DataBus is the 4-bit multiplexed, bidirectional bus shared by the
// CPU, ROM, and RAM chips. At most one driver may be active without
// causing contention; resolution happens on every Drive/Release call.
type DataBus struct {
	lines   uint8 // resolved nibble, meaningful only when valid
	valid   bool
	contend bool
	drivers []*BusDriver
}

// NewDataBus returns an idle (all-Z) data bus.
func NewDataBus() *DataBus {
	return &DataBus{}
}

// AddDriver registers a new named driver, inactive by default, and
// returns its id for use with Drive/Release.
func (b *DataBus) AddDriver(name string) int {
	b.drivers = append(b.drivers, &BusDriver{Name: name})
	return len(b.drivers) - 1
}

// Drive marks driver id active with the given nibble and resolves the
// bus.
func (b *DataBus) Drive(id int, value uint8) {
	b.drivers[id].Active = true
	b.drivers[id].Value = value & 0xF
	b.resolve()
}

// Release marks driver id inactive and resolves the bus.
func (b *DataBus) Release(id int) {
	b.drivers[id].Active = false
	b.resolve()
}

// resolve recomputes the bus's resolved value from the current set of
// active drivers, one bit at a time, by running each bit position
// through core.Resolve: no active drivers -> tri-state (Z); a single
// active driver, or several agreeing, -> that driver's value;
// disagreeing drivers on any bit -> contention (X) on the whole
// nibble, matching real open-collector/tri-state bus-fight behavior
// rather than just the low 4 bits being independently correct.
func (b *DataBus) resolve() {
	var active []*BusDriver
	for _, d := range b.drivers {
		if d.Active {
			active = append(active, d)
		}
	}
	if len(active) == 0 {
		b.valid = false
		b.contend = false
		b.lines = 0
		return
	}

	var nibble uint8
	contended := false
	levels := make([]core.SignalLevel, len(active))
	for bit := uint(0); bit < 4; bit++ {
		for i, d := range active {
			if d.Value&(1<<bit) != 0 {
				levels[i] = core.High
			} else {
				levels[i] = core.Low
			}
		}
		switch core.Resolve(levels) {
		case core.High:
			nibble |= 1 << bit
		case core.X:
			contended = true
		}
	}

	if contended {
		b.valid = false
		b.contend = true
		b.lines = 0
		var names []string
		for _, d := range active {
			names = append(names, fmt.Sprintf("%s=%X", d.Name, d.Value))
		}
		log.Printf("bus contention among drivers: %v", names)
		return
	}
	b.valid = true
	b.contend = false
	b.lines = nibble
}

// Read returns the bus's current resolved nibble (0 when tri-stated or
// contended).
func (b *DataBus) Read() uint8 { return b.lines }

// IsValid reports whether every bus line currently carries a defined
// value (exactly one driver, or multiple agreeing drivers).
func (b *DataBus) IsValid() bool { return b.valid }

// HasContention reports whether two or more active drivers currently
// disagree.
func (b *DataBus) HasContention() bool { return b.contend }

// Address12 assembles a 12-bit program-counter value from the three
// address-phase nibbles (A1=low, A2=mid, A3=high).
type Address12 struct {
	Value uint16
}

// NewAddress12FromNibbles builds an Address12 from the A1/A2/A3 phase
// nibbles.
func NewAddress12FromNibbles(a1, a2, a3 uint8) Address12 {
	return Address12{Value: uint16(a1&0xF) | uint16(a2&0xF)<<4 | uint16(a3&0xF)<<8}
}

// Page returns the high nibble (ROM chip selector, bits 8-11).
func (a Address12) Page() uint8 { return uint8(a.Value>>8) & 0xF }

// Offset returns the low byte (bits 0-7, the in-chip ROM address).
func (a Address12) Offset() uint8 { return uint8(a.Value & 0xFF) }

// NibbleA1 returns the low nibble (bits 0-3).
func (a Address12) NibbleA1() uint8 { return uint8(a.Value & 0xF) }

// NibbleA2 returns the middle nibble (bits 4-7).
func (a Address12) NibbleA2() uint8 { return uint8(a.Value>>4) & 0xF }

// NibbleA3 returns the high nibble (bits 8-11).
func (a Address12) NibbleA3() uint8 { return uint8(a.Value>>8) & 0xF }

// Byte8 assembles an 8-bit instruction byte from the two memory-phase
// nibbles (M1=low/OPA, M2=high/OPR).
type Byte8 struct {
	Value uint8
}

// NewByte8FromNibbles builds a Byte8 from the M1/M2 phase nibbles.
func NewByte8FromNibbles(m1, m2 uint8) Byte8 {
	return Byte8{Value: (m2&0xF)<<4 | (m1 & 0xF)}
}

// OPR returns the high nibble (opcode group).
func (b Byte8) OPR() uint8 { return (b.Value >> 4) & 0xF }

// OPA returns the low nibble (opcode argument/sub-op).
func (b Byte8) OPA() uint8 { return b.Value & 0xF }

// NibbleM1 returns the low nibble, as driven during phase M1.
func (b Byte8) NibbleM1() uint8 { return b.Value & 0xF }

// NibbleM2 returns the high nibble, as driven during phase M2.
func (b Byte8) NibbleM2() uint8 { return (b.Value >> 4) & 0xF }
