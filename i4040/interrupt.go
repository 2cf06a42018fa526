package i4040

// InterruptController tracks the 4040's single external interrupt
// line: whether servicing is currently enabled (EIN/DIN), whether a
// request is latched pending service, and the saved program counter
// and bank used to resume after BBS.
type InterruptController struct {
	enabled bool
	pending bool
	active  bool // true while a service routine is running

	savedPC   uint16
	savedBank uint8
}

// Enable implements EIN: interrupt servicing becomes possible.
func (ic *InterruptController) Enable() { ic.enabled = true }

// Disable implements DIN: interrupt servicing is suppressed; a
// request raised while disabled stays latched until the next Enable.
func (ic *InterruptController) Disable() { ic.enabled = false }

// Enabled reports whether EIN is currently in effect.
func (ic *InterruptController) Enabled() bool { return ic.enabled }

// Request latches an external interrupt request.
func (ic *InterruptController) Request() { ic.pending = true }

// ShouldService reports whether a latched request should be taken at
// the next instruction boundary: enabled, pending, and not already
// mid-service (the 4040 does not nest interrupts).
func (ic *InterruptController) ShouldService() bool {
	return ic.enabled && ic.pending && !ic.active
}

// Service begins interrupt handling: clears the pending flag, saves pc
// and bank for BBS, marks servicing active, and returns the 4040's
// fixed service vector (0x003).
func (ic *InterruptController) Service(pc uint16, bank uint8) uint16 {
	ic.pending = false
	ic.active = true
	ic.savedPC = pc
	ic.savedBank = bank
	return 0x003
}

// Return implements BBS: ends interrupt servicing and returns the
// saved pc/bank to resume at.
func (ic *InterruptController) Return() (uint16, uint8) {
	ic.active = false
	return ic.savedPC, ic.savedBank
}

// Active reports whether an interrupt service routine is in progress.
func (ic *InterruptController) Active() bool { return ic.active }

// Reset clears all interrupt state.
func (ic *InterruptController) Reset() { *ic = InterruptController{} }
