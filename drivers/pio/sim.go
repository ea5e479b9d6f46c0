package pio

import "sync"

// Sim is an in-memory PIO register bank that follows the write-1-to-act
// semantics of the hardware. External circuitry (a button pulling a line to
// ground) is modelled with Drive and Release.
type Sim struct {
	mu sync.Mutex

	psr   uint32
	osr   uint32
	ifsr  uint32
	odsr  uint32
	imr   uint32
	mdsr  uint32
	pusr  uint32 // 1 = pull-up disabled
	ppdsr uint32 // 1 = pull-down enabled

	extMask  uint32 // lines driven from outside
	extLevel uint32

	trace func(r Reg, mask uint32)
}

var _ Bank = (*Sim)(nil)

// NewSim returns a bank in its reset state: every line PIO-controlled,
// input, pull-up enabled, output latch low.
func NewSim() *Sim {
	return &Sim{psr: ^uint32(0)}
}

// SetTrace installs a hook called after every register write.
func (s *Sim) SetTrace(fn func(r Reg, mask uint32)) {
	s.mu.Lock()
	s.trace = fn
	s.mu.Unlock()
}

func (s *Sim) Write(r Reg, mask uint32) {
	s.mu.Lock()
	switch r {
	case PER:
		s.psr |= mask
	case PDR:
		s.psr &^= mask
	case OER:
		s.osr |= mask
	case ODR:
		s.osr &^= mask
	case IFER:
		s.ifsr |= mask
	case IFDR:
		s.ifsr &^= mask
	case SODR:
		s.odsr |= mask
	case CODR:
		s.odsr &^= mask
	case IER:
		s.imr |= mask
	case IDR:
		s.imr &^= mask
	case MDER:
		s.mdsr |= mask
	case MDDR:
		s.mdsr &^= mask
	case PUER:
		s.pusr &^= mask
	case PUDR:
		s.pusr |= mask
	case PPDER:
		s.ppdsr |= mask
	case PPDDR:
		s.ppdsr &^= mask
	}
	fn := s.trace
	s.mu.Unlock()
	if fn != nil {
		fn(r, mask)
	}
}

func (s *Sim) Read(r Reg) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r {
	case PSR:
		return s.psr
	case OSR:
		return s.osr
	case IFSR:
		return s.ifsr
	case ODSR:
		return s.odsr
	case PDSR:
		return s.pdsr()
	case IMR:
		return s.imr
	case MDSR:
		return s.mdsr
	case PUSR:
		return s.pusr
	case PPDSR:
		return s.ppdsr
	}
	return 0
}

// pdsr resolves the pad level of every line. Caller holds s.mu.
func (s *Sim) pdsr() uint32 {
	// Push-pull outputs show the latch. An open-drain output driving high
	// releases the line, which then behaves like an input.
	driving := s.psr & s.osr
	pushPull := driving &^ s.mdsr
	drainLow := driving & s.mdsr &^ s.odsr

	// Floating and pulled-down lines read low; the pull-up wins when both
	// pulls are enabled.
	idle := ^s.pusr
	free := (s.extMask & s.extLevel) | (^s.extMask & idle)
	free &^= drainLow
	return (pushPull & s.odsr) | (^pushPull & free)
}

// Drive forces the masked lines to a level from outside the chip.
func (s *Sim) Drive(mask uint32, high bool) {
	s.mu.Lock()
	s.extMask |= mask
	if high {
		s.extLevel |= mask
	} else {
		s.extLevel &^= mask
	}
	s.mu.Unlock()
}

// Release stops driving the masked lines; they fall back to their pulls.
func (s *Sim) Release(mask uint32) {
	s.mu.Lock()
	s.extMask &^= mask
	s.extLevel &^= mask
	s.mu.Unlock()
}
