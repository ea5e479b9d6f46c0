// Package pmc gates peripheral clocks through the Power Management
// Controller. Only the enable/status pairs used to wake PIO controllers are
// implemented.
package pmc

import (
	"sync"

	"pioblink/errcode"
)

// Peripheral identifiers on SAM E70/S70/V70/V71.
const (
	IDPIOA uint8 = 10
	IDPIOB uint8 = 11
	IDPIOC uint8 = 12
	IDPIOD uint8 = 16
	IDPIOE uint8 = 17
)

// Register offsets from the PMC base.
const (
	PCER0 uintptr = 0x0010
	PCSR0 uintptr = 0x0018
	PCER1 uintptr = 0x0100
	PCSR1 uintptr = 0x0108
)

const maxID = 63

// Regs is the subset of the PMC register file used here.
type Regs interface {
	Write(off uintptr, mask uint32)
	Read(off uintptr) uint32
}

// PIOClock maps a port letter to its peripheral id.
func PIOClock(port byte) (uint8, bool) {
	switch port {
	case 'A':
		return IDPIOA, true
	case 'B':
		return IDPIOB, true
	case 'C':
		return IDPIOC, true
	case 'D':
		return IDPIOD, true
	case 'E':
		return IDPIOE, true
	}
	return 0, false
}

// Enable starts the clock of peripheral id. Enabling twice is harmless.
func Enable(r Regs, id uint8) error {
	en, _, bit, err := split(id)
	if err != nil {
		return err
	}
	r.Write(en, bit)
	return nil
}

// Enabled reports whether the clock of peripheral id is running.
func Enabled(r Regs, id uint8) bool {
	_, sr, bit, err := split(id)
	if err != nil {
		return false
	}
	return r.Read(sr)&bit != 0
}

func split(id uint8) (en, sr uintptr, bit uint32, err error) {
	switch {
	case id < 32:
		return PCER0, PCSR0, 1 << id, nil
	case id <= maxID:
		return PCER1, PCSR1, 1 << (id - 32), nil
	}
	return 0, 0, 0, errcode.Wrap("pmc.enable", errcode.InvalidParams, "peripheral id")
}

// Sim is an in-memory PMC: writes to PCERx set bits in PCSRx.
type Sim struct {
	mu   sync.Mutex
	pcsr [2]uint32
}

func (s *Sim) Write(off uintptr, mask uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch off {
	case PCER0:
		s.pcsr[0] |= mask
	case PCER1:
		s.pcsr[1] |= mask
	}
}

func (s *Sim) Read(off uintptr) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch off {
	case PCSR0:
		return s.pcsr[0]
	case PCSR1:
		return s.pcsr[1]
	}
	return 0
}
