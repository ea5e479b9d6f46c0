//go:build same70

package pio

import (
	"runtime/volatile"
	"unsafe"
)

// Controller base addresses on SAM E70/S70/V70/V71.
const (
	BasePIOA uintptr = 0x400E0E00
	BasePIOB uintptr = 0x400E1000
	BasePIOC uintptr = 0x400E1200
	BasePIOD uintptr = 0x400E1400
	BasePIOE uintptr = 0x400E1600
)

type mmio uintptr

func (m mmio) reg(r Reg) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(m) + uintptr(r)))
}

func (m mmio) Write(r Reg, mask uint32) { m.reg(r).Set(mask) }
func (m mmio) Read(r Reg) uint32        { return m.reg(r).Get() }

// MMIO returns the register bank mapped at base.
func MMIO(base uintptr) Bank { return mmio(base) }

// Hardware returns the on-chip controllers PIOA..PIOE.
func Hardware() *Ports {
	return NewPorts(
		NewController('A', MMIO(BasePIOA)),
		NewController('B', MMIO(BasePIOB)),
		NewController('C', MMIO(BasePIOC)),
		NewController('D', MMIO(BasePIOD)),
		NewController('E', MMIO(BasePIOE)),
	)
}
