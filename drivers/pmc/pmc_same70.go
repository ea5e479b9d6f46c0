//go:build same70

package pmc

import (
	"runtime/volatile"
	"unsafe"
)

// Base is the PMC base address on SAM E70/S70/V70/V71.
const Base uintptr = 0x400E0600

type mmio struct{}

func (mmio) Write(off uintptr, mask uint32) {
	(*volatile.Register32)(unsafe.Pointer(Base + off)).Set(mask)
}

func (mmio) Read(off uintptr) uint32 {
	return (*volatile.Register32)(unsafe.Pointer(Base + off)).Get()
}

// Hardware is the on-chip PMC.
var Hardware Regs = mmio{}
