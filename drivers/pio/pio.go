// Package pio drives the Parallel Input/Output controllers of SAM E70 class
// microcontrollers. Every operation is a masked write to one of the
// controller's write-1-to-act registers, so several pins of the same port can
// be changed at once.
package pio

import "pioblink/errcode"

// Reg is the byte offset of a 32-bit PIO register.
type Reg uint16

const (
	PER   Reg = 0x00 // PIO enable
	PDR   Reg = 0x04 // PIO disable (peripheral function)
	PSR   Reg = 0x08 // PIO status
	OER   Reg = 0x10 // output enable
	ODR   Reg = 0x14 // output disable
	OSR   Reg = 0x18 // output status
	IFER  Reg = 0x20 // glitch filter enable
	IFDR  Reg = 0x24 // glitch filter disable
	IFSR  Reg = 0x28 // glitch filter status
	SODR  Reg = 0x30 // set output data
	CODR  Reg = 0x34 // clear output data
	ODSR  Reg = 0x38 // output data status
	PDSR  Reg = 0x3C // pin data status
	IER   Reg = 0x40 // interrupt enable
	IDR   Reg = 0x44 // interrupt disable
	IMR   Reg = 0x48 // interrupt mask
	ISR   Reg = 0x4C // interrupt status
	MDER  Reg = 0x50 // multi-drive enable
	MDDR  Reg = 0x54 // multi-drive disable
	MDSR  Reg = 0x58 // multi-drive status
	PUDR  Reg = 0x60 // pull-up disable
	PUER  Reg = 0x64 // pull-up enable
	PUSR  Reg = 0x68 // pull-up status (1 = disabled)
	PPDDR Reg = 0x90 // pull-down disable
	PPDER Reg = 0x94 // pull-down enable
	PPDSR Reg = 0x98 // pull-down status (1 = enabled)
)

// Bank is the register file of one PIO controller.
type Bank interface {
	Write(r Reg, mask uint32)
	Read(r Reg) uint32
}

// Attr selects optional input features for SetInput.
type Attr uint8

const (
	Default  Attr = 0
	PullUp   Attr = 1 << 0
	Deglitch Attr = 1 << 1
)

// MaxIndex is the highest line number of a controller.
const MaxIndex = 31

// Mask returns the bit for line idx.
func Mask(idx uint8) uint32 { return 1 << (idx & MaxIndex) }

// Controller is one PIO port ('A'..'E') over its register bank.
type Controller struct {
	id   byte
	bank Bank
}

func NewController(id byte, bank Bank) *Controller {
	return &Controller{id: id, bank: bank}
}

func (c *Controller) ID() byte   { return c.id }
func (c *Controller) Bank() Bank { return c.bank }

// Set drives the masked lines high. Lines that are not outputs only latch
// the value; it appears once they are switched to output.
func (c *Controller) Set(mask uint32) {
	if mask != 0 {
		c.bank.Write(SODR, mask)
	}
}

// Clear drives the masked lines low, with the same latching rule as Set.
func (c *Controller) Clear(mask uint32) {
	if mask != 0 {
		c.bank.Write(CODR, mask)
	}
}

// PullUp enables or disables the internal pull-up of the masked lines.
func (c *Controller) PullUp(mask uint32, enable bool) {
	if mask == 0 {
		return
	}
	if enable {
		c.bank.Write(PUER, mask)
	} else {
		c.bank.Write(PUDR, mask)
	}
}

// PullDown enables or disables the internal pull-down of the masked lines.
func (c *Controller) PullDown(mask uint32, enable bool) {
	if mask == 0 {
		return
	}
	if enable {
		c.bank.Write(PPDER, mask)
	} else {
		c.bank.Write(PPDDR, mask)
	}
}

// SetInput configures the masked lines as PIO-controlled inputs.
func (c *Controller) SetInput(mask uint32, attr Attr) {
	if mask == 0 {
		return
	}
	c.bank.Write(IDR, mask)
	c.PullUp(mask, attr&PullUp != 0)
	if attr&Deglitch != 0 {
		c.bank.Write(IFER, mask)
	} else {
		c.bank.Write(IFDR, mask)
	}
	c.bank.Write(ODR, mask)
	c.bank.Write(PER, mask)
}

// SetOutput configures the masked lines as PIO-controlled outputs. The
// default level is latched before the output driver is enabled so the pad
// never glitches to the previous value.
func (c *Controller) SetOutput(mask uint32, defaultHigh, multiDrive, pullUp bool) {
	if mask == 0 {
		return
	}
	c.bank.Write(IDR, mask)
	c.PullUp(mask, pullUp)
	if multiDrive {
		c.bank.Write(MDER, mask)
	} else {
		c.bank.Write(MDDR, mask)
	}
	if defaultHigh {
		c.bank.Write(SODR, mask)
	} else {
		c.bank.Write(CODR, mask)
	}
	c.bank.Write(OER, mask)
	c.bank.Write(PER, mask)
}

// Get returns the level actually present on the masked pads.
func (c *Controller) Get(mask uint32) uint32 { return c.bank.Read(PDSR) & mask }

// OutputData returns the latched output value of the masked lines.
func (c *Controller) OutputData(mask uint32) uint32 { return c.bank.Read(ODSR) & mask }

// IsOutput reports whether every masked line has its output driver enabled.
func (c *Controller) IsOutput(mask uint32) bool {
	return mask != 0 && c.bank.Read(OSR)&mask == mask
}

func checkPort(id byte) error {
	if id < 'A' || id > 'E' {
		return errcode.Wrap("pio.port", errcode.UnknownPort, string([]byte{id}))
	}
	return nil
}
