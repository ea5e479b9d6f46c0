package pio

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"

	"pioblink/errcode"
)

// Pin is a single PIO line exposed through periph's gpio.PinIO so board and
// application code stay independent of the register layer.
type Pin struct {
	mu   sync.Mutex
	ctrl *Controller
	idx  uint8
	mask uint32
	name string
	pull gpio.Pull
	out  bool
}

var (
	_ gpio.PinIO  = (*Pin)(nil)
	_ pin.PinFunc = (*Pin)(nil)
)

func newPin(c *Controller, idx uint8, name string) *Pin {
	return &Pin{ctrl: c, idx: idx, mask: Mask(idx), name: name, pull: gpio.PullUp}
}

func (p *Pin) String() string { return p.name }
func (p *Pin) Name() string   { return p.name }
func (p *Pin) Halt() error    { return nil }

// Number is unique per chip: port index * 32 + line.
func (p *Pin) Number() int { return int(p.ctrl.ID()-'A')*32 + int(p.idx) }

// Mask returns the line's bit within its controller.
func (p *Pin) Mask() uint32 { return p.mask }

// Controller returns the port the line belongs to.
func (p *Pin) Controller() *Controller { return p.ctrl }

// Function is kept for pin.Pin; Func is preferred.
func (p *Pin) Function() string { return string(p.Func()) }

func (p *Pin) Func() pin.Func {
	p.mu.Lock()
	out := p.out
	p.mu.Unlock()
	high := p.ctrl.Get(p.mask) != 0
	switch {
	case out && high:
		return gpio.OUT_HIGH
	case out:
		return gpio.OUT_LOW
	case high:
		return gpio.IN_HIGH
	default:
		return gpio.IN_LOW
	}
}

func (p *Pin) SupportedFuncs() []pin.Func { return []pin.Func{gpio.IN, gpio.OUT} }

func (p *Pin) SetFunc(f pin.Func) error {
	switch f {
	case gpio.IN:
		return p.In(gpio.PullNoChange, gpio.NoEdge)
	case gpio.OUT, gpio.OUT_LOW:
		return p.Out(gpio.Low)
	case gpio.OUT_HIGH:
		return p.Out(gpio.High)
	default:
		return errcode.Wrap("pio.setfunc", errcode.Unsupported, string(f))
	}
}

// In switches the line to input. Edge detection needs the PIO interrupt
// lines, which this driver does not use.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return errcode.Wrap("pio.in", errcode.Unsupported, "edge")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch pull {
	case gpio.PullUp:
		p.ctrl.PullDown(p.mask, false)
		p.ctrl.SetInput(p.mask, PullUp)
	case gpio.PullDown:
		p.ctrl.SetInput(p.mask, Default)
		p.ctrl.PullDown(p.mask, true)
	case gpio.Float:
		p.ctrl.PullDown(p.mask, false)
		p.ctrl.SetInput(p.mask, Default)
	case gpio.PullNoChange:
		attr := Default
		if p.pull == gpio.PullUp {
			attr = PullUp
		}
		p.ctrl.SetInput(p.mask, attr)
		pull = p.pull
	default:
		return errcode.Wrap("pio.in", errcode.InvalidParams, "pull")
	}
	p.pull = pull
	p.out = false
	return nil
}

func (p *Pin) Read() gpio.Level { return p.ctrl.Get(p.mask) != 0 }

func (p *Pin) WaitForEdge(time.Duration) bool { return false }

func (p *Pin) Pull() gpio.Pull {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pull
}

// DefaultPull is the reset state of a SAM PIO line.
func (p *Pin) DefaultPull() gpio.Pull { return gpio.PullUp }

// Out drives the line. The first call after In (or at start-up) switches the
// line to a push-pull output with l as its initial level; later calls only
// touch the output latch.
func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.out {
		p.ctrl.SetOutput(p.mask, bool(l), false, false)
		p.pull = gpio.Float
		p.out = true
		return nil
	}
	if l {
		p.ctrl.Set(p.mask)
	} else {
		p.ctrl.Clear(p.mask)
	}
	return nil
}

func (p *Pin) PWM(gpio.Duty, physic.Frequency) error {
	return errcode.Wrap("pio.pwm", errcode.Unsupported, p.name)
}
