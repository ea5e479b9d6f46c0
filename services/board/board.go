// Package board brings a board from reset to the state the blinker expects:
// peripheral clocks running, LEDs driven low, buttons as pulled-up inputs.
package board

import (
	"periph.io/x/conn/v3/gpio"

	"pioblink/errcode"
	"pioblink/x/logx"
)

var log = logx.New("board")

// Platform resolves pin names and gates clocks for one family of chips.
type Platform interface {
	Name() string
	EnableClock(id uint8) error
	Pin(name string) (gpio.PinIO, error)
}

// Pair is a button and the LED it blinks.
type Pair struct {
	Name   string
	Button gpio.PinIO
	LED    gpio.PinIO
}

// Board is an initialised board.
type Board struct {
	Name   string
	Status gpio.PinIO // nil when the setup has no status LED
	Pairs  []Pair
}

// Init runs the start-up sequence for s on p: clocks, then every output,
// then every input. Nothing is configured when the setup is rejected.
func Init(s Setup, p Platform) (*Board, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	// Resolve everything before touching hardware.
	owners := make(map[string]string)
	claim := func(name, who string) (gpio.PinIO, error) {
		pin, err := p.Pin(name)
		if err != nil {
			return nil, err
		}
		if pin == nil {
			return nil, errcode.Wrap("board.init", errcode.UnknownPin, name)
		}
		if prev, taken := owners[pin.Name()]; taken {
			return nil, errcode.Wrap("board.init", errcode.PinInUse, pin.Name()+" ("+prev+", "+who+")")
		}
		owners[pin.Name()] = who
		return pin, nil
	}

	b := &Board{Name: s.Name, Pairs: make([]Pair, len(s.Pairs))}
	if s.StatusLED != "" {
		pin, err := claim(s.StatusLED, "status")
		if err != nil {
			return nil, err
		}
		b.Status = pin
	}
	for i, ps := range s.Pairs {
		led, err := claim(ps.LED, ps.Name+".led")
		if err != nil {
			return nil, err
		}
		btn, err := claim(ps.Button, ps.Name+".button")
		if err != nil {
			return nil, err
		}
		b.Pairs[i] = Pair{Name: ps.Name, Button: btn, LED: led}
	}

	for _, id := range s.Clocks {
		if err := p.EnableClock(id); err != nil {
			return nil, &errcode.E{C: errcode.Of(err), Op: "board.clock", Err: err}
		}
	}

	if b.Status != nil {
		if err := b.Status.Out(gpio.Low); err != nil {
			return nil, err
		}
	}
	for _, pr := range b.Pairs {
		if err := pr.LED.Out(gpio.Low); err != nil {
			return nil, err
		}
	}
	for _, pr := range b.Pairs {
		if err := pr.Button.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, err
		}
	}

	log.Info("ready", "board", s.Name, "platform", p.Name(), "pairs", len(b.Pairs))
	return b, nil
}

// Halt drives every LED low.
func (b *Board) Halt() error {
	var first error
	if b.Status != nil {
		first = b.Status.Out(gpio.Low)
	}
	for _, pr := range b.Pairs {
		if err := pr.LED.Out(gpio.Low); err != nil && first == nil {
			first = err
		}
	}
	return first
}
