//go:build linux && arm && !rp2040 && !same70

package platform

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"pioblink/errcode"
	"pioblink/services/board"
)

// rpi resolves BCM pin names ("GPIO17") registered by periph's host drivers.
type rpi struct{}

// Open loads periph's host drivers so the SoC's GPIOs appear in gpioreg.
func Open() (board.Platform, error) {
	if _, err := host.Init(); err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "platform.open", Msg: "host init", Err: err}
	}
	return rpi{}, nil
}

func (rpi) Name() string { return "rpi" }

// EnableClock is a no-op: the kernel owns clock gating on Linux.
func (rpi) EnableClock(uint8) error { return nil }

func (rpi) Pin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errcode.Wrap("platform.pin", errcode.UnknownPin, name)
	}
	return p, nil
}
