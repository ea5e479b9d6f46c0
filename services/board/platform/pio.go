// Package platform provides board.Platform implementations for each
// supported chip family. Open (build-tagged) returns the one for the target.
package platform

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"pioblink/drivers/pio"
	"pioblink/drivers/pmc"
	"pioblink/x/logx"
)

// PIO is the platform of SAM chips: PIO controllers plus PMC clock gating.
type PIO struct {
	name   string
	ports  *pio.Ports
	clocks pmc.Regs
}

func NewPIO(name string, ports *pio.Ports, clocks pmc.Regs) *PIO {
	return &PIO{name: name, ports: ports, clocks: clocks}
}

// Simulated returns a PIO platform on in-memory registers.
func Simulated() *PIO {
	return NewPIO("pio-sim", pio.Simulated(), &pmc.Sim{})
}

func (p *PIO) Name() string      { return p.name }
func (p *PIO) Ports() *pio.Ports { return p.ports }
func (p *PIO) Clocks() pmc.Regs  { return p.clocks }

func (p *PIO) EnableClock(id uint8) error { return pmc.Enable(p.clocks, id) }

// Pin resolves a datasheet pin name and publishes it in gpioreg so tools
// can find it by name. A name already registered by another platform is
// left alone.
func (p *PIO) Pin(name string) (gpio.PinIO, error) {
	pin, err := p.ports.Pin(name)
	if err != nil {
		return nil, err
	}
	log.Debug("pin", "name", pin.Name(), "mask", logx.Hex(pin.Mask()))
	if gpioreg.ByName(pin.Name()) == nil {
		if err := gpioreg.Register(pin); err != nil {
			log.Warn("gpioreg", "pin", pin.Name(), "err", err)
		}
	}
	return pin, nil
}
