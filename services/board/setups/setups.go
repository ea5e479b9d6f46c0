// Package setups holds the wiring of every supported board. The setup used
// by the firmware is chosen at build time (see selected_*.go).
package setups

import (
	"pioblink/drivers/pio"
	"pioblink/drivers/pmc"
	"pioblink/services/board"
)

// SAME70Xplained is a SAM E70 Xplained with an OLED1 Xplained Pro wing on
// EXT1: user LED0 on PC8, wing buttons/LEDs 1..3.
var SAME70Xplained = WithPIOClocks(board.Setup{
	Name:      "same70_xplained",
	StatusLED: "PC8",
	Pairs: []board.PairSetup{
		{Name: "pair1", Button: "PD28", LED: "PA0"},
		{Name: "pair2", Button: "PC31", LED: "PC30"},
		{Name: "pair3", Button: "PA19", LED: "PB2"},
	},
})

// Pico is a Raspberry Pi Pico on a breadboard: buttons to ground on
// GP2..GP4, LEDs on GP6..GP8, on-board LED as status.
var Pico = board.Setup{
	Name:      "pico",
	StatusLED: "GP25",
	Pairs: []board.PairSetup{
		{Name: "pair1", Button: "GP2", LED: "GP6"},
		{Name: "pair2", Button: "GP3", LED: "GP7"},
		{Name: "pair3", Button: "GP4", LED: "GP8"},
	},
}

// RaspberryPi wires the same three pairs to a Raspberry Pi header.
var RaspberryPi = board.Setup{
	Name: "rpi",
	Pairs: []board.PairSetup{
		{Name: "pair1", Button: "GPIO17", LED: "GPIO5"},
		{Name: "pair2", Button: "GPIO27", LED: "GPIO6"},
		{Name: "pair3", Button: "GPIO22", LED: "GPIO13"},
	},
}

// Host is the SAM E70 wiring on simulated ports, for host builds and blinksim.
var Host = func() board.Setup {
	s := SAME70Xplained
	s.Name = "host"
	return s
}()

// WithPIOClocks sets s.Clocks to the PIO controllers its pins live on, in
// the order Init first drives them: status LED, LEDs, then buttons. Names
// that are not PIO lines add nothing.
func WithPIOClocks(s board.Setup) board.Setup {
	names := make([]string, 0, 1+2*len(s.Pairs))
	if s.StatusLED != "" {
		names = append(names, s.StatusLED)
	}
	for _, p := range s.Pairs {
		names = append(names, p.LED)
	}
	for _, p := range s.Pairs {
		names = append(names, p.Button)
	}

	var ids []uint8
	seen := make(map[uint8]bool)
	for _, n := range names {
		port, _, err := pio.ParsePinName(n)
		if err != nil {
			continue
		}
		if id, ok := pmc.PIOClock(port); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	s.Clocks = ids
	return s
}
