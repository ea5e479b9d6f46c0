//go:build same70

package platform

import (
	"pioblink/drivers/pio"
	"pioblink/drivers/pmc"
	"pioblink/services/board"
)

// Open returns the on-chip PIO controllers and PMC.
func Open() (board.Platform, error) {
	return NewPIO("same70", pio.Hardware(), pmc.Hardware), nil
}
