//go:build !same70 && !rp2040 && !(linux && arm)

package platform

import "pioblink/services/board"

// Open returns simulated PIO ports on host builds.
func Open() (board.Platform, error) { return Simulated(), nil }
