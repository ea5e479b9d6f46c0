//go:build rp2040 && !same70

package setups

var Selected = Pico
