//go:build linux && arm && !rp2040 && !same70

package setups

var Selected = RaspberryPi
