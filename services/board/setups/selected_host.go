//go:build !same70 && !rp2040 && !(linux && arm)

package setups

var Selected = Host
