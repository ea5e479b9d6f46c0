//go:build same70

package setups

var Selected = SAME70Xplained
