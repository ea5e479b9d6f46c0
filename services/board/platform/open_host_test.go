//go:build !same70 && !rp2040 && !(linux && arm)

package platform

import "testing"

func TestOpen_Host(t *testing.T) {
	plat, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if plat.Name() != "pio-sim" {
		t.Fatalf("host Open returned %q", plat.Name())
	}
}
