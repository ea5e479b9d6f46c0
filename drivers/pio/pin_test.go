package pio

import (
	"testing"

	"periph.io/x/conn/v3/gpio"

	"pioblink/errcode"
)

func simPin(t *testing.T, name string) (*Pin, *Sim) {
	t.Helper()
	ps := Simulated()
	p, err := ps.Pin(name)
	if err != nil {
		t.Fatalf("Pin(%q): %v", name, err)
	}
	s, _ := ps.Sim(p.Controller().ID())
	return p, s
}

func TestPin_OutConfiguresThenDrives(t *testing.T) {
	p, s := simPin(t, "PA0")

	if err := p.Out(gpio.Low); err != nil {
		t.Fatalf("Out: %v", err)
	}
	if s.Read(OSR)&p.Mask() == 0 {
		t.Fatal("Out did not enable the output driver")
	}
	if p.Read() != gpio.Low {
		t.Fatal("expected low after Out(Low)")
	}

	writes := map[Reg]int{}
	s.SetTrace(func(r Reg, _ uint32) { writes[r]++ })
	_ = p.Out(gpio.High)
	_ = p.Out(gpio.Low)
	if writes[SODR] != 1 || writes[CODR] != 1 || writes[OER] != 0 {
		t.Fatalf("steady-state Out should only touch SODR/CODR, got %v", writes)
	}
	if p.Func() != gpio.OUT_LOW {
		t.Fatalf("Func() = %s", p.Func())
	}
}

func TestPin_InPullUpActiveLow(t *testing.T) {
	p, s := simPin(t, "PD28")

	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		t.Fatalf("In: %v", err)
	}
	if p.Pull() != gpio.PullUp {
		t.Fatalf("Pull() = %s", p.Pull())
	}
	if p.Read() != gpio.High {
		t.Fatal("idle button should read high")
	}
	s.Drive(p.Mask(), false)
	if p.Read() != gpio.Low {
		t.Fatal("pressed button should read low")
	}
	if p.Func() != gpio.IN_LOW {
		t.Fatalf("Func() = %s", p.Func())
	}
}

func TestPin_InAfterOutReleasesDriver(t *testing.T) {
	p, s := simPin(t, "PB2")
	_ = p.Out(gpio.High)
	if err := p.In(gpio.Float, gpio.NoEdge); err != nil {
		t.Fatalf("In: %v", err)
	}
	if s.Read(OSR)&p.Mask() != 0 {
		t.Fatal("output driver still enabled")
	}
	// Out must reconfigure the direction again.
	_ = p.Out(gpio.Low)
	if s.Read(OSR)&p.Mask() == 0 {
		t.Fatal("second Out did not re-enable the output")
	}
}

func TestPin_PullDown(t *testing.T) {
	p, s := simPin(t, "PC3")
	if err := p.In(gpio.PullDown, gpio.NoEdge); err != nil {
		t.Fatalf("In: %v", err)
	}
	if s.Read(PPDSR)&p.Mask() == 0 || s.Read(PUSR)&p.Mask() == 0 {
		t.Fatal("expected pull-down on, pull-up off")
	}
	if p.Read() != gpio.Low {
		t.Fatal("pulled-down input should read low")
	}
}

func TestPin_Unsupported(t *testing.T) {
	p, _ := simPin(t, "PC31")
	if err := p.In(gpio.PullUp, gpio.FallingEdge); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("edge In err = %v", err)
	}
	if err := p.PWM(gpio.DutyHalf, 0); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("PWM err = %v", err)
	}
	if p.WaitForEdge(0) {
		t.Fatal("WaitForEdge should report no edge")
	}
}

func TestPin_Identity(t *testing.T) {
	ps := Simulated()
	a, _ := ps.Pin("PC30")
	b, _ := ps.Pin("PC30")
	if a != b {
		t.Fatal("Pin should return the same handle for the same name")
	}
	if a.Name() != "PC30" || a.String() != "PC30" {
		t.Fatalf("unexpected name %q", a.Name())
	}
	if a.Number() != 2*32+30 {
		t.Fatalf("Number() = %d", a.Number())
	}
	if a.DefaultPull() != gpio.PullUp {
		t.Fatal("SAM lines reset with pull-up")
	}
}

func TestPin_SetFunc(t *testing.T) {
	p, _ := simPin(t, "PA19")
	if err := p.SetFunc(gpio.OUT_HIGH); err != nil {
		t.Fatalf("SetFunc(OUT_HIGH): %v", err)
	}
	if p.Read() != gpio.High {
		t.Fatal("OUT_HIGH should drive high")
	}
	if err := p.SetFunc(gpio.IN); err != nil {
		t.Fatalf("SetFunc(IN): %v", err)
	}
	if err := p.SetFunc("I2C0_SDA"); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("SetFunc(alt) err = %v", err)
	}
}
