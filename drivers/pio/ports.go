package pio

import (
	"sync"

	"pioblink/errcode"
)

// Ports indexes the controllers of a chip and hands out one Pin per line.
type Ports struct {
	mu    sync.Mutex
	ctrls map[byte]*Controller
	pins  map[string]*Pin
}

func NewPorts(ctrls ...*Controller) *Ports {
	p := &Ports{
		ctrls: make(map[byte]*Controller, len(ctrls)),
		pins:  make(map[string]*Pin),
	}
	for _, c := range ctrls {
		p.ctrls[c.ID()] = c
	}
	return p
}

// Simulated returns controllers A..E, each backed by its own Sim.
func Simulated() *Ports {
	var ctrls []*Controller
	for id := byte('A'); id <= 'E'; id++ {
		ctrls = append(ctrls, NewController(id, NewSim()))
	}
	return NewPorts(ctrls...)
}

// Controller returns port id ('A'..'E').
func (p *Ports) Controller(id byte) (*Controller, error) {
	if err := checkPort(id); err != nil {
		return nil, err
	}
	c, ok := p.ctrls[id]
	if !ok {
		return nil, errcode.Wrap("pio.port", errcode.UnknownPort, string([]byte{id}))
	}
	return c, nil
}

// Sim returns the simulated bank behind port id, if it is one.
func (p *Ports) Sim(id byte) (*Sim, bool) {
	c, err := p.Controller(id)
	if err != nil {
		return nil, false
	}
	s, ok := c.Bank().(*Sim)
	return s, ok
}

// Pin returns the line called name ("PA11", "PD28"). Repeated calls return
// the same *Pin.
func (p *Ports) Pin(name string) (*Pin, error) {
	id, idx, err := ParsePinName(name)
	if err != nil {
		return nil, err
	}
	c, err := p.Controller(id)
	if err != nil {
		return nil, err
	}
	canon := PinName(id, idx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if pin, ok := p.pins[canon]; ok {
		return pin, nil
	}
	pin := newPin(c, idx, canon)
	p.pins[canon] = pin
	return pin, nil
}

// ParsePinName splits "PC31" into port 'C' and line 31.
func ParsePinName(name string) (byte, uint8, error) {
	bad := errcode.Wrap("pio.pin", errcode.UnknownPin, name)
	if len(name) < 3 || len(name) > 4 || name[0] != 'P' {
		return 0, 0, bad
	}
	id := name[1]
	if checkPort(id) != nil {
		return 0, 0, bad
	}
	n := 0
	for i := 2; i < len(name); i++ {
		ch := name[i]
		if ch < '0' || ch > '9' {
			return 0, 0, bad
		}
		n = n*10 + int(ch-'0')
	}
	if n > MaxIndex {
		return 0, 0, bad
	}
	return id, uint8(n), nil
}

// PinName is the inverse of ParsePinName.
func PinName(id byte, idx uint8) string {
	buf := []byte{'P', id}
	if idx >= 10 {
		buf = append(buf, '0'+idx/10)
	}
	return string(append(buf, '0'+idx%10))
}
