package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"pioblink/bus"
	"pioblink/drivers/pio"
	"pioblink/services/blinker"
	"pioblink/services/board"
	"pioblink/services/board/platform"
)

const (
	ansiGreen = "\x1b[32m"
	ansiReset = "\x1b[0m"
)

// ledLine is one LED watched through its port's register trace.
type ledLine struct {
	pair string
	name string
	mask uint32
}

// sim runs a board setup on simulated PIO ports with a virtual clock.
type sim struct {
	plat  *platform.PIO
	board *board.Board
	bus   *bus.Bus
	out   io.Writer
	scale float64
	color bool

	mu     sync.Mutex
	nowMs  uint64
	levels map[string]gpio.Level
}

func newSim(s board.Setup, out io.Writer, scale float64, color bool) (*sim, error) {
	plat := platform.Simulated()
	b, err := board.Init(s, plat)
	if err != nil {
		return nil, err
	}
	m := &sim{
		plat:   plat,
		board:  b,
		bus:    bus.NewBus(16),
		out:    out,
		scale:  scale,
		color:  color,
		levels: make(map[string]gpio.Level),
	}
	if err := m.traceLEDs(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *sim) traceLEDs() error {
	byPort := map[byte][]ledLine{}
	for _, p := range m.board.Pairs {
		pin, ok := p.LED.(*pio.Pin)
		if !ok {
			return fmt.Errorf("led %s is not a PIO line", p.LED.Name())
		}
		id := pin.Controller().ID()
		byPort[id] = append(byPort[id], ledLine{pair: p.Name, name: pin.Name(), mask: pin.Mask()})
		m.levels[pin.Name()] = gpio.Low
	}
	for id, lines := range byPort {
		s, ok := m.plat.Ports().Sim(id)
		if !ok {
			return fmt.Errorf("port %c is not simulated", id)
		}
		lines := lines
		s.SetTrace(func(r pio.Reg, mask uint32) {
			if r != pio.SODR && r != pio.CODR {
				return
			}
			for _, l := range lines {
				if mask&l.mask != 0 {
					m.led(l, r == pio.SODR)
				}
			}
		})
	}
	return nil
}

// led prints a line when an LED actually changes level.
func (m *sim) led(l ledLine, high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lv := gpio.Level(high)
	if m.levels[l.name] == lv {
		return
	}
	m.levels[l.name] = lv
	state := "off"
	if high {
		state = "ON"
		if m.color {
			state = ansiGreen + state + ansiReset
		}
	}
	fmt.Fprintf(m.out, "%7dms  %-6s %-6s %s\n", m.nowMs, l.pair, l.name, state)
}

// delay advances the virtual clock and sleeps ms*scale of wall time.
func (m *sim) delay(ms uint32) {
	m.mu.Lock()
	m.nowMs += uint64(ms)
	m.mu.Unlock()
	if m.scale > 0 {
		time.Sleep(time.Duration(float64(ms) * m.scale * float64(time.Millisecond)))
	}
}

func (m *sim) elapsed() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nowMs
}

func (m *sim) pair(n int) (board.Pair, error) {
	if n < 1 || n > len(m.board.Pairs) {
		return board.Pair{}, fmt.Errorf("no button %d (have 1..%d)", n, len(m.board.Pairs))
	}
	return m.board.Pairs[n-1], nil
}

func (m *sim) button(n int) (*pio.Sim, uint32, error) {
	p, err := m.pair(n)
	if err != nil {
		return nil, 0, err
	}
	pin, ok := p.Button.(*pio.Pin)
	if !ok {
		return nil, 0, fmt.Errorf("button %s is not a PIO line", p.Button.Name())
	}
	s, ok := m.plat.Ports().Sim(pin.Controller().ID())
	if !ok {
		return nil, 0, fmt.Errorf("button %s is not simulated", pin.Name())
	}
	return s, pin.Mask(), nil
}

// press holds button n (1-based) against ground.
func (m *sim) press(n int) error {
	s, mask, err := m.button(n)
	if err != nil {
		return err
	}
	s.Drive(mask, false)
	return nil
}

func (m *sim) release(n int) error {
	s, mask, err := m.button(n)
	if err != nil {
		return err
	}
	s.Release(mask)
	return nil
}

func (m *sim) blinker(cfg blinker.Config) *blinker.Service {
	cfg.Delay = m.delay
	return blinker.New(m.board, m.bus.NewConnection("blinker"), cfg)
}

// runOnce presses the given buttons, makes one polling pass and releases
// them. It returns how many pairs blinked.
func (m *sim) runOnce(ctx context.Context, presses []int, cfg blinker.Config) (int, error) {
	for _, n := range presses {
		if err := m.press(n); err != nil {
			return 0, err
		}
	}
	n := m.blinker(cfg).Poll(ctx)
	for _, p := range presses {
		if err := m.release(p); err != nil {
			return n, err
		}
	}
	return n, nil
}

// halt drives every LED low before exit.
func (m *sim) halt() {
	if err := m.board.Halt(); err != nil {
		fmt.Fprintf(m.out, "halt: %v\n", err)
	}
}

// status lists LED and button levels in pair order.
func (m *sim) status() []string {
	out := make([]string, 0, len(m.board.Pairs))
	for i, p := range m.board.Pairs {
		pressed := p.Button.Read() == gpio.Low
		out = append(out, strconv.Itoa(i+1)+" "+p.Name+
			" button "+p.Button.Name()+"="+onOff(pressed)+
			" led "+p.LED.Name()+"="+onOff(p.LED.Read() == gpio.High))
	}
	return out
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// parsePresses turns "1,3" style flag values into sorted unique ids.
func parsePresses(vals []int, max int) ([]int, error) {
	seen := map[int]bool{}
	var out []int
	for _, v := range vals {
		if v < 1 || v > max {
			return nil, fmt.Errorf("no button %d (have 1..%d)", v, max)
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out, nil
}
