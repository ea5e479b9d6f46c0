// Package blinker is the application loop: it polls every button and, while
// one reads pressed, blinks the LED paired with it.
package blinker

import (
	"context"
	"runtime"

	"periph.io/x/conn/v3/gpio"

	"pioblink/bus"
	"pioblink/services/board"
	"pioblink/types"
	"pioblink/x/logx"
	"pioblink/x/timex"
)

const (
	DefaultCount        = 5
	DefaultHalfPeriodMs = 200
)

type Config struct {
	Count        int    // on/off cycles per press
	HalfPeriodMs uint32 // on time, and off time, of one cycle
	// Delay blocks for the given milliseconds; timex.DelayMs when nil.
	Delay func(ms uint32)
}

func (c Config) withDefaults() Config {
	if c.Count <= 0 {
		c.Count = DefaultCount
	}
	if c.HalfPeriodMs == 0 {
		c.HalfPeriodMs = DefaultHalfPeriodMs
	}
	if c.Delay == nil {
		c.Delay = timex.DelayMs
	}
	return c
}

type Service struct {
	pairs   []board.Pair
	cfg     Config
	conn    *bus.Connection // optional telemetry
	log     logx.Logger
	buttons []buttonState
}

// buttonState is the last published level of one button.
type buttonState struct {
	known   bool
	pressed bool
}

// New builds the loop for the pairs of b. conn may be nil.
func New(b *board.Board, conn *bus.Connection, cfg Config) *Service {
	return &Service{
		pairs:   b.Pairs,
		cfg:     cfg.withDefaults(),
		conn:    conn,
		log:     logx.New("blinker"),
		buttons: make([]buttonState, len(b.Pairs)),
	}
}

// Config returns the active configuration.
func (s *Service) Config() Config { return s.cfg }

// Run polls until ctx is done and returns ctx.Err(). A blink sequence that
// has started always completes.
func (s *Service) Run(ctx context.Context) error {
	var cfgSub *bus.Subscription
	if s.conn != nil {
		cfgSub = s.conn.Subscribe(topicConfig())
		defer s.conn.Unsubscribe(cfgSub)
	}
	s.applyPending(cfgSub)
	s.publishState("running", "")
	s.log.Info("running", "pairs", len(s.pairs), "count", s.cfg.Count, "half_ms", s.cfg.HalfPeriodMs)

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled")
			s.log.Info("stopped")
			return ctx.Err()
		default:
		}
		s.applyPending(cfgSub)
		s.Poll(ctx)
		// Let other goroutines run under a cooperative scheduler.
		runtime.Gosched()
	}
}

// Poll makes one pass over the pairs in order and returns how many were
// blinked. Pairs after a cancellation are skipped.
func (s *Service) Poll(ctx context.Context) int {
	n := 0
	for i, p := range s.pairs {
		if ctx.Err() != nil {
			break
		}
		pressed := p.Button.Read() == gpio.Low
		s.publishButton(i, pressed)
		if !pressed {
			continue
		}
		s.publishEvent(p, "pressed")
		s.Blink(p)
		s.publishEvent(p, "done")
		n++
	}
	return n
}

// Blink runs Count cycles of LED high, wait, LED low, wait, then drives the
// LED low once more.
func (s *Service) Blink(p board.Pair) {
	half := s.cfg.HalfPeriodMs
	for i := 0; i < s.cfg.Count; i++ {
		s.drive(p, gpio.High)
		s.cfg.Delay(half)
		s.drive(p, gpio.Low)
		s.cfg.Delay(half)
	}
	s.drive(p, gpio.Low)
	if s.conn != nil {
		s.conn.Publish(s.conn.NewMessage(pairValue(p.Name), types.LEDValue{Level: 0}, true))
	}
}

func (s *Service) drive(p board.Pair, l gpio.Level) {
	if err := p.LED.Out(l); err != nil {
		s.log.Warn("led write failed", "pair", p.Name, "led", p.LED.Name(), "err", err)
	}
}

// applyPending drains queued config updates without blocking.
func (s *Service) applyPending(sub *bus.Subscription) {
	if sub == nil {
		return
	}
	for {
		select {
		case m, ok := <-sub.Channel():
			if !ok {
				return
			}
			c, ok := m.Payload.(types.BlinkerConfig)
			if !ok {
				s.log.Warn("ignoring config", "reason", "invalid_payload")
				continue
			}
			s.apply(c)
		default:
			return
		}
	}
}

func (s *Service) apply(c types.BlinkerConfig) {
	if c.Count > 0 {
		s.cfg.Count = c.Count
	}
	if c.HalfPeriodMs > 0 {
		s.cfg.HalfPeriodMs = c.HalfPeriodMs
	}
	s.log.Info("config", "count", s.cfg.Count, "half_ms", s.cfg.HalfPeriodMs)
}

func (s *Service) publishEvent(p board.Pair, tag string) {
	s.log.Debug(tag, "pair", p.Name)
	if s.conn == nil {
		return
	}
	s.conn.Publish(s.conn.NewMessage(pairEvent(p.Name, tag), types.BlinkEvent{
		Pair:   p.Name,
		Button: p.Button.Name(),
		LED:    p.LED.Name(),
		Count:  s.cfg.Count,
		TS:     timex.NowMs(),
	}, false))
}

// publishButton publishes a retained button level when it changes.
func (s *Service) publishButton(i int, pressed bool) {
	b := &s.buttons[i]
	if b.known && b.pressed == pressed {
		return
	}
	b.known, b.pressed = true, pressed
	if s.conn == nil {
		return
	}
	s.conn.Publish(s.conn.NewMessage(pairButton(s.pairs[i].Name), types.ButtonValue{Pressed: pressed}, true))
}

func (s *Service) publishState(level, status string) {
	if s.conn == nil {
		return
	}
	s.conn.Publish(s.conn.NewMessage(topicState(),
		types.ServiceState{Level: level, Status: status, TS: timex.NowMs()}, true))
}
