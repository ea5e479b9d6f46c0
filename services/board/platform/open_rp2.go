//go:build rp2040 && !same70

package platform

import (
	"context"
	"io"
	"machine"
	"strconv"
	"sync"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"pioblink/errcode"
	"pioblink/services/board"
	"pioblink/services/bridge"
	"pioblink/x/logx"
)

const (
	rp2GPIOMax  = 29
	consoleBaud = 115_200
)

// rp2 hands out machine pins named "GP<n>".
type rp2 struct {
	mu   sync.Mutex
	pins map[int]*rp2Pin
}

// Open routes log output to UART0 (GP0/GP1), hands UART1 to the bridge
// and returns the RP2040 GPIOs.
func Open() (board.Platform, error) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{
		BaudRate: consoleBaud,
		TX:       machine.Pin(0),
		RX:       machine.Pin(1),
	}); err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "platform.open", Msg: "uart0", Err: err}
	}
	logx.SetOutput(u)
	bridge.UARTDial = dialUART1
	return &rp2{pins: make(map[int]*rp2Pin)}, nil
}

// dialUART1 opens UART1 for the bridge, on GP8/GP9 unless the config names
// other pins. UART0 stays with the console.
func dialUART1(ctx context.Context, c bridge.UARTConfig) (io.ReadWriteCloser, error) {
	tx, rx := uartx.UART1_TX_PIN, uartx.UART1_RX_PIN
	if c.TxPin != 0 || c.RxPin != 0 {
		tx, rx = machine.Pin(c.TxPin), machine.Pin(c.RxPin)
	}
	baud := uint32(consoleBaud)
	if c.Baud > 0 {
		baud = uint32(c.Baud)
	}
	u := uartx.UART1
	if err := u.Configure(uartx.UARTConfig{BaudRate: baud, TX: tx, RX: rx}); err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "platform.uart1", Err: err}
	}
	rctx, cancel := context.WithCancel(ctx)
	return &uartStream{u: u, ctx: rctx, cancel: cancel}, nil
}

// uartStream blocks reads on the RX ring until Close.
type uartStream struct {
	u      *uartx.UART
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *uartStream) Read(p []byte) (int, error)  { return s.u.RecvSomeContext(s.ctx, p) }
func (s *uartStream) Write(p []byte) (int, error) { return s.u.Write(p) }
func (s *uartStream) Close() error                { s.cancel(); return nil }

func (*rp2) Name() string { return "rp2040" }

// EnableClock is a no-op: the RP2040 runtime leaves IO_BANK0 clocked.
func (*rp2) EnableClock(uint8) error { return nil }

func (r *rp2) Pin(name string) (gpio.PinIO, error) {
	n, ok := parseGP(name)
	if !ok {
		return nil, errcode.Wrap("platform.pin", errcode.UnknownPin, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pins[n]; ok {
		return p, nil
	}
	p := &rp2Pin{p: machine.Pin(n), n: n, name: "GP" + strconv.Itoa(n)}
	r.pins[n] = p
	if gpioreg.ByName(p.name) == nil {
		_ = gpioreg.Register(p)
	}
	return p, nil
}

func parseGP(name string) (int, bool) {
	if len(name) < 3 || name[:2] != "GP" {
		return 0, false
	}
	n, err := strconv.Atoi(name[2:])
	if err != nil || n < 0 || n > rp2GPIOMax {
		return 0, false
	}
	return n, true
}

// rp2Pin adapts machine.Pin to gpio.PinIO.
type rp2Pin struct {
	p    machine.Pin
	n    int
	name string
	pull gpio.Pull
	out  bool
}

func (r *rp2Pin) String() string   { return r.name }
func (r *rp2Pin) Name() string     { return r.name }
func (r *rp2Pin) Number() int      { return r.n }
func (r *rp2Pin) Halt() error      { return nil }
func (r *rp2Pin) Function() string { return "" }

func (r *rp2Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return errcode.Wrap("rp2.in", errcode.Unsupported, "edge")
	}
	var mode machine.PinMode
	switch pull {
	case gpio.PullUp:
		mode = machine.PinInputPullup
	case gpio.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	r.pull = pull
	r.out = false
	return nil
}

func (r *rp2Pin) Read() gpio.Level               { return gpio.Level(r.p.Get()) }
func (r *rp2Pin) WaitForEdge(time.Duration) bool { return false }
func (r *rp2Pin) Pull() gpio.Pull                { return r.pull }
func (r *rp2Pin) DefaultPull() gpio.Pull         { return gpio.PullDown }

func (r *rp2Pin) Out(l gpio.Level) error {
	if !r.out {
		r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		r.out = true
	}
	r.p.Set(bool(l))
	return nil
}

func (r *rp2Pin) PWM(gpio.Duty, physic.Frequency) error {
	return errcode.Wrap("rp2.pwm", errcode.Unsupported, r.name)
}
