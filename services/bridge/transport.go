package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// Transport registry
// -----------------------------------------------------------------------------

// Link is an open connection to the remote side.
type Link interface {
	// Send delivers one message; a non-nil error ends the link.
	Send(topic string, payload []byte, retained bool) error
	// Lost yields once when the link drops underneath us.
	Lost() <-chan error
	Close() error
}

// Transport is a pluggable link dialler.
type Transport interface {
	Open(ctx context.Context) (Link, error)
	String() string
}

type TransportFactory func(TransportConfig) (Transport, error)

var (
	regMu     sync.RWMutex
	registry  = map[string]TransportFactory{}
	errNoDial = errors.New("UARTDial not implemented")
)

// RegisterTransport allows external packages to add transports (eg. "ws", "tcp").
func RegisterTransport(name string, f TransportFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

func newTransport(cfg TransportConfig) (Transport, error) {
	regMu.RLock()
	f, ok := registry[cfg.Type]
	regMu.RUnlock()
	if ok {
		return f(cfg)
	}
	switch cfg.Type {
	case "uart":
		return newUARTTransport(cfg)
	default:
		return nil, fmt.Errorf("unknown transport type: %q", cfg.Type)
	}
}

// UARTDial is injected by platform code (eg. in main or a tinygo_uart.go).
// It must open and return an io.ReadWriteCloser over the configured UART.
var UARTDial func(ctx context.Context, u UARTConfig) (io.ReadWriteCloser, error)

// uartTransport implements Transport via an injected dial function.
type uartTransport struct {
	cfg TransportConfig
}

func newUARTTransport(cfg TransportConfig) (Transport, error) {
	if cfg.UART == nil {
		return nil, errors.New("uart transport requires uart config")
	}
	return &uartTransport{cfg: cfg}, nil
}

func (u *uartTransport) Open(ctx context.Context) (Link, error) {
	if UARTDial == nil {
		return nil, errNoDial
	}
	rwc, err := UARTDial(ctx, *u.cfg.UART)
	if err != nil {
		return nil, err
	}
	return newStreamLink(rwc, 5*time.Second), nil
}

func (u *uartTransport) String() string { return "uart" }

// -----------------------------------------------------------------------------
// Stream link: framed messages over any byte stream
// -----------------------------------------------------------------------------

// streamLink writes framePub frames and answers to the peer's pings. It
// pings the peer every keepalive.
type streamLink struct {
	rwc  io.ReadWriteCloser
	wmu  sync.Mutex
	wr   *framedWriter
	lost chan error
	done chan struct{}
	once sync.Once
}

func newStreamLink(rwc io.ReadWriteCloser, keepalive time.Duration) *streamLink {
	l := &streamLink{
		rwc:  rwc,
		wr:   newFramedWriter(rwc),
		lost: make(chan error, 1),
		done: make(chan struct{}),
	}
	go l.readLoop()
	if keepalive > 0 {
		go l.pingLoop(keepalive)
	}
	return l
}

func (l *streamLink) Lost() <-chan error { return l.lost }

func (l *streamLink) Send(topic string, payload []byte, retained bool) error {
	return l.write(Frame{Type: framePub, Payload: encodePub(topic, payload, retained)})
}

func (l *streamLink) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		// Best-effort close.
		_ = l.write(Frame{Type: frameClose})
		err = l.rwc.Close()
	})
	return err
}

func (l *streamLink) write(f Frame) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()
	return l.wr.WriteFrame(f)
}

func (l *streamLink) fail(err error) {
	select {
	case l.lost <- err:
	default:
	}
}

func (l *streamLink) readLoop() {
	rd := newFramedReader(l.rwc)
	for {
		f, err := rd.ReadFrame()
		if err != nil {
			l.fail(err)
			return
		}
		switch f.Type {
		case framePing:
			if err := l.write(Frame{Type: framePong}); err != nil {
				l.fail(err)
				return
			}
		case frameClose:
			l.fail(errLinkClosed)
			return
		default:
			// Pong and anything inbound are ignored; the link is outbound only.
		}
	}
}

func (l *streamLink) pingLoop(every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-tick.C:
			if err := l.write(Frame{Type: framePing}); err != nil {
				l.fail(err)
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Minimal framing
// -----------------------------------------------------------------------------

const (
	framePing  byte = 0x01
	framePong  byte = 0x02
	framePub   byte = 0x10
	frameClose byte = 0x7f
)

const pubRetained byte = 0x01

// Frame is a very simple length-prefixed frame.
type Frame struct {
	Type    byte
	Payload []byte
}

type framedReader struct{ r io.Reader }
type framedWriter struct{ w io.Writer }

func newFramedReader(r io.Reader) *framedReader { return &framedReader{r: r} }
func newFramedWriter(w io.Writer) *framedWriter { return &framedWriter{w: w} }

func (fr *framedReader) ReadFrame() (Frame, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(fr.r, hdr[:]); err != nil {
		return Frame{}, err
	}
	typ := hdr[0]
	n := int(hdr[1])<<8 | int(hdr[2])
	var buf []byte
	if n > 0 {
		buf = make([]byte, n)
		if _, err := io.ReadFull(fr.r, buf); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Type: typ, Payload: buf}, nil
}

func (fw *framedWriter) WriteFrame(f Frame) error {
	if len(f.Payload) > 0xFFFF {
		return fmt.Errorf("frame too large: %d", len(f.Payload))
	}
	hdr := []byte{f.Type, byte(len(f.Payload) >> 8), byte(len(f.Payload) & 0xFF)}
	if _, err := fw.w.Write(hdr); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		_, err := fw.w.Write(f.Payload)
		return err
	}
	return nil
}

// encodePub lays out a publish as flags, topic, NUL, body.
func encodePub(topic string, body []byte, retained bool) []byte {
	out := make([]byte, 0, 1+len(topic)+1+len(body))
	var flags byte
	if retained {
		flags |= pubRetained
	}
	out = append(out, flags)
	out = append(out, topic...)
	out = append(out, 0)
	return append(out, body...)
}

// DecodePub reverses encodePub.
func DecodePub(p []byte) (topic string, body []byte, retained bool, err error) {
	if len(p) < 2 {
		return "", nil, false, errors.New("short publish frame")
	}
	retained = p[0]&pubRetained != 0
	for i := 1; i < len(p); i++ {
		if p[i] == 0 {
			return string(p[1:i]), p[i+1:], retained, nil
		}
	}
	return "", nil, false, errors.New("publish frame without topic terminator")
}
