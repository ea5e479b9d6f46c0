// bridge/bridge.go
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pioblink/bus"
	"pioblink/types"
	"pioblink/x/logx"
)

// -----------------------------------------------------------------------------
// Public entry point
// -----------------------------------------------------------------------------

// Start starts the bridge service. It blocks until ctx is cancelled.
// It listens for config on topic {"config","bridge"} and (re)configures the
// link, then forwards matching local bus traffic over it.
func Start(ctx context.Context, conn *bus.Connection) {
	s := &Service{
		conn:       conn,
		stateTopic: bus.T("bridge", "state"),
		log:        logx.New("bridge"),
	}
	s.run(ctx)
}

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// DefaultForward is forwarded when Config.Forward is empty.
var DefaultForward = []string{"blinker/#", "system/#"}

// Config is the configuration expected on "config/bridge", either as a
// Config value or JSON.
type Config struct {
	Transport TransportConfig `json:"transport"`
	// Local topic patterns to forward, slash separated ("blinker/+/event/#").
	Forward []string `json:"forward,omitempty"`
	// Prepended to every remote topic, e.g. "pioblink/".
	Prefix string `json:"prefix,omitempty"`
}

type TransportConfig struct {
	// "uart", "mqtt" or other names registered via RegisterTransport.
	Type string      `json:"type"`
	UART *UARTConfig `json:"uart,omitempty"`
	MQTT *MQTTConfig `json:"mqtt,omitempty"`
}

// UARTConfig carries enough information for an injected dialler to open the UART.
type UARTConfig struct {
	Baud  int `json:"baud"`
	RxPin int `json:"rx_pin"` // platform-specific numeric IDs
	TxPin int `json:"tx_pin"`
}

type MQTTConfig struct {
	Broker   string `json:"broker"` // tcp://host:1883
	ClientID string `json:"client_id,omitempty"`
	QoS      byte   `json:"qos,omitempty"`
}

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

type Service struct {
	conn       *bus.Connection
	stateTopic bus.Topic
	log        logx.Logger

	mu     sync.Mutex
	curRun context.CancelFunc
	curCfg atomic.Value // stores Config
}

// run waits for config and supervises a single link instance.
func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.T("config", "bridge"))
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.stopCurrent()
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.publishState("error", "config_subscription_closed", nil)
				return
			}
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			s.reconfigure(ctx, cfg)
		}
	}
}

func (s *Service) stopCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
}

func (s *Service) reconfigure(parent context.Context, cfg Config) {
	s.mu.Lock()
	// Cancel any existing run.
	if s.curRun != nil {
		s.curRun()
		s.curRun = nil
	}
	ctx, cancel := context.WithCancel(parent)
	s.curRun = cancel
	s.mu.Unlock()

	s.curCfg.Store(cfg)
	go s.runLink(ctx, cfg)
}

// -----------------------------------------------------------------------------
// Link supervision and forwarding
// -----------------------------------------------------------------------------

func (s *Service) runLink(ctx context.Context, cfg Config) {
	tr, err := newTransport(cfg.Transport)
	if err != nil {
		s.publishState("error", "transport_init_failed", err)
		return
	}

	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		link, err := tr.Open(ctx)
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "dial_failed_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		s.log.Info("link up", "transport", tr.String())
		err = s.handleLink(ctx, link, cfg)
		_ = link.Close()
		if err != nil {
			delay := backoff()
			s.publishState("degraded", "link_lost_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleep(ctx, delay) {
				return
			}
			continue
		}
		// Clean close: restart only on new config.
		return
	}
}

// handleLink forwards local messages until ctx ends or the link fails.
// Retained messages matching the patterns go out first.
func (s *Service) handleLink(ctx context.Context, link Link, cfg Config) error {
	patterns := cfg.Forward
	if len(patterns) == 0 {
		patterns = DefaultForward
	}

	fwd := make(chan *bus.Message, 8)
	stop := make(chan struct{})
	var wg sync.WaitGroup
	subs := make([]*bus.Subscription, 0, len(patterns))
	for _, p := range patterns {
		sub := s.conn.Subscribe(ParseTopic(p))
		subs = append(subs, sub)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range sub.Channel() {
				select {
				case fwd <- m:
				case <-stop:
				}
			}
		}()
	}
	defer func() {
		close(stop)
		for _, sub := range subs {
			s.conn.Unsubscribe(sub)
		}
		wg.Wait()
	}()
	s.publishState("up", "link_established", nil)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-link.Lost():
			if err == nil {
				err = errLinkClosed
			}
			return err
		case m := <-fwd:
			body, err := encodePayload(m.Payload)
			if err != nil {
				s.log.Warn("dropping message", "topic", TopicString(m.Topic), "err", err)
				continue
			}
			if err := link.Send(cfg.Prefix+TopicString(m.Topic), body, m.Retained); err != nil {
				return err
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Utilities
// -----------------------------------------------------------------------------

var errLinkClosed = errors.New("link closed by peer")

// TopicString renders a bus topic as a slash separated string.
func TopicString(t bus.Topic) string {
	var sb strings.Builder
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			sb.WriteByte('/')
		}
		switch v := t.At(i).(type) {
		case string:
			sb.WriteString(v)
		case int:
			sb.WriteString(strconv.Itoa(v))
		default:
			sb.WriteString(fmt.Sprint(v))
		}
	}
	return sb.String()
}

// ParseTopic splits a slash separated pattern into string tokens.
func ParseTopic(s string) bus.Topic {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	toks := make([]any, len(parts))
	for i, p := range parts {
		toks[i] = p
	}
	return bus.T(toks...)
}

func encodePayload(p any) ([]byte, error) {
	switch v := p.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

func decodeConfig(p any) (Config, error) {
	var cfg Config
	switch v := p.(type) {
	case Config:
		return v, nil
	case *Config:
		if v == nil {
			return cfg, errors.New("nil config")
		}
		return *v, nil
	case []byte:
		if err := json.Unmarshal(v, &cfg); err != nil {
			return cfg, err
		}
	case string:
		if err := json.Unmarshal([]byte(v), &cfg); err != nil {
			return cfg, err
		}
	case map[string]any:
		// Already a decoded object; re-marshal for simplicity.
		b, err := json.Marshal(v)
		if err != nil {
			return cfg, err
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config payload type: %T", p)
	}
	return cfg, nil
}

func (s *Service) publishState(level, status string, err error) {
	st := types.ServiceState{
		Level:  level,  // "up", "degraded", "error", "idle"
		Status: status, // short machine string
		TS:     time.Now().UnixMilli(),
	}
	if err != nil {
		st.Error = err.Error()
		s.log.Warn(status, "err", err)
	}
	s.conn.Publish(s.conn.NewMessage(s.stateTopic, st, true))
}

func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	var cur = min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
