package heartbeat

import (
	"context"
	"time"

	"pioblink/bus"
	"pioblink/types"
	"pioblink/x/logx"
	"pioblink/x/timex"
)

const DefaultInterval = time.Second

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicHeartbeat       = bus.T("system", "heartbeat")
)

type Service struct {
	interval time.Duration
	log      logx.Logger
}

// New returns a heartbeat ticking every interval until config/heartbeat
// says otherwise. Non-positive intervals use DefaultInterval.
func New(interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{interval: interval, log: logx.New("heartbeat")}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	start := time.Now()
	var seq uint32

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping")
			return
		case <-tick.C:
			seq++
			conn.Publish(conn.NewMessage(topicHeartbeat, types.Heartbeat{
				Seq:      seq,
				UptimeMs: time.Since(start).Milliseconds(),
				TS:       timex.NowMs(),
			}, false))
			s.log.Debug("beat", "seq", seq)
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.log.Warn("config subscription closed")
				return
			}
			c, ok := msg.Payload.(types.HeartbeatConfig)
			if !ok || c.IntervalMs == 0 {
				s.log.Warn("ignoring config", "reason", "invalid_payload")
				continue
			}
			s.interval = time.Duration(c.IntervalMs) * time.Millisecond
			tick.Reset(s.interval)
			s.log.Info("interval set", "ms", c.IntervalMs)
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
