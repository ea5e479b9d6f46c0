//go:build !tinygo

package bridge

import (
	"context"
	"errors"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const mqttTimeout = 5 * time.Second

// paho needs the net package, so firmware builds only get the uart link.
func init() { RegisterTransport("mqtt", newMQTTTransport) }

type mqttTransport struct {
	cfg MQTTConfig
}

func newMQTTTransport(cfg TransportConfig) (Transport, error) {
	if cfg.MQTT == nil || cfg.MQTT.Broker == "" {
		return nil, errors.New("mqtt transport requires a broker")
	}
	if cfg.MQTT.QoS > 2 {
		return nil, errors.New("mqtt qos must be 0, 1 or 2")
	}
	return &mqttTransport{cfg: *cfg.MQTT}, nil
}

func (t *mqttTransport) String() string { return "mqtt" }

// clientOptions leaves reconnects to the bridge supervisor.
func (t *mqttTransport) clientOptions(lost func(error)) *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(t.cfg.Broker).
		SetAutoReconnect(false).
		SetCleanSession(true).
		SetConnectTimeout(mqttTimeout)
	if t.cfg.ClientID != "" {
		opts.SetClientID(t.cfg.ClientID)
	}
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) { lost(err) })
	return opts
}

func (t *mqttTransport) Open(ctx context.Context) (Link, error) {
	l := &mqttLink{qos: t.cfg.QoS, lost: make(chan error, 1)}
	l.client = paho.NewClient(t.clientOptions(l.fail))

	tok := l.client.Connect()
	if err := waitToken(ctx, tok); err != nil {
		return nil, err
	}
	return l, nil
}

type mqttLink struct {
	client paho.Client
	qos    byte
	lost   chan error
}

func (l *mqttLink) Lost() <-chan error { return l.lost }

func (l *mqttLink) Send(topic string, payload []byte, retained bool) error {
	return waitToken(context.Background(), l.client.Publish(topic, l.qos, retained, payload))
}

func (l *mqttLink) Close() error {
	l.client.Disconnect(250)
	return nil
}

func (l *mqttLink) fail(err error) {
	select {
	case l.lost <- err:
	default:
	}
}

func waitToken(ctx context.Context, tok paho.Token) error {
	done := make(chan bool, 1)
	go func() { done <- tok.WaitTimeout(mqttTimeout) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case ok := <-done:
		if !ok {
			return errors.New("mqtt: timeout")
		}
	}
	return tok.Error()
}
