package config

import (
	"context"
	"testing"
	"time"

	"pioblink/bus"
	"pioblink/errcode"
	"pioblink/services/bridge"
	"pioblink/types"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) (map[string]any, bool) {
		if device != "pico" {
			return nil, false
		}
		return map[string]any{
			"blinker":   types.BlinkerConfig{Count: 3},
			"heartbeat": types.HeartbeatConfig{IntervalMs: 10},
			"mode":      "dev",
		}, true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "pico")
	svc.Start(ctx, conn)

	// Subscribe; retained messages arrive whether or not the publisher ran first.
	sub := conn.Subscribe(bus.T(configPrefix, "#"))

	got := map[string]any{}
	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < 3 && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if len(m.Topic) != 2 || m.Topic[0] != configPrefix {
				t.Fatalf("unexpected topic: %#v", m.Topic)
			}
			if !m.Retained {
				t.Fatalf("config on %v not retained", m.Topic)
			}
			key, ok := m.Topic[1].(string)
			if !ok {
				t.Fatalf("topic[1] type %T, want string", m.Topic[1])
			}
			got[key] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 retained messages, got %d (%v)", len(got), got)
	}
	if c, ok := got["blinker"].(types.BlinkerConfig); !ok || c.Count != 3 {
		t.Fatalf("blinker payload = %#v", got["blinker"])
	}
	if c, ok := got["heartbeat"].(types.HeartbeatConfig); !ok || c.IntervalMs != 10 {
		t.Fatalf("heartbeat payload = %#v", got["heartbeat"])
	}
	if got["mode"] != "dev" {
		t.Fatalf("mode payload = %#v", got["mode"])
	}
}

func TestConfig_PublishConfig_MissingDevice(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-device")
	svc := NewConfigService()

	err := svc.publishConfig(context.Background(), conn)
	if errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("expected invalid_params for missing device ID, got %v", err)
	}
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) (map[string]any, bool) { return nil, false }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxDeviceKey, "unknown-device")
	if err := svc.Publish(ctx, conn); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("expected unsupported for missing embedded config, got %v", err)
	}
}

func TestEmbeddedConfigs_CoverSetups(t *testing.T) {
	for _, dev := range []string{"same70_xplained", "pico", "rpi", "host"} {
		m, ok := EmbeddedConfigLookup(dev)
		if !ok {
			t.Fatalf("no embedded config for %q", dev)
		}
		if _, ok := m["blinker"].(types.BlinkerConfig); !ok {
			t.Fatalf("%q: blinker config missing or wrong type", dev)
		}
	}
}

func TestEmbeddedConfigs_PicoBridgesOverUART1(t *testing.T) {
	m, _ := EmbeddedConfigLookup("pico")
	c, ok := m["bridge"].(bridge.Config)
	if !ok {
		t.Fatalf("pico bridge config missing or wrong type: %T", m["bridge"])
	}
	u := c.Transport.UART
	if c.Transport.Type != "uart" || u == nil || u.TxPin != 8 || u.RxPin != 9 {
		t.Fatalf("pico bridge transport = %+v", c.Transport)
	}
	for _, dev := range []string{"same70_xplained", "rpi", "host"} {
		m, _ := EmbeddedConfigLookup(dev)
		if _, ok := m["bridge"]; ok {
			t.Fatalf("%q should leave the bridge idle", dev)
		}
	}
}
