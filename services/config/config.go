package config

import (
	"context"

	"pioblink/bus"
	"pioblink/errcode"
	"pioblink/x/logx"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) (map[string]any, bool) {
	m, ok := embeddedConfigs[device]
	return m, ok
}

type ConfigService struct {
	Name string
	log  logx.Logger
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName, log: logx.New(serviceName)}
}

// publishConfig publishes every key of the device config as a retained
// message on config/<key>.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errcode.Wrap("config.publish", errcode.InvalidParams, "missing device id")
	}

	m, ok := EmbeddedConfigLookup(device)
	if !ok || len(m) == 0 {
		return errcode.Wrap("config.publish", errcode.Unsupported, "no embedded config for "+device)
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	s.log.Info("published", "device", device, "keys", len(m))
	return nil
}

// Publish publishes the embedded config synchronously.
func (s *ConfigService) Publish(ctx context.Context, conn *bus.Connection) error {
	err := s.publishConfig(ctx, conn)
	if err != nil {
		s.log.Error("publish failed", "err", err)
	}
	return err
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() { _ = s.Publish(ctx, conn) }()
}
