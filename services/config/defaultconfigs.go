package config

import (
	"pioblink/services/bridge"
	"pioblink/types"
)

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey, and the
// name of the board setup)
// Val: typed payload per config/<key> topic
// -----------------------------------------------------------------------------

var embeddedConfigs = map[string]map[string]any{
	"same70_xplained": {
		"blinker":   types.BlinkerConfig{Count: 5, HalfPeriodMs: 200},
		"heartbeat": types.HeartbeatConfig{IntervalMs: 2000},
	},
	"pico": {
		"blinker":   types.BlinkerConfig{Count: 5, HalfPeriodMs: 200},
		"heartbeat": types.HeartbeatConfig{IntervalMs: 2000},
		// UART1 on GP8 (TX) / GP9 (RX).
		"bridge": bridge.Config{
			Transport: bridge.TransportConfig{
				Type: "uart",
				UART: &bridge.UARTConfig{Baud: 115200, TxPin: 8, RxPin: 9},
			},
			Prefix: "pico/",
		},
	},
	"rpi": {
		"blinker":   types.BlinkerConfig{Count: 5, HalfPeriodMs: 200},
		"heartbeat": types.HeartbeatConfig{IntervalMs: 5000},
	},
	"host": {
		"blinker":   types.BlinkerConfig{Count: 5, HalfPeriodMs: 200},
		"heartbeat": types.HeartbeatConfig{IntervalMs: 1000},
	},
}
