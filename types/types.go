package types

// ---- Service state (retained) ----

type ServiceState struct {
	Level  string `json:"level"`  // "running", "stopped"
	Status string `json:"status"` // freeform short code
	Error  string `json:"error,omitempty"`
	TS     int64  `json:"ts_ms"`
}

// ---- Pair levels (retained) ----

// ButtonValue is published on blinker/<pair>/button when the level changes.
type ButtonValue struct {
	Pressed bool `json:"pressed"`
}

type LEDValue struct {
	Level uint8 `json:"level"` // 0 or 1
}

// ---- Blinker ----

// BlinkEvent is published on blinker/<pair>/event/<tag>.
type BlinkEvent struct {
	Pair   string `json:"pair"`
	Button string `json:"button"` // pin name
	LED    string `json:"led"`    // pin name
	Count  int    `json:"count"`
	TS     int64  `json:"ts_ms"`
}

// BlinkerConfig is published retained on config/blinker. Zero fields keep
// the running value.
type BlinkerConfig struct {
	Count        int    `json:"count,omitempty"`
	HalfPeriodMs uint32 `json:"half_period_ms,omitempty"`
}

// ---- Heartbeat ----

// HeartbeatConfig is published retained on config/heartbeat.
type HeartbeatConfig struct {
	IntervalMs uint32 `json:"interval_ms"`
}

// Heartbeat is published on system/heartbeat every interval.
type Heartbeat struct {
	Seq      uint32 `json:"seq"`
	UptimeMs int64  `json:"uptime_ms"`
	TS       int64  `json:"ts_ms"`
}
