package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// DelayUs spins until us microseconds have elapsed on the monotonic clock.
// It never yields; callers that share the CPU should prefer time.Sleep.
func DelayUs(us uint32) {
	if us == 0 {
		return
	}
	deadline := time.Now().Add(time.Duration(us) * time.Microsecond)
	for time.Now().Before(deadline) {
	}
}

// DelayMs blocks for ms milliseconds as a sequence of 1000us busy-waits.
func DelayMs(ms uint32) {
	for i := uint32(0); i < ms; i++ {
		DelayUs(1000)
	}
}
