package mailbox

import (
	"math/rand"
	"time"
)

// Reconnect delays after consecutive failed polls.
// Failure 1: 30s, 2: 1 min, 3: 5 min, 4: 15 min, then 30 min.
var reconnectDelays = []time.Duration{
	30 * time.Second,
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
}

// JitterFactor is the ±fraction of jitter applied to delays.
const JitterFactor = 0.2

// NextReconnectDelay returns the wait after the given number of
// consecutive failures (0-indexed), with ±20% jitter.
func NextReconnectDelay(failures int) time.Duration {
	if failures < 0 {
		failures = 0
	}
	if failures >= len(reconnectDelays) {
		failures = len(reconnectDelays) - 1
	}

	base := reconnectDelays[failures]
	jitterRange := float64(base) * JitterFactor
	jitter := (rand.Float64()*2 - 1) * jitterRange

	return time.Duration(float64(base) + jitter)
}
