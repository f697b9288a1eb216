package senzai

import (
	"fmt"
	"time"
)

// Measurement is one reported latency sample.
//
// Measurements are ephemeral: they are printed and handed to callbacks
// registered with [WithMeasurementCallback], never stored. The warm-up
// sample taken before the first Measurement is never exposed.
type Measurement struct {
	// Seq is the 1-based position of this sample within the run.
	Seq int

	// URL is the target that was probed.
	URL string

	// Latency is the round-trip time of the HEAD request.
	Latency time.Duration

	// StatusCode is the HTTP status code of the response. Any status,
	// including 4xx and 5xx, is a successful measurement.
	StatusCode int

	// CheckedAt is the time the response was received.
	CheckedAt time.Time
}

// Milliseconds returns the latency rounded down to whole milliseconds.
func (m Measurement) Milliseconds() int64 {
	return latencyMillis(m.Latency)
}

// String returns the output line for the measurement, e.g. "latency: 42 ms".
func (m Measurement) String() string {
	return FormatLatency(m.Latency)
}

// FormatLatency formats d as a report line: "latency: <N> ms", where N is d
// rounded down to whole milliseconds.
func FormatLatency(d time.Duration) string {
	return fmt.Sprintf("latency: %d ms", latencyMillis(d))
}

func latencyMillis(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return d.Milliseconds()
}
