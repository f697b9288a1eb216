// Package poller provides the timing and measurement machinery for senzai.
//
// This package is internal to senzai. It is a producer/consumer pair joined by
// a single signal channel:
//
//   - [Ticker]: emits one content-free tick per interval (one second by default)
//   - [Sampler]: consumes ticks, times one HEAD request per tick, discards the
//     first (warm-up) result and reports the rest until the configured count
//   - [Client]: HTTP client wrapper that times HEAD requests
//
// Requests never overlap: the sampler finishes (or fails) one request before
// it reads the next tick, so a slow target builds up a backlog of queued ticks
// rather than concurrent requests.
//
// Users of the senzai library should not need to interact with this package
// directly. Configuration is done through the main senzai package.
package poller
