// Package senzai samples the round-trip latency of HTTP HEAD requests to a
// single URL.
//
// Once per second a [Checker] sends a HEAD request to its target and times
// it. The first sample only warms up the connection (DNS, TCP and TLS setup)
// and is thrown away; the following samples are written one per line as
//
//	latency: 42 ms
//
// until the configured number of intervals has been reported.
//
// # Quick Start
//
//	c, err := senzai.New("https://example.com", 10,
//	    senzai.WithTimeout(5*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Failure Policy
//
// Any HTTP status, including 4xx and 5xx, counts as a successful
// measurement. A transport failure (DNS, refused connection, TLS, timeout)
// ends the run with an error; there is no retry.
//
// # Architecture
//
//   - internal/poller: ticker, sampler state machine and HEAD client
//   - config: optional YAML run file for the CLI
//   - cmd/senzai: the command-line tool
package senzai
