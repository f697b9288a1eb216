package senzai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/senzai/internal/poller"
)

// Checker samples the HEAD latency of a single URL.
//
// A Checker is created with [New] and run with [Checker.Run]. Once per tick
// (one second by default) it sends a HEAD request to the target. The first
// result warms up the connection and is discarded; each of the next
// intervals results is written as a "latency: <N> ms" line. Run returns as
// soon as the last line is written.
//
//	c, err := senzai.New("https://example.com", 5)
//	if err != nil {
//	    return err
//	}
//	if err := c.Run(context.Background()); err != nil {
//	    return err
//	}
//
// A Checker holds no run state and may be run more than once.
type Checker struct {
	url          string
	intervals    int
	timeout      time.Duration
	tickInterval time.Duration
	output       io.Writer
	logger       *slog.Logger
	callbacks    []func(Measurement)
}

// New creates a [Checker] for rawURL that reports intervals measurements.
//
// rawURL must be an absolute http or https URL and intervals must be
// positive. Defaults:
//   - Request timeout: none
//   - Tick interval: 1 second
//   - Output: os.Stdout
//   - Logger: slog.Default()
func New(rawURL string, intervals int, opts ...Option) (*Checker, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	if intervals < 1 {
		return nil, fmt.Errorf("interval count must be positive, got %d", intervals)
	}

	cfg := &checkerConfig{
		tickInterval: poller.DefaultTickInterval,
		output:       os.Stdout,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Checker{
		url:          rawURL,
		intervals:    intervals,
		timeout:      cfg.timeout,
		tickInterval: cfg.tickInterval,
		output:       cfg.output,
		logger:       logger,
		callbacks:    cfg.callbacks,
	}, nil
}

// ValidateURL reports whether rawURL is an absolute http or https URL with
// a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("url %q must have a scheme (http:// or https://)", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", rawURL)
	}
	return nil
}

// Run takes the warm-up sample and then the configured number of
// measurements, writing one line per measurement.
//
// Run blocks until the last measurement has been written (returning nil),
// a request fails at the transport level, writing a line fails, or ctx is
// cancelled. Failures are not retried; lines already written stay written.
// Callbacks do not run for a line that could not be written. The ticker
// goroutine is stopped before Run returns.
func (c *Checker) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := c.logger.With("run_id", uuid.NewString())
	logger.Info("sampling started",
		"url", c.url,
		"intervals", c.intervals,
		"timeout", c.timeout.String(),
	)

	client := poller.NewClient()
	defer client.Close()

	ticker := poller.NewTicker(c.tickInterval, poller.DefaultTickBuffer, logger)
	ticker.Start(ctx)
	defer ticker.Stop()

	report := func(s poller.Sample) error {
		m := sampleToMeasurement(c.url, s)
		if _, err := fmt.Fprintln(c.output, m.String()); err != nil {
			return fmt.Errorf("failed to write measurement: %w", err)
		}
		for _, cb := range c.callbacks {
			invokeCallbackSafe(cb, m, logger)
		}
		return nil
	}

	sampler := poller.NewSampler(client, c.url, c.intervals, c.timeout, report, logger)
	if err := sampler.Run(ctx, ticker.Ticks()); err != nil {
		return fmt.Errorf("sampling %s: %w", c.url, err)
	}

	logger.Info("sampling complete", "measurements", sampler.Completed())
	return nil
}

// URL returns the target URL.
func (c *Checker) URL() string {
	return c.url
}

// Intervals returns the number of measurements reported per run.
func (c *Checker) Intervals() int {
	return c.intervals
}

// Timeout returns the per-request timeout; zero means none.
func (c *Checker) Timeout() time.Duration {
	return c.timeout
}

// TickInterval returns the time between measurements.
func (c *Checker) TickInterval() time.Duration {
	return c.tickInterval
}

func sampleToMeasurement(target string, s poller.Sample) Measurement {
	return Measurement{
		Seq:        s.Seq,
		URL:        target,
		Latency:    s.Latency,
		StatusCode: s.StatusCode,
		CheckedAt:  s.CheckedAt,
	}
}

// invokeCallbackSafe calls a measurement callback with panic recovery.
// Panics are logged with a correlation ID but do not propagate.
func invokeCallbackSafe(cb func(Measurement), m Measurement, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("measurement callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"seq", m.Seq,
			)
		}
	}()
	cb(m)
}
