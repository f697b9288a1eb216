package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrTicksClosed is returned by [Sampler.Run] when the tick channel closes
// before the configured number of samples has been reported.
var ErrTicksClosed = errors.New("tick channel closed before sampling finished")

// State is the phase of a [Sampler].
type State int

const (
	// Warming is the initial state; the next measurement is discarded.
	Warming State = iota

	// Measuring reports and counts every measurement.
	Measuring

	// Done is terminal; no further requests are made.
	Done
)

// String returns a lowercase name for the state.
func (s State) String() string {
	switch s {
	case Warming:
		return "warming"
	case Measuring:
		return "measuring"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Prober performs a single timed request. [Client] is the production
// implementation.
type Prober interface {
	Head(ctx context.Context, url string, timeout time.Duration) Response
}

// Sample is a reported (post-warm-up) measurement.
type Sample struct {
	// Seq is the 1-based position of the sample among reported samples.
	Seq int

	// Latency is the round-trip time of the HEAD request.
	Latency time.Duration

	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// CheckedAt is when the measurement finished.
	CheckedAt time.Time
}

// ReportFunc receives each reported sample. A non-nil error stops the
// sampler; the sample still counts as completed.
type ReportFunc func(Sample) error

// Sampler consumes ticks and turns each one into a measurement.
//
// The first measurement warms up the connection and is discarded. Every
// following measurement is reported until count samples have been reported,
// at which point the sampler enters [Done].
//
// A Sampler is not safe for concurrent use; its state belongs to the
// goroutine calling [Sampler.Run].
type Sampler struct {
	prober  Prober
	url     string
	count   int
	timeout time.Duration
	report  ReportFunc
	logger  *slog.Logger

	state     State
	completed int
}

// NewSampler creates a [Sampler] that probes url until count samples have
// been passed to report. A zero timeout leaves requests unbounded.
func NewSampler(prober Prober, url string, count int, timeout time.Duration, report ReportFunc, logger *slog.Logger) *Sampler {
	if report == nil {
		report = func(Sample) error { return nil }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		prober:  prober,
		url:     url,
		count:   count,
		timeout: timeout,
		report:  report,
		logger:  logger,
		state:   Warming,
	}
}

// State returns the sampler's current state.
func (s *Sampler) State() State {
	return s.state
}

// Completed returns the number of samples reported so far.
func (s *Sampler) Completed() int {
	return s.completed
}

// Run consumes ticks until the sampler is [Done] or fails.
//
// Returns nil once count samples have been reported, without waiting for a
// further tick. Returns the measurement error on the first transport failure
// or report error, and ctx.Err() if the context is cancelled while waiting for
// a tick. A tick channel closed by a cancelled context also yields ctx.Err();
// otherwise an early close returns [ErrTicksClosed].
func (s *Sampler) Run(ctx context.Context, ticks <-chan struct{}) error {
	for s.state != Done {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return ErrTicksClosed
			}
			if err := s.HandleTick(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// HandleTick performs one measurement and applies the warm-up and count
// policy. It is a no-op once the sampler is [Done].
//
// A failed measurement leaves the state unchanged and returns the error. A
// report error is returned after the sample has been counted.
func (s *Sampler) HandleTick(ctx context.Context) error {
	if s.state == Done {
		return nil
	}

	resp := s.prober.Head(ctx, s.url, s.timeout)
	if resp.Error != nil {
		s.logger.Error("measurement failed",
			"url", s.url,
			"state", s.state.String(),
			"completed", s.completed,
			"error", resp.Error.Error(),
		)
		if s.state == Warming {
			return fmt.Errorf("warm-up measurement: %w", resp.Error)
		}
		return fmt.Errorf("measurement %d: %w", s.completed+1, resp.Error)
	}

	if s.state == Warming {
		s.logger.Debug("warm-up measurement discarded",
			"url", s.url,
			"latency_ms", resp.Latency.Milliseconds(),
			"status_code", resp.StatusCode,
		)
		s.state = Measuring
		return nil
	}

	s.completed++
	sample := Sample{
		Seq:        s.completed,
		Latency:    resp.Latency,
		StatusCode: resp.StatusCode,
		CheckedAt:  time.Now(),
	}
	s.logger.Debug("measurement",
		"seq", sample.Seq,
		"latency_ms", sample.Latency.Milliseconds(),
		"status_code", sample.StatusCode,
	)
	reportErr := s.report(sample)

	if s.completed >= s.count {
		s.state = Done
	}
	if reportErr != nil {
		return fmt.Errorf("report sample %d: %w", sample.Seq, reportErr)
	}
	return nil
}
