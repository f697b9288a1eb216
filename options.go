package senzai

import (
	"errors"
	"io"
	"log/slog"
	"time"
)

// checkerConfig holds mutable state during Checker construction.
type checkerConfig struct {
	timeout      time.Duration
	tickInterval time.Duration
	output       io.Writer
	logger       *slog.Logger
	callbacks    []func(Measurement)
}

// Option is a function that configures a [Checker] during construction.
//
// Options return an error if validation fails.
//
// Built-in options: [WithTimeout], [WithTickInterval], [WithOutput],
// [WithLogger], [WithMeasurementCallback].
type Option func(*checkerConfig) error

// WithTimeout bounds each HEAD request to d.
//
// By default requests have no timeout: a server that never answers keeps the
// checker waiting. A zero duration keeps that behaviour.
//
// Returns an error if d is negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *checkerConfig) error {
		if d < 0 {
			return errors.New("timeout cannot be negative")
		}
		cfg.timeout = d
		return nil
	}
}

// WithTickInterval changes the pace of measurements. Defaults to one second.
//
// Returns an error if d is zero or negative.
func WithTickInterval(d time.Duration) Option {
	return func(cfg *checkerConfig) error {
		if d <= 0 {
			return errors.New("tick interval must be positive")
		}
		cfg.tickInterval = d
		return nil
	}
}

// WithOutput sets where report lines are written. Defaults to os.Stdout.
//
// Returns an error if w is nil.
func WithOutput(w io.Writer) Option {
	return func(cfg *checkerConfig) error {
		if w == nil {
			return errors.New("output cannot be nil")
		}
		cfg.output = w
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for diagnostics. If not specified,
// [slog.Default] is used. Report lines never go through the logger.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *checkerConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithMeasurementCallback registers a function called with every reported
// [Measurement], after its line has been written.
//
// Callbacks run synchronously on the sampling goroutine in registration
// order, so a slow callback delays the next measurement. Panics are recovered
// and logged with a correlation ID.
//
// Nil callbacks are silently ignored.
func WithMeasurementCallback(cb func(Measurement)) Option {
	return func(cfg *checkerConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}
