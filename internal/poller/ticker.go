package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultTickInterval is the pace at which measurements are triggered.
	DefaultTickInterval = time.Second

	// DefaultTickBuffer is how many ticks may queue up while a slow
	// measurement is in flight before the ticker itself waits.
	DefaultTickBuffer = 16
)

// Ticker emits a content-free tick on a channel once per interval.
//
// Each interval is measured from the start of the ticker's sleep, so drift
// is not compensated. Ticks are queued in a buffered channel; a consumer
// that is busy measuring picks them up once it is ready again.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Ticker struct {
	interval time.Duration
	ticks    chan struct{}
	logger   *slog.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
}

// NewTicker creates a new [Ticker].
//
// A non-positive interval falls back to [DefaultTickInterval] and a buffer
// below 1 falls back to [DefaultTickBuffer]. The ticker does nothing until
// [Ticker.Start] is called.
func NewTicker(interval time.Duration, buffer int, logger *slog.Logger) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if buffer < 1 {
		buffer = DefaultTickBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		interval: interval,
		ticks:    make(chan struct{}, buffer),
		logger:   logger,
	}
}

// Ticks returns the receive-only tick channel.
//
// The channel is closed once the ticker has stopped.
func (t *Ticker) Ticks() <-chan struct{} {
	return t.ticks
}

// Start begins ticking in a background goroutine and returns immediately.
//
// The first tick is sent one interval after Start. If ctx is nil,
// context.Background() is used. Start is idempotent; if Stop was called
// before Start, Start is a no-op.
func (t *Ticker) Start(ctx context.Context) {
	t.mu.Lock()
	if t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	var tickCtx context.Context
	tickCtx, t.cancel = context.WithCancel(ctx)
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		defer t.closeOnce.Do(func() { close(t.ticks) })

		t.run(tickCtx)
	}()
}

func (t *Ticker) run(ctx context.Context) {
	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		// restart the sleep before sending so a blocked send does not
		// stretch the interval
		timer.Reset(t.interval)

		select {
		case t.ticks <- struct{}{}:
		case <-ctx.Done():
			return
		}
	}
}

// Stop halts the ticker, waits for its goroutine to exit and closes the
// tick channel.
//
// Stop is idempotent and safe to call before Start.
func (t *Ticker) Stop() {
	t.mu.Lock()
	if !t.stopped {
		t.stopped = true
		if t.cancel != nil {
			t.cancel()
		}
	}
	t.mu.Unlock()

	t.wg.Wait()

	t.closeOnce.Do(func() { close(t.ticks) })
	t.logger.Debug("ticker stopped")
}
