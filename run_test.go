package senzai

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var latencyLine = regexp.MustCompile(`^latency: \d+ ms$`)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingServer serves HEAD requests and counts them.
func countingServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var count atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, &count
}

func outputLines(buf *bytes.Buffer) []string {
	out := strings.TrimRight(buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// TestRun_EndToEnd verifies that with three intervals, four requests are made
// (warm-up plus three) and exactly three lines are printed.
func TestRun_EndToEnd(t *testing.T) {
	server, requests := countingServer(t, http.StatusOK)

	var buf bytes.Buffer
	c, err := New(server.URL, 3,
		WithOutput(&buf),
		WithLogger(testLogger()),
		WithTickInterval(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := outputLines(&buf)
	if len(lines) != 3 {
		t.Fatalf("printed %d lines, want 3\nGot: %q", len(lines), buf.String())
	}
	for i, line := range lines {
		if !latencyLine.MatchString(line) {
			t.Errorf("line %d = %q, want format 'latency: <N> ms'", i, line)
		}
	}
	if got := requests.Load(); got != 4 {
		t.Errorf("requests = %d, want 4 (warm-up + 3)", got)
	}
}

// TestRun_ErrorStatusIsMeasured verifies that 5xx responses are reported as
// ordinary measurements.
func TestRun_ErrorStatusIsMeasured(t *testing.T) {
	server, _ := countingServer(t, http.StatusServiceUnavailable)

	var buf bytes.Buffer
	c, err := New(server.URL, 2,
		WithOutput(&buf),
		WithLogger(testLogger()),
		WithTickInterval(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if lines := outputLines(&buf); len(lines) != 2 {
		t.Errorf("printed %d lines, want 2", len(lines))
	}
}

// TestRun_ConnectionRefused verifies that an unreachable target ends the run
// with an error and no output.
func TestRun_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	var buf bytes.Buffer
	c, err := New("http://"+addr, 3,
		WithOutput(&buf),
		WithLogger(testLogger()),
		WithTickInterval(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = c.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want transport error")
	}
	if !strings.Contains(err.Error(), "warm-up measurement") {
		t.Errorf("Run() error = %v, want it to mention the warm-up measurement", err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want none", buf.String())
	}
}

// TestRun_FailureAfterSuccess verifies that lines printed before a transport
// failure stay printed and nothing follows them.
func TestRun_FailureAfterSuccess(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) >= 3 {
			// drop the connection without a response
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer does not support hijacking")
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c, err := New(server.URL, 5,
		WithOutput(&buf),
		WithLogger(testLogger()),
		WithTickInterval(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want transport error")
	}

	lines := outputLines(&buf)
	if len(lines) != 1 {
		t.Errorf("printed %d lines, want 1\nGot: %q", len(lines), buf.String())
	}
	// net/http may replay an idempotent request once on a fresh connection,
	// so only the lower bound is exact
	if got := requests.Load(); got < 3 || got > 4 {
		t.Errorf("requests = %d, want 3 or 4", got)
	}
}

// TestRun_ContextCancelled verifies that Run returns once its context is
// cancelled while waiting for a tick.
func TestRun_ContextCancelled(t *testing.T) {
	server, _ := countingServer(t, http.StatusOK)

	c, err := New(server.URL, 1000,
		WithOutput(io.Discard),
		WithLogger(testLogger()),
		WithTickInterval(time.Hour),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after context cancellation")
	}
}

// TestRun_ContextCancelled_Repeated cancels many runs while they wait for a
// tick. The ticker shares the context, so its channel closes at the same
// moment; Run must still report the cancellation.
func TestRun_ContextCancelled_Repeated(t *testing.T) {
	server, _ := countingServer(t, http.StatusOK)

	c, err := New(server.URL, 1,
		WithOutput(io.Discard),
		WithLogger(testLogger()),
		WithTickInterval(time.Hour),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- c.Run(ctx)
		}()
		time.Sleep(time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("iteration %d: Run() error = %v, want context.Canceled", i, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("iteration %d: Run() did not return after context cancellation", i)
		}
	}
}

// TestRun_SlowServer verifies that a server slower than the tick interval
// gets one request at a time while ticks queue up.
func TestRun_SlowServer(t *testing.T) {
	var requests, inFlight, maxInFlight atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := maxInFlight.Load()
			if n <= old || maxInFlight.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	var buf bytes.Buffer
	c, err := New(server.URL, 3,
		WithOutput(&buf),
		WithLogger(testLogger()),
		WithTickInterval(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("max requests in flight = %d, want 1", got)
	}
	if got := requests.Load(); got != 4 {
		t.Errorf("requests = %d, want 4 (warm-up + 3)", got)
	}
	if lines := outputLines(&buf); len(lines) != 3 {
		t.Errorf("printed %d lines, want 3\nGot: %q", len(lines), buf.String())
	}
}

// TestRun_AlreadyCancelled verifies that no request is made when the context
// is already done.
func TestRun_AlreadyCancelled(t *testing.T) {
	server, requests := countingServer(t, http.StatusOK)

	c, err := New(server.URL, 1, WithOutput(io.Discard), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if got := requests.Load(); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

// TestRun_WriteError verifies that an output failure ends the run at once.
func TestRun_WriteError(t *testing.T) {
	server, requests := countingServer(t, http.StatusOK)

	called := 0
	c, err := New(server.URL, 5,
		WithOutput(failingWriter{}),
		WithLogger(testLogger()),
		WithMeasurementCallback(func(Measurement) { called++ }),
		WithTickInterval(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = c.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want write error")
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("requests = %d, want 2 (sampling stops at the first failed write)", got)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Run() error = %v, want it to wrap the write error", err)
	}
	if called != 0 {
		t.Errorf("callback invoked %d times, want 0 for an unwritten line", called)
	}
}

// TestRun_LogsRunID verifies that diagnostics carry a run correlation ID.
func TestRun_LogsRunID(t *testing.T) {
	server, _ := countingServer(t, http.StatusOK)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, err := New(server.URL, 1,
		WithOutput(io.Discard),
		WithLogger(logger),
		WithTickInterval(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := logs.String()
	for _, phrase := range []string{"sampling started", "run_id=", "warm-up measurement discarded", "sampling complete"} {
		if !strings.Contains(out, phrase) {
			t.Errorf("logs missing %q\nGot: %s", phrase, out)
		}
	}
}
