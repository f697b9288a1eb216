package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/senzai"
)

func main() {
	// start mock target (see mock_server.go)
	go StartMockTarget(":9999")
	time.Sleep(100 * time.Millisecond)

	checker, err := senzai.New("http://localhost:9999/health", 10,
		senzai.WithTimeout(2*time.Second),
		senzai.WithMeasurementCallback(func(m senzai.Measurement) {
			if m.StatusCode >= 500 {
				slog.Warn("target answered with an error status", "seq", m.Seq, "status_code", m.StatusCode)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create checker", "error", err)
		os.Exit(1)
	}

	fmt.Println("Sampling http://localhost:9999/health (warm-up + 10 samples)")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := checker.Run(ctx); err != nil {
		slog.Error("sampling failed", "error", err)
		os.Exit(1)
	}
}
