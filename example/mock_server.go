package main

import (
	"log/slog"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"
)

// StartMockTarget runs a target that answers HEAD requests with jittered
// latency. The first request is held for an extra 300ms to mimic the
// connection-setup cost that the warm-up sample absorbs; every fifth request
// answers 503 to show that error statuses are still measured.
func StartMockTarget(addr string) {
	var requests atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)

		delay := time.Duration(20+rand.Intn(60)) * time.Millisecond
		if n == 1 {
			delay += 300 * time.Millisecond
		}
		time.Sleep(delay)

		if n%5 == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock target error", "error", err)
	}
}
