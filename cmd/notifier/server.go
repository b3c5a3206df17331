package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"assignment-notifier/internal/queue"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readinessCheck is one dependency probed by /ready.
type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

// newOpsMux serves /health, /ready and /metrics.
func newOpsMux(w *queue.Worker, checks ...readinessCheck) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
		writeStatus(rw, http.StatusOK, map[string]string{
			"status": "healthy",
			"worker": w.State().String(),
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(rw http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		body := map[string]string{"status": "ready", "time": time.Now().Format(time.RFC3339)}
		code := http.StatusOK
		for _, c := range checks {
			if err := c.check(ctx); err != nil {
				body[c.name] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		if w.State() == queue.StateStopped {
			body["worker"] = "stopped"
			code = http.StatusServiceUnavailable
		}
		if code != http.StatusOK {
			body["status"] = "not_ready"
		}
		writeStatus(rw, code, body)
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(rw http.ResponseWriter, code int, body map[string]string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	_ = json.NewEncoder(rw).Encode(body)
}
