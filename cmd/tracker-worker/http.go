package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"trackerd/config"
	"trackerd/internal/services/configsweep"

	"github.com/go-chi/chi/v5"
)

type workerHTTPOpts struct {
	httpAddr string
	onListen func(httpAddr string)

	sweeper *configsweep.Sweeper
	cfg     *config.Config
}

func runWorkerHTTPServer(ctx context.Context, opts workerHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.sweeper == nil {
			_, _ = w.Write([]byte(`{"error":"sweeper not wired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(opts.sweeper.Stats())
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.cfg == nil {
			_, _ = w.Write([]byte(`{"error":"config not wired"}`))
			return
		}
		// Avoid dumping secrets; show only operational worker settings.
		out := map[string]any{
			"sweepIntervalSeconds":       opts.cfg.Trackerd.WorkerSweepIntervalSeconds,
			"sweepConcurrency":           opts.cfg.Trackerd.WorkerSweepConcurrency,
			"stateTTLSeconds":            opts.cfg.Trackerd.StateTTLSeconds,
			"geocoderProvider":           opts.cfg.Trackerd.GeocoderProvider,
			"geocoderRateLimitPerMinute": opts.cfg.Trackerd.GeocoderRateLimitPerMinute,
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	r.Post("/trigger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.sweeper == nil {
			_, _ = w.Write([]byte(`{"error":"sweeper not wired"}`))
			return
		}
		opts.sweeper.Trigger()
		_, _ = w.Write([]byte(`{"triggered":true}`))
	})

	srv := &http.Server{Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	return srv.Serve(lis)
}
