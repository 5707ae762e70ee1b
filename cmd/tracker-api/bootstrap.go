package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trackerd/config"
	"trackerd/internal/api/trackers_api"
	"trackerd/internal/broker/kafka"
	"trackerd/internal/cache/rediscache"
	gcfake "trackerd/internal/integrations/geocoder/fake"
	pushfake "trackerd/internal/integrations/push/fake"
	"trackerd/internal/services/trackers"
	"trackerd/internal/storage/mongotracker"
	"trackerd/internal/storage/pgevents"
)

type trackerAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   trackerAPIOpts
	api    *trackers_api.TrackersAPI

	producer *kafka.Producer
	closers  []func()
}

func mustBootstrapTrackerAPI() *trackerAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("failed to parse config, %v", err))
	}

	httpAddr := cfg.Trackerd.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.ReportsTopicName
	if topic == "" {
		topic = "tracker.reports"
	}
	cacheTTL := time.Duration(cfg.Trackerd.StateTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	st := mustOpenMongoWithRetry(ctx, cfg.Mongo.URI, cfg.Mongo.DBName, 60*time.Second)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)

	// Ingestion runs in the worker; the API process never geocodes or pushes.
	svc := trackers.New(st, gcfake.New(), pushfake.New()).WithCache(rc, cacheTTL)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)

	api := trackers_api.New(svc, producer, topic)

	closers := []func(){st.Close}
	if cfg.Database.Host != "" {
		sslMode := cfg.Database.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
		events, err := pgevents.New(connString)
		if err != nil {
			panic(fmt.Sprintf("failed to open event log, %v", err))
		}
		api = api.WithEvents(events)
		closers = append(closers, events.Close)
	}

	return &trackerAPIApp{
		ctx:      ctx,
		cancel:   cancel,
		opts:     trackerAPIOpts{httpAddr: httpAddr},
		api:      api,
		producer: producer,
		closers:  closers,
	}
}

func mustOpenMongoWithRetry(ctx context.Context, uri, dbName string, wait time.Duration) *mongotracker.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := mongotracker.New(ctx, uri, dbName)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("mongo is not ready after %s: %v", wait, lastErr))
}

func (a *trackerAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	for _, c := range a.closers {
		c()
	}
}

func (a *trackerAPIApp) Run() error {
	return runTrackerAPI(a.ctx, a.opts, a.api)
}
