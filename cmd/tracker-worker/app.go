package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"trackerd/config"
	"trackerd/internal/broker/kafka"
	"trackerd/internal/broker/messages"
	"trackerd/internal/cache"
	"trackerd/internal/cache/rediscache"
	"trackerd/internal/integrations/geocoder"
	gcfake "trackerd/internal/integrations/geocoder/fake"
	"trackerd/internal/integrations/geocoder/googlehttp"
	"trackerd/internal/integrations/geocoder/nominatimhttp"
	"trackerd/internal/integrations/push"
	"trackerd/internal/integrations/push/fcm"
	pushfake "trackerd/internal/integrations/push/fake"
	"trackerd/internal/services/configsweep"
	"trackerd/internal/services/trackers"
	"trackerd/internal/storage/mongotracker"
	"trackerd/internal/storage/pgevents"
)

// workerStorage is what the worker needs from the document store: the
// trackers repository plus the pending-configuration sweep query.
type workerStorage interface {
	trackers.Repository
	configsweep.PendingLister
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
	Close() error
}

type workerFactories struct {
	newStorage     func(ctx context.Context, cfg *config.Config) (workerStorage, func(), error)
	newEventLog    func(cfg *config.Config) (trackers.EventLog, func(), error)
	newConsumer    func(cfg *config.Config, topic, group string) kafkaConsumer
	newCache       func(cfg *config.Config) cache.BytesCache
	newRateLimiter func(cfg *config.Config) geocoder.RateLimiter
	newGeocoder    func(cfg *config.Config) geocoder.Client
	newNotifier    func(ctx context.Context, cfg *config.Config) (push.Notifier, error)
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(ctx context.Context, cfg *config.Config) (workerStorage, func(), error) {
			st, err := mongotracker.New(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newEventLog: func(cfg *config.Config) (trackers.EventLog, func(), error) {
			if cfg.Database.Host == "" {
				return nil, nil, nil
			}
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			events, err := pgevents.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return events, events.Close, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) kafkaConsumer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewConsumer(brokers, topic, group)
		},
		newCache: func(cfg *config.Config) cache.BytesCache {
			if cfg.Redis.Host == "" {
				return nil
			}
			return rediscache.New(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		},
		newRateLimiter: func(cfg *config.Config) geocoder.RateLimiter {
			if cfg.Redis.Host == "" {
				return nil
			}
			return rediscache.NewRateLimiter(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		},
		newGeocoder: func(cfg *config.Config) geocoder.Client {
			switch cfg.Trackerd.GeocoderProvider {
			case "nominatim":
				return nominatimhttp.New(cfg.Trackerd.GeocoderBaseURL, cfg.Trackerd.GeocoderUserAgent)
			case "google":
				return googlehttp.New(cfg.Trackerd.GeocoderBaseURL, cfg.Trackerd.GeocoderAPIKey)
			default:
				return gcfake.New()
			}
		},
		newNotifier: func(ctx context.Context, cfg *config.Config) (push.Notifier, error) {
			if cfg.Trackerd.FCMServiceAccountEnv == "" {
				return pushfake.New(), nil
			}
			encoded := os.Getenv(cfg.Trackerd.FCMServiceAccountEnv)
			if encoded == "" {
				return nil, fmt.Errorf("env var %s is empty", cfg.Trackerd.FCMServiceAccountEnv)
			}
			return fcm.New(ctx, encoded)
		},
	}
}

func RunTrackerWorker(ctx context.Context, cfg *config.Config, f workerFactories) error {
	topic := cfg.Kafka.ReportsTopicName
	if topic == "" {
		topic = "tracker.reports"
	}
	group := cfg.Kafka.WorkerConsumerGroup
	if group == "" {
		group = "tracker-worker"
	}
	sweepInterval := time.Duration(cfg.Trackerd.WorkerSweepIntervalSeconds) * time.Second
	if sweepInterval <= 0 {
		sweepInterval = 30 * time.Second
	}
	concurrency := cfg.Trackerd.WorkerSweepConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	cacheTTL := time.Duration(cfg.Trackerd.StateTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	st, closeSt, err := f.newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	if closeSt != nil {
		defer closeSt()
	}

	gc := f.newGeocoder(cfg)
	if rl := f.newRateLimiter(cfg); rl != nil && cfg.Trackerd.GeocoderRateLimitPerMinute > 0 {
		gc = geocoder.NewRateLimited(gc, rl, int64(cfg.Trackerd.GeocoderRateLimitPerMinute))
	}

	notifier, err := f.newNotifier(ctx, cfg)
	if err != nil {
		return err
	}

	svc := trackers.New(st, gc, notifier)
	if c := f.newCache(cfg); c != nil {
		svc = svc.WithCache(c, cacheTTL)
	}

	events, closeEvents, err := f.newEventLog(cfg)
	if err != nil {
		return err
	}
	if closeEvents != nil {
		defer closeEvents()
	}
	if events != nil {
		svc = svc.WithEventLog(events)
	}

	sweeper := configsweep.New(st, svc).WithSettings(sweepInterval, concurrency)

	consumer := f.newConsumer(cfg, topic, group)
	defer func() { _ = consumer.Close() }()

	sweepErr := make(chan error, 1)
	go func() {
		sweepErr <- sweeper.Run(ctx)
	}()

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr: cfg.Trackerd.WorkerHTTPAddr,
			sweeper:  sweeper,
			cfg:      cfg,
		})
	}()

	consumeErr := make(chan error, 1)
	go func() {
		slog.Info("kafka consumer started", "topic", topic, "group", group)
		consumeErr <- consumer.Consume(ctx, func(key, value []byte) error {
			var m messages.ReportReceived
			if err := json.Unmarshal(value, &m); err != nil {
				// A malformed message never becomes parseable; skip it.
				slog.Error("unmarshal report message", "key", string(key), "error", err.Error())
				return nil
			}
			return svc.Ingest(ctx, m.TrackerID, m.State, m.Report, m.NotificationOverride)
		})
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-sweepErr:
		return err
	case err := <-httpErr:
		return err
	case err := <-consumeErr:
		return err
	}
}
