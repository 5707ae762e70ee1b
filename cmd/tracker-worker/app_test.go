package main

import (
	"context"
	"testing"
	"time"

	"trackerd/config"
	"trackerd/internal/cache"
	"trackerd/internal/integrations/geocoder"
	gcfake "trackerd/internal/integrations/geocoder/fake"
	"trackerd/internal/integrations/geocoder/googlehttp"
	"trackerd/internal/integrations/geocoder/nominatimhttp"
	"trackerd/internal/integrations/push"
	pushfake "trackerd/internal/integrations/push/fake"
	"trackerd/internal/models"
	"trackerd/internal/services/trackers"

	"github.com/stretchr/testify/require"
)

type fakeStorage struct{}

func (fakeStorage) UpsertTrackerState(ctx context.Context, trackerID string, state models.TrackerState) error {
	return nil
}
func (fakeStorage) GetTrackerState(ctx context.Context, trackerID string) (*models.TrackerState, error) {
	return nil, nil
}
func (fakeStorage) LastCoordinateBefore(ctx context.Context, trackerID string, t time.Time) (*models.StoredCoordinate, error) {
	return nil, nil
}
func (fakeStorage) InsertCoordinate(ctx context.Context, sc models.StoredCoordinate) error {
	return nil
}
func (fakeStorage) UpdateCoordinate(ctx context.Context, trackerID, key string, upd models.CoordinateUpdate) error {
	return nil
}
func (fakeStorage) ListCoordinates(ctx context.Context, trackerID string, limit int) ([]*models.StoredCoordinate, error) {
	return nil, nil
}
func (fakeStorage) ListConfigurations(ctx context.Context, trackerID string) ([]models.ConfigurationRecord, error) {
	return nil, nil
}
func (fakeStorage) SaveConfiguration(ctx context.Context, trackerID string, rec models.ConfigurationRecord) error {
	return nil
}
func (fakeStorage) ListTrackersWithPendingConfigurations(ctx context.Context) ([]string, error) {
	return nil, nil
}

type fakeConsumer struct{}

func (fakeConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func (fakeConsumer) Close() error { return nil }

func TestDefaultWorkerFactories_SelectGeocoder(t *testing.T) {
	f := defaultWorkerFactories()

	cfgNominatim := &config.Config{
		Trackerd: config.TrackerdConfig{
			GeocoderProvider:  "nominatim",
			GeocoderBaseURL:   "http://localhost:9000",
			GeocoderUserAgent: "trackerd-test",
		},
	}
	g1 := f.newGeocoder(cfgNominatim)
	_, ok := g1.(*nominatimhttp.Client)
	require.True(t, ok)

	cfgGoogle := &config.Config{
		Trackerd: config.TrackerdConfig{
			GeocoderProvider: "google",
			GeocoderAPIKey:   "k",
		},
	}
	g2 := f.newGeocoder(cfgGoogle)
	_, ok = g2.(*googlehttp.Client)
	require.True(t, ok)

	cfgFallback := &config.Config{
		Trackerd: config.TrackerdConfig{GeocoderProvider: "unknown"},
	}
	g3 := f.newGeocoder(cfgFallback)
	_, ok = g3.(*gcfake.FakeClient)
	require.True(t, ok)
}

func TestDefaultWorkerFactories_NotifierFallsBackToFake(t *testing.T) {
	f := defaultWorkerFactories()

	n, err := f.newNotifier(context.Background(), &config.Config{})
	require.NoError(t, err)
	_, ok := n.(*pushfake.FakeNotifier)
	require.True(t, ok)

	_, err = f.newNotifier(context.Background(), &config.Config{
		Trackerd: config.TrackerdConfig{FCMServiceAccountEnv: "TRACKERD_TEST_NO_SUCH_ENV"},
	})
	require.Error(t, err)
}

func TestDefaultWorkerFactories_CacheAndLimiter(t *testing.T) {
	f := defaultWorkerFactories()

	cfg := &config.Config{Redis: config.RedisConfig{Host: "localhost", Port: 6379}}
	require.NotNil(t, f.newCache(cfg))
	require.NotNil(t, f.newRateLimiter(cfg))

	empty := &config.Config{}
	require.Nil(t, f.newCache(empty))
	require.Nil(t, f.newRateLimiter(empty))
}

func TestRunTrackerWorker_ContextCanceled(t *testing.T) {
	calledClose := false

	f := workerFactories{
		newStorage: func(ctx context.Context, cfg *config.Config) (workerStorage, func(), error) {
			return fakeStorage{}, func() { calledClose = true }, nil
		},
		newEventLog: func(cfg *config.Config) (trackers.EventLog, func(), error) {
			return nil, nil, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) kafkaConsumer {
			return fakeConsumer{}
		},
		newCache: func(cfg *config.Config) cache.BytesCache {
			return nil
		},
		newRateLimiter: func(cfg *config.Config) geocoder.RateLimiter {
			return nil
		},
		newGeocoder: func(cfg *config.Config) geocoder.Client {
			return gcfake.New()
		},
		newNotifier: func(ctx context.Context, cfg *config.Config) (push.Notifier, error) {
			return pushfake.New(), nil
		},
	}

	cfg := &config.Config{
		Kafka:    config.KafkaConfig{ReportsTopicName: "tracker.reports"},
		Trackerd: config.TrackerdConfig{WorkerHTTPAddr: "127.0.0.1:0"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunTrackerWorker(ctx, cfg, f)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, calledClose)
}
