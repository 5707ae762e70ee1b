package trackers

import (
	"context"
	"testing"
	"time"

	"trackerd/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	data map[string][]byte
	dels []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.data, key)
	c.dels = append(c.dels, key)
	return nil
}

func TestGetState_CachesAfterMiss(t *testing.T) {
	r := &fakeRepo{state: &models.TrackerState{
		LastCoordinate: &models.CoordinateSummary{Type: models.CoordinateTypeGPS},
	}}
	c := newFakeCache()
	s := New(r, &fakeGeocoder{}, &fakeNotifier{}).WithCache(c, time.Minute)

	state, err := s.GetState(context.Background(), "tr1")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, 1, r.getCalls)

	// Second read is served from the cache.
	state, err = s.GetState(context.Background(), "tr1")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, models.CoordinateTypeGPS, state.LastCoordinate.Type)
	require.Equal(t, 1, r.getCalls)
}

func TestGetState_UnknownTrackerNotCached(t *testing.T) {
	r := &fakeRepo{}
	c := newFakeCache()
	s := New(r, &fakeGeocoder{}, &fakeNotifier{}).WithCache(c, time.Minute)

	state, err := s.GetState(context.Background(), "tr1")
	require.NoError(t, err)
	require.Nil(t, state)
	require.Empty(t, c.data)
}

func TestIngest_InvalidatesCachedState(t *testing.T) {
	r := &fakeRepo{state: &models.TrackerState{}}
	c := newFakeCache()
	s := New(r, &fakeGeocoder{address: "a"}, &fakeNotifier{}).WithCache(c, time.Minute)

	_, err := s.GetState(context.Background(), "tr1")
	require.NoError(t, err)
	require.Contains(t, c.data, stateKey("tr1"))

	report := models.CoordinateReport{
		Type:     models.CoordinateTypeGPS,
		Position: models.Position{Latitude: 1, Longitude: 2},
		Datetime: time.Now().UTC(),
	}
	require.NoError(t, s.Ingest(context.Background(), "tr1", gpsState(), report, nil))
	require.NotContains(t, c.data, stateKey("tr1"))
}

func TestSaveConfiguration_ForcesPendingStatus(t *testing.T) {
	r := &fakeRepo{}
	s := New(r, &fakeGeocoder{}, &fakeNotifier{})

	rec := models.ConfigurationRecord{
		Name:    "move_alarm",
		Enabled: true,
		Status:  models.ConfigStatus{Finished: true, Datetime: time.Time{}},
	}
	require.NoError(t, s.SaveConfiguration(context.Background(), "tr1", rec))
	require.Len(t, r.savedConfigs, 1)
	require.False(t, r.savedConfigs[0].Status.Finished)
	require.False(t, r.savedConfigs[0].Status.Datetime.IsZero())
}
