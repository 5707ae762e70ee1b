package mongotracker

import (
	"context"
	"testing"
	"time"

	"trackerd/internal/models"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestMongoTracker_RepoFlow(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}
	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mongoC.Terminate(ctx) })

	host, err := mongoC.Host(ctx)
	require.NoError(t, err)
	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	st, err := New(ctx, "mongodb://"+host+":"+port.Port(), "trackerd_test")
	require.NoError(t, err)
	t.Cleanup(st.Close)

	// State upsert merges instead of replacing.
	require.NoError(t, st.UpsertTrackerState(ctx, "tr1", models.TrackerState{Name: "my car", Model: "tk103"}))
	require.NoError(t, st.UpsertTrackerState(ctx, "tr1", models.TrackerState{BatteryLevel: "80%"}))

	state, err := st.GetTrackerState(ctx, "tr1")
	require.NoError(t, err)
	require.NotNil(t, state)
	require.Equal(t, "my car", state.Name)
	require.Equal(t, "80%", state.BatteryLevel)

	missing, err := st.GetTrackerState(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)

	// Coordinate history: insert, read back, partial update.
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.InsertCoordinate(ctx, models.StoredCoordinate{
		TrackerID: "tr1",
		Key:       "2026_03_01_12_00_00_000",
		Type:      models.CoordinateTypeGPS,
		Position:  models.Position{Latitude: 10, Longitude: 20},
		Datetime:  t0,
		Address:   "Somewhere St, 42",
	}))

	none, err := st.LastCoordinateBefore(ctx, "tr1", t0.Add(-time.Hour))
	require.NoError(t, err)
	require.Nil(t, none)

	last, err := st.LastCoordinateBefore(ctx, "tr1", t0.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, "2026_03_01_12_00_00_000", last.Key)
	require.Nil(t, last.LastDatetime)

	require.NoError(t, st.UpdateCoordinate(ctx, "tr1", last.Key, models.CoordinateUpdate{
		Type:         models.CoordinateTypeGPS,
		Position:     models.Position{Latitude: 10.00001, Longitude: 20},
		LastDatetime: t0.Add(time.Minute),
	}))

	last, err = st.LastCoordinateBefore(ctx, "tr1", t0.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, last)
	require.WithinDuration(t, t0, last.Datetime, time.Second)
	require.NotNil(t, last.LastDatetime)
	require.WithinDuration(t, t0.Add(time.Minute), *last.LastDatetime, time.Second)

	require.Error(t, st.UpdateCoordinate(ctx, "tr1", "no_such_key", models.CoordinateUpdate{}))

	coords, err := st.ListCoordinates(ctx, "tr1", 10)
	require.NoError(t, err)
	require.Len(t, coords, 1)

	// Configurations ordered by status datetime descending.
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, st.SaveConfiguration(ctx, "tr1", models.ConfigurationRecord{
		Name: "MoveOut", Enabled: true,
		Status: models.ConfigStatus{Finished: true, Datetime: base},
	}))
	require.NoError(t, st.SaveConfiguration(ctx, "tr1", models.ConfigurationRecord{
		Name: "Shock", Enabled: true,
		Status: models.ConfigStatus{Finished: false, Datetime: base.Add(time.Hour)},
	}))

	configs, err := st.ListConfigurations(ctx, "tr1")
	require.NoError(t, err)
	require.Len(t, configs, 2)
	require.Equal(t, "Shock", configs[0].Name)
	require.Equal(t, "MoveOut", configs[1].Name)

	// Only trackers with unfinished records show up as pending.
	require.NoError(t, st.SaveConfiguration(ctx, "tr2", models.ConfigurationRecord{
		Name: "SpeedLimit", Enabled: true,
		Status: models.ConfigStatus{Finished: true, Datetime: base},
	}))

	pending, err := st.ListTrackersWithPendingConfigurations(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"tr1"}, pending)
}
