package trackers

import (
	"testing"
	"time"

	"trackerd/internal/models"

	"github.com/stretchr/testify/require"
)

func TestTrackerLabel(t *testing.T) {
	require.Equal(t, "TK102/103", NewTracker("tr1", "tk102").Label())
	require.Equal(t, "TK102/103", NewTracker("tr1", "tk103").Label())
	require.Equal(t, "Suntech ST940", NewTracker("tr1", "st940").Label())
	require.Equal(t, "SPOT Trace", NewTracker("tr1", "spot").Label())
	require.Equal(t, "generic", NewTracker("tr1", "unknown-device").Label())
}

func TestConfirmConfiguration(t *testing.T) {
	tr := NewTracker("tr1", "tk102")
	now := time.Now().UTC()
	tr.replaceConfigurations(
		map[string]models.ConfigurationRecord{
			"move_alarm": configRecord("move_alarm", false, now),
			"sleep_mode": configRecord("sleep_mode", false, now),
		},
		[]models.ConfigurationRecord{
			configRecord("move_alarm", false, now),
			configRecord("sleep_mode", false, now),
		},
	)

	rec, ok := tr.ConfirmConfiguration("move_alarm", false)
	require.True(t, ok)
	require.True(t, rec.Status.Finished)
	require.False(t, rec.Enabled)

	// Dropped from pending, still present in the full set.
	pending := tr.PendingConfigurations()
	require.Len(t, pending, 1)
	require.Equal(t, "sleep_mode", pending[0].Name)

	kept, ok := tr.Configuration("move_alarm")
	require.True(t, ok)
	require.True(t, kept.Status.Finished)

	_, ok = tr.ConfirmConfiguration("no_such_config", true)
	require.False(t, ok)
}

func TestTrackerRegistryReturnsSameAggregate(t *testing.T) {
	s := New(&fakeRepo{}, &fakeGeocoder{}, &fakeNotifier{})
	a := s.Tracker("tr1", "tk102")
	b := s.Tracker("tr1", "st940")
	require.Same(t, a, b)
	require.Equal(t, "tk102", b.Model())
}
