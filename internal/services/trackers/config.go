package trackers

import (
	"context"
	"log/slog"

	"trackerd/internal/models"
)

// DeviceHooks is the per-device-class extension surface of the configuration
// lifecycle. The base service only loads and partitions records; diffing
// desired vs. applied state and talking to the device command channel is the
// device class's business.
type DeviceHooks interface {
	// CheckConfigurations runs after every successful configuration load.
	CheckConfigurations(ctx context.Context, tr *Tracker)
	// ApplyConfigurations pushes pending configurations to the device.
	ApplyConfigurations(ctx context.Context, tr *Tracker) error
	// ConfirmConfiguration handles a device acknowledgment. Implementations
	// are expected to call Tracker.ConfirmConfiguration and persist the
	// finished record.
	ConfirmConfiguration(ctx context.Context, tr *Tracker, name string, enabled bool) error
}

// NopHooks is the default for device classes without configuration support.
type NopHooks struct{}

func (NopHooks) CheckConfigurations(ctx context.Context, tr *Tracker) {}

func (NopHooks) ApplyConfigurations(ctx context.Context, tr *Tracker) error { return nil }

func (NopHooks) ConfirmConfiguration(ctx context.Context, tr *Tracker, name string, enabled bool) error {
	return nil
}

// LoadConfigurations fetches the tracker's configuration records (most
// recently changed first), partitions them into the full set and the pending
// subset, and installs both wholesale. On a fetch error the tracker keeps its
// previous configuration set.
func (s *Service) LoadConfigurations(ctx context.Context, tr *Tracker) error {
	records, err := s.repo.ListConfigurations(ctx, tr.ID())
	if err != nil {
		slog.Error("load tracker configurations", "tracker_id", tr.ID(), "error", err.Error())
		return err
	}

	set := make(map[string]models.ConfigurationRecord, len(records))
	var pending []models.ConfigurationRecord
	for _, rec := range records {
		set[rec.Name] = rec
		if !rec.Status.Finished {
			pending = append(pending, rec)
		}
	}
	tr.replaceConfigurations(set, pending)

	slog.Debug("tracker configurations loaded",
		"tracker_id", tr.ID(),
		"total", len(set),
		"pending", len(pending))

	s.hooks.CheckConfigurations(ctx, tr)
	return nil
}

// ReloadConfigurations is LoadConfigurations addressed by tracker id, for
// callers that do not hold the aggregate. Returns the pending count after the
// reload.
func (s *Service) ReloadConfigurations(ctx context.Context, trackerID string) (int, error) {
	tr := s.Tracker(trackerID, "")
	if err := s.LoadConfigurations(ctx, tr); err != nil {
		return 0, err
	}
	return len(tr.PendingConfigurations()), nil
}
