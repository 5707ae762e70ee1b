package trackers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"trackerd/internal/geo"
	"trackerd/internal/models"

	"github.com/pkg/errors"
)

// Movement thresholds in meters. GSM cell-tower fixes are far less accurate
// than GPS, so they get a much wider band before a report counts as movement.
const (
	movementThresholdGPS = 50
	movementThresholdGSM = 2000
)

const (
	coarseCaveat       = "(GPS signal unavailable)"
	addressUnavailable = "Address unavailable near this coordinate."
	stoppedMessage     = "Tracker remains at the same position."
)

// Ingest runs the coordinate pipeline for one decoded report: persist the
// tracker state, decide movement vs. stationary against the last stored
// point, enrich and persist the coordinate, and notify subscribers exactly
// once.
//
// Only a state-persistence failure is returned (so a broker caller can avoid
// committing the message); everything after that is logged and swallowed, as
// a partial ingestion cannot be retried safely.
func (s *Service) Ingest(ctx context.Context, trackerID string, state models.TrackerState, report models.CoordinateReport, override map[string]string) error {
	unlock := s.locks.lock(trackerID)
	defer unlock()

	if err := s.repo.UpsertTrackerState(ctx, trackerID, state); err != nil {
		slog.Error("update tracker state", "tracker_id", trackerID, "error", err.Error())
		return errors.Wrap(err, "update tracker state")
	}
	s.invalidateState(ctx, trackerID)

	last, err := s.repo.LastCoordinateBefore(ctx, trackerID, report.Datetime)
	if err != nil {
		slog.Error("find last coordinate", "tracker_id", trackerID, "error", err.Error())
		return nil
	}

	coarse := state.LastCoordinate != nil && state.LastCoordinate.Type == models.CoordinateTypeGSM

	threshold := float64(movementThresholdGPS)
	if coarse {
		threshold = movementThresholdGSM
	}

	if last == nil || geo.DistanceMeters(report.Position, last.Position) > threshold {
		s.ingestMovement(ctx, trackerID, report, coarse, override)
	} else {
		s.ingestStationary(ctx, trackerID, last.Key, report, coarse, override)
	}
	return nil
}

func (s *Service) ingestMovement(ctx context.Context, trackerID string, report models.CoordinateReport, coarse bool, override map[string]string) {
	key := report.ID
	if key == "" {
		key = coordinateKey(report.Datetime)
	}

	slog.Debug("requesting reverse geocoding",
		"tracker_id", trackerID,
		"latitude", report.Position.Latitude,
		"longitude", report.Position.Longitude)

	address, geocoded := s.resolveAddress(ctx, trackerID, report.Position)

	sc := models.StoredCoordinate{
		TrackerID: trackerID,
		Key:       key,
		ID:        report.ID,
		Type:      report.Type,
		Position:  report.Position,
		Datetime:  report.Datetime,
		Address:   address,
		Speed:     report.Speed,
		Battery:   report.Battery,
		Signal:    report.Signal,
	}
	if err := s.repo.InsertCoordinate(ctx, sc); err != nil {
		slog.Error("insert coordinate", "tracker_id", trackerID, "key", key, "error", err.Error())
		return
	}

	content := coarseCaveatOr(coarse, func() string {
		if geocoded {
			return address
		}
		return "Coordinates: " + formatLatLon(report.Position)
	})
	s.notify(ctx, trackerID, models.TopicMovement, notificationParams("Movement alert", content, report.Position), override)

	s.recordEvent(ctx, models.TrackerEvent{
		TrackerID:  trackerID,
		Kind:       models.EventKindMovement,
		Latitude:   report.Position.Latitude,
		Longitude:  report.Position.Longitude,
		Address:    address,
		OccurredAt: report.Datetime,
	})

	slog.Info("location report processed", "tracker_id", trackerID, "result", "coordinate inserted", "geocoded", geocoded)
}

func (s *Service) ingestStationary(ctx context.Context, trackerID, key string, report models.CoordinateReport, coarse bool, override map[string]string) {
	// The stored document keeps its original datetime; only lastDatetime
	// moves forward. No geocoding on this branch.
	upd := models.CoordinateUpdate{
		Type:         report.Type,
		Position:     report.Position,
		LastDatetime: report.Datetime,
		Speed:        report.Speed,
		Battery:      report.Battery,
		Signal:       report.Signal,
	}
	if err := s.repo.UpdateCoordinate(ctx, trackerID, key, upd); err != nil {
		slog.Error("update coordinate", "tracker_id", trackerID, "key", key, "error", err.Error())
		return
	}

	content := coarseCaveatOr(coarse, func() string { return stoppedMessage })
	s.notify(ctx, trackerID, models.TopicStopped, notificationParams("Presence alert", content, report.Position), override)

	s.recordEvent(ctx, models.TrackerEvent{
		TrackerID:  trackerID,
		Kind:       models.EventKindStopped,
		Latitude:   report.Position.Latitude,
		Longitude:  report.Position.Longitude,
		OccurredAt: report.Datetime,
	})

	slog.Info("location report processed", "tracker_id", trackerID, "result", "coordinate updated")
}

// resolveAddress reverse geocodes a position. Failure is non-fatal: the
// fallback address is persisted and the report proceeds.
func (s *Service) resolveAddress(ctx context.Context, trackerID string, pos models.Position) (string, bool) {
	results, err := s.geocoder.Reverse(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		slog.Warn("reverse geocoding failed", "tracker_id", trackerID, "error", err.Error())
		return addressUnavailable, false
	}
	if len(results) == 0 || results[0].FormattedAddress == "" {
		return addressUnavailable, false
	}
	return results[0].FormattedAddress, true
}

// notify dispatches exactly one notification for the ingestion call. Caller
// overrides win over the computed parameters. Send failures are logged only.
func (s *Service) notify(ctx context.Context, trackerID, topic string, params, override map[string]string) {
	merged := MergeParams(params, override)
	if err := s.notifier.Send(ctx, trackerID, topic, merged); err != nil {
		slog.Warn("send notification", "tracker_id", trackerID, "topic", topic, "error", err.Error())
	}
}

func (s *Service) recordEvent(ctx context.Context, e models.TrackerEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.RecordEvent(ctx, e); err != nil {
		slog.Warn("record tracker event", "tracker_id", e.TrackerID, "kind", e.Kind, "error", err.Error())
	}
}

// MergeParams overlays override onto base; override wins on key collision.
// Neither input map is modified.
func MergeParams(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func notificationParams(title, content string, pos models.Position) map[string]string {
	return map[string]string{
		"title":       title,
		"content":     content,
		"coordinates": formatLatLon(pos),
		"datetime":    strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
}

func coarseCaveatOr(coarse bool, content func() string) string {
	if coarse {
		return coarseCaveat
	}
	return content()
}

func formatLatLon(pos models.Position) string {
	return fmt.Sprintf("%v,%v", pos.Latitude, pos.Longitude)
}

// coordinateKey builds the storage key for reports without an external id:
// zero-padded local time down to the millisecond, so keys sort lexically in
// chronological order.
func coordinateKey(t time.Time) string {
	return t.Format("2006_01_02_15_04_05") + fmt.Sprintf("_%03d", t.Nanosecond()/int(time.Millisecond))
}
