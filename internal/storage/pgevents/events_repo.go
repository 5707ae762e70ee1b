package pgevents

import (
	"context"

	"trackerd/internal/models"

	"github.com/pkg/errors"
)

func (s *Storage) RecordEvent(ctx context.Context, e models.TrackerEvent) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO tracker_events (
  tracker_id, kind, latitude, longitude, address, occurred_at, created_at
)
VALUES ($1,$2,$3,$4,$5,$6, now())
ON CONFLICT (tracker_id, kind, occurred_at) DO NOTHING
`, e.TrackerID, e.Kind, e.Latitude, e.Longitude, e.Address, e.OccurredAt.UTC())
	return errors.Wrap(err, "insert tracker event")
}

func (s *Storage) ListEvents(ctx context.Context, trackerID string, limit, offset int) ([]*models.TrackerEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT
  id, tracker_id, kind, latitude, longitude, address, occurred_at, created_at
FROM tracker_events
WHERE tracker_id = $1
ORDER BY occurred_at DESC
LIMIT $2 OFFSET $3
`, trackerID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select events")
	}
	defer rows.Close()

	var out []*models.TrackerEvent
	for rows.Next() {
		var e models.TrackerEvent
		if err := rows.Scan(
			&e.ID, &e.TrackerID, &e.Kind, &e.Latitude, &e.Longitude,
			&e.Address, &e.OccurredAt, &e.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		out = append(out, &e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
