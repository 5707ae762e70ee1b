package pgevents

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS tracker_events (
  id BIGSERIAL PRIMARY KEY,
  tracker_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  latitude DOUBLE PRECISION NOT NULL,
  longitude DOUBLE PRECISION NOT NULL,
  address TEXT NOT NULL DEFAULT '',
  occurred_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracker_events_tracker_id_occurred_at ON tracker_events(tracker_id, occurred_at DESC)`,
		// The same report never produces two rows.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_tracker_events_dedup ON tracker_events(tracker_id, kind, occurred_at)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
