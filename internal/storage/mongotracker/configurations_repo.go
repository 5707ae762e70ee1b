package mongotracker

import (
	"context"

	"trackerd/internal/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type configurationDoc struct {
	TrackerID                  string `bson:"trackerId"`
	models.ConfigurationRecord `bson:",inline"`
}

// ListConfigurations returns all configuration records of a tracker ordered by
// status change time, most recent first.
func (s *Storage) ListConfigurations(ctx context.Context, trackerID string) ([]models.ConfigurationRecord, error) {
	cur, err := s.db.Collection(configurationsCollection).Find(ctx,
		bson.M{"trackerId": trackerID},
		options.Find().SetSort(bson.D{{Key: "status.datetime", Value: -1}}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "list configurations")
	}
	defer cur.Close(ctx)

	var out []models.ConfigurationRecord
	for cur.Next(ctx) {
		var doc configurationDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode configuration")
		}
		out = append(out, doc.ConfigurationRecord)
	}
	return out, errors.Wrap(cur.Err(), "configurations cursor")
}

// SaveConfiguration writes a configuration record, replacing an existing one
// with the same name.
func (s *Storage) SaveConfiguration(ctx context.Context, trackerID string, rec models.ConfigurationRecord) error {
	_, err := s.db.Collection(configurationsCollection).ReplaceOne(ctx,
		bson.M{"trackerId": trackerID, "name": rec.Name},
		configurationDoc{TrackerID: trackerID, ConfigurationRecord: rec},
		options.Replace().SetUpsert(true),
	)
	return errors.Wrap(err, "save configuration")
}

// ListTrackersWithPendingConfigurations returns distinct tracker ids that have
// at least one configuration record not yet confirmed by the device.
func (s *Storage) ListTrackersWithPendingConfigurations(ctx context.Context) ([]string, error) {
	vals, err := s.db.Collection(configurationsCollection).Distinct(ctx,
		"trackerId",
		bson.M{"status.finished": false},
	)
	if err != nil {
		return nil, errors.Wrap(err, "list pending trackers")
	}

	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if id, ok := v.(string); ok {
			out = append(out, id)
		}
	}
	return out, nil
}
