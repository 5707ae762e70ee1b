package mongotracker

import (
	"context"

	"trackerd/internal/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertTrackerState merges the given fields into the tracker document.
// Zero-valued fields are omitted from the update, so existing data survives.
func (s *Storage) UpsertTrackerState(ctx context.Context, trackerID string, state models.TrackerState) error {
	_, err := s.db.Collection(trackersCollection).UpdateOne(ctx,
		bson.M{"_id": trackerID},
		bson.M{"$set": state},
		options.Update().SetUpsert(true),
	)
	return errors.Wrap(err, "upsert tracker state")
}

func (s *Storage) GetTrackerState(ctx context.Context, trackerID string) (*models.TrackerState, error) {
	var state models.TrackerState
	err := s.db.Collection(trackersCollection).
		FindOne(ctx, bson.M{"_id": trackerID}).
		Decode(&state)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get tracker state")
	}
	return &state, nil
}
