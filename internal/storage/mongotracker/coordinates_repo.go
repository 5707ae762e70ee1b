package mongotracker

import (
	"context"
	"time"

	"trackerd/internal/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LastCoordinateBefore returns the most recent stored coordinate with a
// datetime at or before t, or nil when the tracker has no history yet.
func (s *Storage) LastCoordinateBefore(ctx context.Context, trackerID string, t time.Time) (*models.StoredCoordinate, error) {
	var sc models.StoredCoordinate
	err := s.db.Collection(coordinatesCollection).FindOne(ctx,
		bson.M{
			"trackerId": trackerID,
			"datetime":  bson.M{"$lte": t},
		},
		options.FindOne().SetSort(bson.D{{Key: "datetime", Value: -1}}),
	).Decode(&sc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "last coordinate")
	}
	return &sc, nil
}

// InsertCoordinate writes a new coordinate document. Writing the same
// (tracker, key) twice replaces the document rather than duplicating it.
func (s *Storage) InsertCoordinate(ctx context.Context, sc models.StoredCoordinate) error {
	_, err := s.db.Collection(coordinatesCollection).ReplaceOne(ctx,
		bson.M{"trackerId": sc.TrackerID, "key": sc.Key},
		sc,
		options.Replace().SetUpsert(true),
	)
	return errors.Wrap(err, "insert coordinate")
}

// UpdateCoordinate applies a partial update to an existing coordinate
// document. The stored datetime field is left untouched.
func (s *Storage) UpdateCoordinate(ctx context.Context, trackerID, key string, upd models.CoordinateUpdate) error {
	res, err := s.db.Collection(coordinatesCollection).UpdateOne(ctx,
		bson.M{"trackerId": trackerID, "key": key},
		bson.M{"$set": upd},
	)
	if err != nil {
		return errors.Wrap(err, "update coordinate")
	}
	if res.MatchedCount == 0 {
		return errors.Errorf("coordinate %s/%s not found", trackerID, key)
	}
	return nil
}

func (s *Storage) ListCoordinates(ctx context.Context, trackerID string, limit int) ([]*models.StoredCoordinate, error) {
	if limit <= 0 {
		limit = 100
	}
	cur, err := s.db.Collection(coordinatesCollection).Find(ctx,
		bson.M{"trackerId": trackerID},
		options.Find().
			SetSort(bson.D{{Key: "datetime", Value: -1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "list coordinates")
	}
	defer cur.Close(ctx)

	var out []*models.StoredCoordinate
	for cur.Next(ctx) {
		var sc models.StoredCoordinate
		if err := cur.Decode(&sc); err != nil {
			return nil, errors.Wrap(err, "decode coordinate")
		}
		out = append(out, &sc)
	}
	return out, errors.Wrap(cur.Err(), "coordinates cursor")
}
