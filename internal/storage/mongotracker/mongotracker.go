package mongotracker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	trackersCollection       = "trackers"
	coordinatesCollection    = "tracker_coordinates"
	configurationsCollection = "tracker_configurations"
)

type Storage struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(ctx context.Context, uri, dbName string) (*Storage, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, errors.Wrap(err, "ping mongo")
	}

	s := &Storage{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) Close() {
	if s.client != nil {
		_ = s.client.Disconnect(context.Background())
	}
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	// One coordinate document per (tracker, key); history reads are by
	// tracker and datetime descending.
	_, err := s.db.Collection(coordinatesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trackerId", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "trackerId", Value: 1}, {Key: "datetime", Value: -1}},
		},
	})
	if err != nil {
		return errors.Wrap(err, "create coordinate indexes")
	}

	_, err = s.db.Collection(configurationsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "trackerId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "trackerId", Value: 1}, {Key: "status.datetime", Value: -1}},
		},
	})
	return errors.Wrap(err, "create configuration indexes")
}
