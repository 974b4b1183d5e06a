package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"sensormon/internal/etl"
)

const defaultConnectTimeout = 5 * time.Second

// Store appends one document per ingestion invocation to an append-only
// collection. Writes are best-effort: a failed audit write is logged by the
// caller and never fails the job.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// entry is the audit document shape.
type entry struct {
	File       string       `bson:"file"`
	SensorType string       `bson:"sensor_type"`
	LoggedAt   time.Time    `bson:"logged_at"`
	Result     *etl.Summary `bson:"result"`
}

// New connects to Mongo and returns a store over the given collection.
func New(ctx context.Context, uri, database, collection string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("audit: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("audit: ping: %w", err)
	}

	return &Store{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Append writes the summary as a new audit document. Documents are never
// mutated afterwards.
func (s *Store) Append(ctx context.Context, summary *etl.Summary) error {
	_, err := s.collection.InsertOne(ctx, entry{
		File:       summary.File,
		SensorType: summary.SensorType,
		LoggedAt:   time.Now().UTC(),
		Result:     summary,
	})
	if err != nil {
		return fmt.Errorf("audit: append %s: %w", summary.File, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
