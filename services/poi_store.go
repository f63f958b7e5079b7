package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trono-server/models"
)

// POIStore is the persistent POI collection. The core only ever reads it; InsertMany
// exists for first-run seeding.
type POIStore interface {
	LoadAll(ctx context.Context) ([]models.POI, error)
	Count(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, pois []models.POI) error
}

type MongoPOIStore struct {
	collection *mongo.Collection
	limit      int64
}

// NewMongoPOIStore reads at most limit documents per load; zero means no limit.
func NewMongoPOIStore(collection *mongo.Collection, limit int64) *MongoPOIStore {
	return &MongoPOIStore{collection: collection, limit: limit}
}

// LoadAll returns the collection in natural insertion order.
func (s *MongoPOIStore) LoadAll(ctx context.Context) ([]models.POI, error) {
	ctx, span := otel.Tracer("MongoPOIStore").Start(ctx, "LoadAll", trace.WithAttributes(
		attribute.String("db.collection", s.collection.Name()),
		attribute.Int64("limit", s.limit),
	))
	defer span.End()

	opts := options.Find()
	if s.limit > 0 {
		opts.SetLimit(s.limit)
	}

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find failed")
		return nil, fmt.Errorf("failed to query POIs: %w", err)
	}
	defer cursor.Close(ctx)

	var pois []models.POI
	if err := cursor.All(ctx, &pois); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("failed to decode POIs: %w", err)
	}

	span.SetAttributes(attribute.Int("poi.count", len(pois)))
	return pois, nil
}

func (s *MongoPOIStore) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count POIs: %w", err)
	}
	return n, nil
}

func (s *MongoPOIStore) InsertMany(ctx context.Context, pois []models.POI) error {
	if len(pois) == 0 {
		return nil
	}
	docs := make([]any, len(pois))
	for i, poi := range pois {
		docs[i] = poi
	}
	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert POIs: %w", err)
	}
	return nil
}
