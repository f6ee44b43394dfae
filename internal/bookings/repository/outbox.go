package repository

import (
	bookingserrors "campusres/internal/bookings/errors"
	"campusres/pkg/config"
	mongotx "campusres/pkg/db/mongo"
	"campusres/pkg/model"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const OutboxCollectionName = "Notification_outbox"

type OutboxRepository interface {
	Append(ctx context.Context, event *model.OutboxEvent) error
	FetchPending(ctx context.Context, limit int, maxAttempts int) ([]*model.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

type mongoOutboxRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoOutboxRepository(cfg *config.Config) OutboxRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoOutboxRepository{
		cfg:        cfg,
		collection: db.Collection(OutboxCollectionName),
	}
}

// Append is called inside the transition transaction so the event commits
// or rolls back together with the booking change.
func (r *mongoOutboxRepository) Append(ctx context.Context, event *model.OutboxEvent) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to append outbox event: %w", err)
	}
	return nil
}

func (r *mongoOutboxRepository) FetchPending(ctx context.Context, limit int, maxAttempts int) ([]*model.OutboxEvent, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	filter := bson.M{
		"published_at": bson.M{"$exists": false},
		"attempts":     bson.M{"$lt": maxAttempts},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending outbox events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.OutboxEvent
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode outbox events: %w", err)
	}
	return events, nil
}

func (r *mongoOutboxRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	update := bson.M{
		"$set":   bson.M{"published_at": at.UTC()},
		"$inc":   bson.M{"attempts": 1},
		"$unset": bson.M{"last_error": ""},
	}
	return r.updateByID(ctx, id, update)
}

func (r *mongoOutboxRepository) MarkFailed(ctx context.Context, id string, cause error) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"last_error": cause.Error()},
		"$inc": bson.M{"attempts": 1},
	}
	return r.updateByID(ctx, id, update)
}

func (r *mongoOutboxRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update outbox event: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrOutboxEventNotFound
	}
	return nil
}
