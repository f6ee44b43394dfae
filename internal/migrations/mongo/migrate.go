package mongo

import (
	blockedRepository "campusres/internal/blockeddates/repository"
	bookingsRepository "campusres/internal/bookings/repository"
	"campusres/internal/migrations/mongo/validators"
	"campusres/pkg/logger"
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BookingsCollection     = bookingsRepository.CollectionName
	BlockedDatesCollection = blockedRepository.CollectionName
	SlotGuardsCollection   = bookingsRepository.SlotGuardCollectionName
	OutboxCollection       = bookingsRepository.OutboxCollectionName

	// Published outbox rows are kept for a week so replays can be traced.
	publishedOutboxTTLSeconds int32 = 7 * 24 * 60 * 60
)

var (
	BookingsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("booking_id_unique"),
		},
		{
			Keys: bson.D{
				{Key: "facility_type", Value: 1},
				{Key: "date", Value: 1},
				{Key: "status", Value: 1},
				{Key: "start_time", Value: 1},
			},
			Options: options.Index().SetName("facility_date_status_start"),
		},
		{
			Keys: bson.D{
				{Key: "requester_id", Value: 1},
				{Key: "date", Value: -1},
			},
			Options: options.Index().SetName("requester_date"),
		},
	}

	BlockedDatesIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "is_active", Value: 1},
				{Key: "start_date", Value: 1},
				{Key: "end_date", Value: 1},
			},
			Options: options.Index().SetName("active_range"),
		},
		{
			Keys: bson.D{
				{Key: "facility_type", Value: 1},
				{Key: "is_active", Value: 1},
				{Key: "start_date", Value: 1},
			},
			Options: options.Index().SetName("facility_active_start"),
		},
	}

	SlotGuardsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetName("updated_at"),
		},
	}

	OutboxIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "published_at", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("pending_by_age"),
		},
		{
			Keys: bson.D{{Key: "published_at", Value: 1}},
			Options: options.Index().
				SetName("published_ttl").
				SetExpireAfterSeconds(publishedOutboxTTLSeconds).
				SetPartialFilterExpression(bson.M{"published_at": bson.M{"$exists": true}}),
		},
	}
)

type CollectionDefinition struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists every collection the reservation services read or write.
func Collections() map[string]CollectionDefinition {
	return map[string]CollectionDefinition{
		BookingsCollection: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		BlockedDatesCollection: {
			Indexes:   BlockedDatesIndexes,
			Validator: validators.BlockedDateValidator,
		},
		SlotGuardsCollection: {
			Indexes:   SlotGuardsIndexes,
			Validator: validators.SlotGuardValidator,
		},
		OutboxCollection: {
			Indexes:   OutboxIndexes,
			Validator: validators.OutboxValidator,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	collections := Collections()
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := collections[name]
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "collections", len(names))
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	created, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", created)
	return nil
}
