package repository

import (
	"campusres/pkg/config"
	mongotx "campusres/pkg/db/mongo"
	apperrors "campusres/pkg/errors"
	"campusres/pkg/model"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SlotGuardCollectionName = "Booking_locks"

// SlotGuardRepository serializes transactions that check the same facility and date.
type SlotGuardRepository interface {
	Touch(ctx context.Context, facility model.FacilityType, date string) error
}

type mongoSlotGuardRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewSlotGuardRepository(cfg *config.Config) SlotGuardRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotGuardRepository{
		cfg:        cfg,
		collection: db.Collection(SlotGuardCollectionName),
	}
}

// Touch must run inside the caller's transaction. A concurrent transaction
// touching the same guard gets a write conflict and is retried by the driver.
func (r *mongoSlotGuardRepository) Touch(ctx context.Context, facility model.FacilityType, date string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	id := model.SlotGuardID(facility, date)
	update := bson.M{
		"$inc": bson.M{"version": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		// Two first-time upserts of the same key race on _id.
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("Another update for this date is in progress. Please try again.")
		}
		return fmt.Errorf("failed to touch slot guard %s: %w", id, err)
	}
	return nil
}
