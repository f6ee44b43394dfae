package repository

import (
	"campusres/pkg/config"
	mongotx "campusres/pkg/db/mongo"
	"campusres/pkg/model"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Blocked_dates"

type BlockedDateRepository interface {
	FindActiveCovering(ctx context.Context, facility model.FacilityType, date string) ([]*model.BlockedDateRange, error)
	Create(ctx context.Context, blocked *model.BlockedDateRange) error
}

type mongoBlockedDateRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBlockedDateRepository(cfg *config.Config) BlockedDateRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBlockedDateRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// FindActiveCovering returns active ranges that include date and apply either to
// facility or to every facility. Earliest-starting ranges come first.
func (r *mongoBlockedDateRepository) FindActiveCovering(ctx context.Context, facility model.FacilityType, date string) ([]*model.BlockedDateRange, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	filter := bson.M{
		"is_active":  true,
		"start_date": bson.M{"$lte": date},
		"end_date":   bson.M{"$gte": date},
		"$or": []bson.M{
			{"facility_type": facility},
			{"facility_type": nil},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find blocked dates: %w", err)
	}
	defer cursor.Close(ctx)

	var ranges []*model.BlockedDateRange
	if err = cursor.All(ctx, &ranges); err != nil {
		return nil, fmt.Errorf("failed to decode blocked dates: %w", err)
	}
	return ranges, nil
}

func (r *mongoBlockedDateRepository) Create(ctx context.Context, blocked *model.BlockedDateRange) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	if blocked.ID == "" {
		blocked.ID = primitive.NewObjectID().Hex()
	}
	blocked.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, blocked); err != nil {
		return fmt.Errorf("failed to create blocked date range: %w", err)
	}
	return nil
}
