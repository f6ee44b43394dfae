package repository

import (
	bookingserrors "campusres/internal/bookings/errors"
	"campusres/pkg/config"
	mongotx "campusres/pkg/db/mongo"
	"campusres/pkg/model"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByBookingID(ctx context.Context, bookingID string) (*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	FindActive(ctx context.Context, facility model.FacilityType, date string, excludeBookingID string) ([]*model.Booking, error)
	FindActiveOverlapping(ctx context.Context, facility model.FacilityType, date string, slot model.Interval, excludeBookingID string) ([]*model.Booking, error)
	FindBookedDates(ctx context.Context, facility model.FacilityType, fromDate string, excludeBookingID string) ([]string, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	if booking.Metadata.SchemaVersion == 0 {
		booking.Metadata.SchemaVersion = model.MetadataSchemaVersion
	}

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByBookingID(ctx context.Context, bookingID string) (*model.Booking, error) {
	if bookingID == "" {
		return nil, bookingserrors.ErrInvalidID
	}

	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

// Update writes the mutable fields of booking if its stored version still equals
// booking.Version, then advances booking.Version to the stored value.
func (r *mongoBookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{
		"booking_id": booking.BookingID,
		"version":    booking.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"date":           booking.Date,
			"start_time":     booking.StartTime,
			"end_time":       booking.EndTime,
			"status":         booking.Status,
			"receipt_number": booking.ReceiptNumber,
			"metadata":       booking.Metadata,
			"updated_at":     now,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"booking_id": booking.BookingID})
		if err != nil {
			return fmt.Errorf("failed to check booking existence: %w", err)
		}
		if count == 0 {
			return bookingserrors.ErrNotFound
		}
		return bookingserrors.ErrVersionConflict
	}

	booking.Version++
	booking.UpdatedAt = now
	return nil
}

func (r *mongoBookingRepository) FindActive(ctx context.Context, facility model.FacilityType, date string, excludeBookingID string) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, r.activeFilter(facility, date, excludeBookingID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) FindActiveOverlapping(
	ctx context.Context,
	facility model.FacilityType,
	date string,
	slot model.Interval,
	excludeBookingID string,
) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	filter := r.activeFilter(facility, date, excludeBookingID)
	filter["start_time"] = bson.M{"$lt": slot.End}
	filter["end_time"] = bson.M{"$gt": slot.Start}

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) FindBookedDates(ctx context.Context, facility model.FacilityType, fromDate string, excludeBookingID string) ([]string, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()

	filter := r.activeFilter(facility, "", excludeBookingID)
	filter["date"] = bson.M{"$gte": fromDate}

	values, err := r.collection.Distinct(ctx, "date", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find booked dates: %w", err)
	}

	dates := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			dates = append(dates, s)
		}
	}
	sort.Strings(dates)

	return dates, nil
}

// activeFilter matches active bookings of facility; an empty date matches every date.
func (r *mongoBookingRepository) activeFilter(facility model.FacilityType, date string, excludeBookingID string) bson.M {
	filter := bson.M{
		"facility_type": facility,
		"status":        bson.M{"$in": model.ActiveStatuses()},
	}
	if date != "" {
		filter["date"] = date
	}
	if excludeBookingID != "" {
		filter["booking_id"] = bson.M{"$ne": excludeBookingID}
	}
	return filter
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
