package testutil

import (
	"context"
	"testing"
	"time"

	blockedRepository "campusres/internal/blockeddates/repository"
	"campusres/internal/bookings/repository"
	"campusres/pkg/client"
	"campusres/pkg/config"
	"campusres/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultDatabaseName = "campusres"
	ConnectionTimeout   = 10 * time.Second

	BookingsCollection     = "Bookings"
	BlockedDatesCollection = "Blocked_dates"
	SlotGuardsCollection   = "Booking_locks"
	OutboxCollection       = "Notification_outbox"
)

// MongoHelper seeds and inspects the reservation collections directly,
// since booking creation is not part of the HTTP surface.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string

	bookings repository.BookingRepository
	blocked  blockedRepository.BlockedDateRepository
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	if mongoURI == "" {
		mongoURI = DefaultMongoURI
	}
	if dbName == "" {
		dbName = DefaultDatabaseName
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}

	if err := mongoClient.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	cfg := &config.Config{
		MongoDatabaseName: dbName,
		StoreTimeout:      5 * time.Second,
		Client:            &client.Client{Mongo: mongoClient},
	}

	return &MongoHelper{
		Client:   mongoClient,
		Database: mongoClient.Database(dbName),
		DBName:   dbName,
		bookings: repository.NewMongoBookingRepository(cfg),
		blocked:  blockedRepository.NewMongoBlockedDateRepository(cfg),
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// CleanReservations removes documents but keeps collections, so migrated
// validators and indexes survive between tests.
func (m *MongoHelper) CleanReservations(t *testing.T) {
	t.Helper()
	for _, name := range []string{BookingsCollection, BlockedDatesCollection, SlotGuardsCollection, OutboxCollection} {
		m.CleanCollection(t, name)
	}
}

func (m *MongoHelper) CleanCollection(t *testing.T, collectionName string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := m.Database.Collection(collectionName).DeleteMany(ctx, bson.M{}); err != nil {
		t.Fatalf("failed to clean collection %s: %v", collectionName, err)
	}
}

func (m *MongoHelper) CountDocuments(t *testing.T, collectionName string, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.Database.Collection(collectionName).CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collectionName, err)
	}
	return count
}

func (m *MongoHelper) SeedBooking(t *testing.T, booking model.Booking) {
	t.Helper()
	if err := m.bookings.Create(context.Background(), &booking); err != nil {
		t.Fatalf("failed to seed booking %s: %v", booking.BookingID, err)
	}
}

func (m *MongoHelper) SeedBlockedDate(t *testing.T, blocked model.BlockedDateRange) {
	t.Helper()
	if err := m.blocked.Create(context.Background(), &blocked); err != nil {
		t.Fatalf("failed to seed blocked date %s: %v", blocked.EventName, err)
	}
}

// PendingBooking returns a pending booking for facility on date. Timestamps
// and version are filled in by the repository on insert.
func PendingBooking(id string, facility model.FacilityType, class model.RequesterClass, date, start, end string) model.Booking {
	return model.Booking{
		BookingID:      id,
		FacilityType:   facility,
		RequesterID:    "requester-" + id,
		RequesterClass: class,
		Date:           date,
		StartTime:      start,
		EndTime:        end,
		Status:         model.StatusPending,
		Purpose:        "Integration test",
		Attendees:      20,
	}
}
