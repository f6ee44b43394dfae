package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"campusres/pkg/client"
)

const (
	AdminActorID   = "integration-admin"
	AdminActorRole = "admin"
)

type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
	ServerPort   string
	TimeZone     string
}

func NewTestEnv() *TestEnv {
	serverPort := getEnv("TEST_SERVER_PORT", "8080")

	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    getEnv("TEST_SERVER_URL", fmt.Sprintf("http://localhost:%s", serverPort)),
		ServerPort:   serverPort,
		TimeZone:     getEnv("TEST_TIME_ZONE", "Asia/Manila"),
	}
}

// Setup empties the reservation collections and waits for the service to
// answer health probes. The returned client acts as an admin.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *client.ReservationClient) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanReservations(t)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultHealthCheckTimeout)
	defer cancel()

	if err := client.NewHttpClient(e.ServerURL).WaitForHealthy(ctx, DefaultHealthCheckTimeout); err != nil {
		t.Fatalf("reservations service is not healthy at %s: %v", e.ServerURL, err)
	}

	return mongo, client.NewReservationClient(e.ServerURL, AdminActorID, AdminActorRole)
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanReservations(t)
		mongo.Close(t)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

const (
	DefaultHealthCheckTimeout = 3 * ConnectionTimeout
)
