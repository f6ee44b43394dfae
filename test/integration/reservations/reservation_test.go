//go:build integration

package reservations

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"campusres/pkg/client"
	"campusres/pkg/model"
	"campusres/test/integration/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func daysFromToday(t *testing.T, env *testutil.TestEnv, days int) string {
	t.Helper()
	loc, err := time.LoadLocation(env.TimeZone)
	require.NoError(t, err)
	return time.Now().In(loc).AddDate(0, 0, days).Format(model.DateLayout)
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, status, apiErr.StatusCode)
	assert.Equal(t, code, apiErr.Code)
}

func TestReservationLifecycle(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	ctx := context.Background()
	date := daysFromToday(t, env, 10)

	t.Run("approve internal booking", func(t *testing.T) {
		mongo.SeedBooking(t, testutil.PendingBooking("GYM-IT-001", model.FacilityGym, model.RequesterStudent, date, "08:00", "10:00"))

		booking, err := api.Approve(ctx, "GYM-IT-001", model.ApproveRequest{Remarks: "Bring IDs"})
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, booking.Status)
		assert.Equal(t, testutil.AdminActorID, booking.Metadata.DecidedBy)

		assert.Equal(t, int64(1), mongo.CountDocuments(t, testutil.OutboxCollection, bson.M{"aggregate_id": "GYM-IT-001"}))
	})

	t.Run("approve twice is an invalid transition", func(t *testing.T) {
		_, err := api.Approve(ctx, "GYM-IT-001", model.ApproveRequest{})
		requireAPIError(t, err, http.StatusConflict, "INVALID_TRANSITION")
	})

	t.Run("external booking needs receipt", func(t *testing.T) {
		mongo.SeedBooking(t, testutil.PendingBooking("OVAL-IT-001", model.FacilityOval, model.RequesterExternal, date, "13:00", "15:00"))

		_, err := api.Approve(ctx, "OVAL-IT-001", model.ApproveRequest{})
		requireAPIError(t, err, http.StatusUnprocessableEntity, "MISSING_RECEIPT")

		_, err = api.Approve(ctx, "OVAL-IT-001", model.ApproveRequest{ReceiptNumber: "12345"})
		requireAPIError(t, err, http.StatusUnprocessableEntity, "INVALID_RECEIPT_FORMAT")

		booking, err := api.Approve(ctx, "OVAL-IT-001", model.ApproveRequest{ReceiptNumber: "1234567"})
		require.NoError(t, err)
		assert.Equal(t, "1234567", booking.ReceiptNumber)
	})

	t.Run("reschedule into an occupied slot conflicts", func(t *testing.T) {
		mongo.SeedBooking(t, testutil.PendingBooking("GYM-IT-002", model.FacilityGym, model.RequesterFaculty, date, "13:00", "15:00"))

		_, err := api.Reschedule(ctx, "GYM-IT-002", model.RescheduleRequest{
			Date:      date,
			StartTime: "09:00",
			EndTime:   "11:00",
		})
		requireAPIError(t, err, http.StatusConflict, "CONFLICT")
	})

	t.Run("reschedule to a free slot records history", func(t *testing.T) {
		target := daysFromToday(t, env, 12)
		booking, err := api.Reschedule(ctx, "GYM-IT-002", model.RescheduleRequest{
			Date:      target,
			StartTime: "09:00",
			EndTime:   "11:00",
			Reason:    "Venue maintenance",
		})
		require.NoError(t, err)
		assert.Equal(t, model.StatusRescheduled, booking.Status)
		assert.Equal(t, target, booking.Date)
		require.Len(t, booking.Metadata.PreviousSlots, 1)
		assert.Equal(t, date, booking.Metadata.PreviousSlots[0].Date)
	})

	t.Run("reschedule needs advance notice", func(t *testing.T) {
		_, err := api.Reschedule(ctx, "GYM-IT-002", model.RescheduleRequest{
			Date:      daysFromToday(t, env, 1),
			StartTime: "09:00",
			EndTime:   "11:00",
		})
		requireAPIError(t, err, http.StatusUnprocessableEntity, "ADVANCE_NOTICE")
	})

	t.Run("blocked date rejects approval", func(t *testing.T) {
		blockedDay := daysFromToday(t, env, 20)
		gym := model.FacilityGym
		mongo.SeedBlockedDate(t, model.BlockedDateRange{
			FacilityType: &gym,
			StartDate:    blockedDay,
			EndDate:      blockedDay,
			EventName:    "Intramurals",
			EventType:    "intramurals",
			IsActive:     true,
		})
		mongo.SeedBooking(t, testutil.PendingBooking("GYM-IT-003", model.FacilityGym, model.RequesterStaff, blockedDay, "08:00", "09:00"))

		_, err := api.Approve(ctx, "GYM-IT-003", model.ApproveRequest{})
		requireAPIError(t, err, http.StatusConflict, "BLOCKED_DATE")
	})

	t.Run("cancel frees the slot", func(t *testing.T) {
		_, err := api.Cancel(ctx, "GYM-IT-001", model.CancelRequest{Reason: "Event postponed"})
		require.NoError(t, err)

		report, err := api.Availability(ctx, model.FacilityGym, date, "")
		require.NoError(t, err)
		assert.Empty(t, report.Booked)
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := api.GetBooking(ctx, "GYM-IT-404")
		requireAPIError(t, err, http.StatusNotFound, "NOT_FOUND")
	})
}

func TestConcurrentReschedulesIntoSameSlot(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, api := env.Setup(t)
	defer env.Cleanup(t, mongo)

	ctx := context.Background()
	date := daysFromToday(t, env, 15)
	target := daysFromToday(t, env, 16)

	const contenders = 6
	ids := make([]string, contenders)
	for i := range ids {
		ids[i] = "OVAL-RACE-" + string(rune('A'+i))
		mongo.SeedBooking(t, testutil.PendingBooking(ids[i], model.FacilityOval, model.RequesterStudent, date, "06:00", "07:00"))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := api.Reschedule(ctx, id, model.RescheduleRequest{
				Date:      target,
				StartTime: "16:00",
				EndTime:   "18:00",
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), mongo.CountDocuments(t, testutil.BookingsCollection, bson.M{
		"facility_type": "oval",
		"date":          target,
		"status":        bson.M{"$in": []string{"pending", "confirmed", "rescheduled"}},
	}))
}
