package service

import (
	availability "campusres/internal/availability/service"
	"campusres/internal/bookings/validator"
	"campusres/pkg/auth"
	"campusres/pkg/config"
	apperrors "campusres/pkg/errors"
	"campusres/pkg/logger"
	"campusres/pkg/model"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	manila = time.FixedZone("PHT", 8*60*60)
	admin  = auth.Actor{ID: "admin-1", Role: "admin", Authorized: true}
)

func testConfig() *config.Config {
	return &config.Config{
		Log:               logger.Discard(),
		FacilitySessions:  config.DefaultFacilitySessions,
		Location:          manila,
		AdvanceNoticeDays: 3,
		TransitionRoles:   []string{"admin", "staff"},
	}
}

// clockAt returns a clock fixed at 10:00 Manila time on date.
func clockAt(date string) func() time.Time {
	d, err := time.ParseInLocation(model.DateLayout, date, manila)
	if err != nil {
		panic(err)
	}
	t := d.Add(10 * time.Hour)
	return func() time.Time { return t }
}

func newTestService(store *memStore, now func() time.Time) BookingService {
	cfg := testConfig()
	avail := availability.NewAvailabilityServiceWithClock(store, store, cfg, now)
	v := validator.NewBookingValidator(cfg.Log)
	return NewBookingServiceWithClock(store, store, store, avail, v, cfg, now)
}

func pendingBooking(id string, facility model.FacilityType, class model.RequesterClass, date, start, end string) *model.Booking {
	return &model.Booking{
		BookingID:      id,
		FacilityType:   facility,
		RequesterID:    "req-" + id,
		RequesterClass: class,
		Date:           date,
		StartTime:      start,
		EndTime:        end,
		Status:         model.StatusPending,
	}
}

func TestApprove_ExternalReceipt(t *testing.T) {
	tests := []struct {
		name     string
		receipt  string
		wantCode string
	}{
		{"missing", "", apperrors.CodeMissingReceipt},
		{"blank", "   ", apperrors.CodeMissingReceipt},
		{"six digits", "123456", apperrors.CodeInvalidReceiptFormat},
		{"eight digits", "12345678", apperrors.CodeInvalidReceiptFormat},
		{"letters", "abcdefg", apperrors.CodeInvalidReceiptFormat},
		{"valid", "1234567", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(pendingBooking("OVAL-2025-002", model.FacilityOval, model.RequesterExternal, "2025-07-01", "08:00", "10:00"))
			svc := newTestService(store, clockAt("2025-06-01"))

			got, err := svc.Approve(context.Background(), admin, "OVAL-2025-002", model.ApproveRequest{ReceiptNumber: tt.receipt})

			if tt.wantCode != "" {
				assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
				assert.Equal(t, model.StatusPending, store.get("OVAL-2025-002").Status)
				assert.Empty(t, store.events())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, model.StatusConfirmed, got.Status)
			assert.Equal(t, "1234567", got.ReceiptNumber)
			assert.Equal(t, model.StatusConfirmed, store.get("OVAL-2025-002").Status)

			events := store.events()
			require.Len(t, events, 1)
			n := events[0].Payload
			assert.Equal(t, "reservation.approve", events[0].EventType)
			assert.Equal(t, "OVAL-2025-002", events[0].AggregateID)
			assert.Equal(t, model.CategorySuccess, n.Category)
			assert.Equal(t, "Oval Field Reservation Approved", n.Title)
			assert.Equal(t, "Your oval field reservation (ID: OVAL-2025-002) for July 1, 2025 has been approved!", n.Body)
			assert.Equal(t, "/external/oval", n.DeepLink)
			assert.Equal(t, "req-OVAL-2025-002", n.RequesterID)
		})
	}
}

func TestApprove_ExternalUsesStoredReceipt(t *testing.T) {
	b := pendingBooking("GYM-2025-020", model.FacilityGym, model.RequesterExternal, "2025-07-01", "08:00", "12:00")
	b.ReceiptNumber = "7654321"
	store := newMemStore(b)
	svc := newTestService(store, clockAt("2025-06-01"))

	got, err := svc.Approve(context.Background(), admin, "GYM-2025-020", model.ApproveRequest{})
	require.NoError(t, err)
	assert.Equal(t, "7654321", got.ReceiptNumber)
}

func TestApprove_InternalRequester(t *testing.T) {
	store := newMemStore(pendingBooking("GYM-2025-014", model.FacilityGym, model.RequesterStudent, "2025-07-01", "08:00", "12:00"))
	svc := newTestService(store, clockAt("2025-06-01"))

	_, err := svc.Approve(context.Background(), admin, "GYM-2025-014", model.ApproveRequest{ReceiptNumber: "12-345"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidReceiptFormat), "got %v", err)

	got, err := svc.Approve(context.Background(), admin, "GYM-2025-014", model.ApproveRequest{Remarks: "  Bring own balls  "})
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Equal(t, "Bring own balls", got.Metadata.AdminRemarks)
	assert.Equal(t, "admin-1", got.Metadata.DecidedBy)
	assert.Equal(t, "/student/gym", store.events()[0].Payload.DeepLink)
}

func TestApprove_Twice(t *testing.T) {
	store := newMemStore(pendingBooking("GYM-2025-014", model.FacilityGym, model.RequesterFaculty, "2025-07-01", "08:00", "12:00"))
	svc := newTestService(store, clockAt("2025-06-01"))

	_, err := svc.Approve(context.Background(), admin, "GYM-2025-014", model.ApproveRequest{})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), admin, "GYM-2025-014", model.ApproveRequest{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition), "got %v", err)
	assert.Len(t, store.events(), 1)
}

func TestApprove_BlockedDate(t *testing.T) {
	store := newMemStore(pendingBooking("GYM-2025-030", model.FacilityGym, model.RequesterStudent, "2025-09-15", "08:00", "12:00"))
	store.blocked = []*model.BlockedDateRange{{StartDate: "2025-09-15", EndDate: "2025-09-15", EventName: "Founders Day", IsActive: true}}
	svc := newTestService(store, clockAt("2025-09-01"))

	_, err := svc.Approve(context.Background(), admin, "GYM-2025-030", model.ApproveRequest{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeBlockedDate), "got %v", err)
	assert.Contains(t, err.Error(), "Founders Day")
	assert.Equal(t, model.StatusPending, store.get("GYM-2025-030").Status)
}

func TestTransition_Table(t *testing.T) {
	req := model.TransitionRequest{
		ReceiptNumber: "1234567",
		Reason:        "Schedule change",
		Date:          "2025-07-20",
		StartTime:     "13:00",
		EndTime:       "17:00",
	}
	actions := []model.Action{model.ActionApprove, model.ActionReject, model.ActionReschedule, model.ActionCancel}
	statuses := []model.Status{model.StatusPending, model.StatusConfirmed, model.StatusRejected, model.StatusRescheduled, model.StatusCancelled}

	for _, from := range statuses {
		for _, action := range actions {
			t.Run(fmt.Sprintf("%s_%s", from, action), func(t *testing.T) {
				b := pendingBooking("GYM-2025-001", model.FacilityGym, model.RequesterStudent, "2025-07-10", "08:00", "12:00")
				b.Status = from
				store := newMemStore(b)
				svc := newTestService(store, clockAt("2025-07-01"))

				got, err := svc.Transition(context.Background(), admin, "GYM-2025-001", action, req)

				want, legal := from.Next(action)
				if !legal {
					assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition), "got %v", err)
					assert.Equal(t, from, store.get("GYM-2025-001").Status)
					assert.Empty(t, store.events())
					return
				}
				require.NoError(t, err)
				assert.Equal(t, want, got.Status)
				assert.Equal(t, want, store.get("GYM-2025-001").Status)
				require.Len(t, store.events(), 1)
				assert.Equal(t, model.EventType(action), store.events()[0].EventType)
			})
		}
	}
}

func TestTransition_UnknownAction(t *testing.T) {
	svc := newTestService(newMemStore(), clockAt("2025-07-01"))
	_, err := svc.Transition(context.Background(), admin, "GYM-1", "delete", model.TransitionRequest{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestTransition_Forbidden(t *testing.T) {
	store := newMemStore(pendingBooking("GYM-2025-001", model.FacilityGym, model.RequesterStudent, "2025-07-10", "08:00", "12:00"))
	svc := newTestService(store, clockAt("2025-07-01"))

	student := auth.Actor{ID: "s-1", Role: "student"}
	_, err := svc.Cancel(context.Background(), student, "GYM-2025-001", model.CancelRequest{Reason: "Changed plans"})

	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden), "got %v", err)
	assert.Equal(t, model.StatusPending, store.get("GYM-2025-001").Status)
}

func TestTransition_NotFound(t *testing.T) {
	svc := newTestService(newMemStore(), clockAt("2025-07-01"))
	_, err := svc.Reject(context.Background(), admin, "GYM-404", model.RejectRequest{Reason: "Duplicate"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "got %v", err)
}

func TestRejectAndCancel_RequireReason(t *testing.T) {
	store := newMemStore(pendingBooking("GYM-2025-001", model.FacilityGym, model.RequesterStudent, "2025-07-10", "08:00", "12:00"))
	svc := newTestService(store, clockAt("2025-07-01"))

	_, err := svc.Reject(context.Background(), admin, "GYM-2025-001", model.RejectRequest{Reason: " \t "})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)

	_, err = svc.Cancel(context.Background(), admin, "GYM-2025-001", model.CancelRequest{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)

	got, err := svc.Reject(context.Background(), admin, "GYM-2025-001", model.RejectRequest{Reason: "Venue under repair"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)
	assert.Equal(t, "Venue under repair", got.Metadata.RejectionReason)

	n := store.events()[0].Payload
	assert.Equal(t, "Gym Reservation Rejected", n.Title)
	assert.Equal(t, model.CategoryError, n.Category)
	assert.True(t, strings.HasSuffix(n.Body, "has been rejected. Reason: Venue under repair"), n.Body)
}

func TestReschedule_AdvanceNoticeBoundary(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantCode string
	}{
		{"today", "2025-06-10", apperrors.CodeAdvanceNotice},
		{"today plus two", "2025-06-12", apperrors.CodeAdvanceNotice},
		{"today plus three", "2025-06-13", ""},
		{"today plus ten", "2025-06-20", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(pendingBooking("OVAL-2025-001", model.FacilityOval, model.RequesterStudent, "2025-06-30", "08:00", "10:00"))
			svc := newTestService(store, clockAt("2025-06-10"))

			_, err := svc.Reschedule(context.Background(), admin, "OVAL-2025-001", model.RescheduleRequest{
				Date: tt.target, StartTime: "08:00", EndTime: "10:00",
			})

			if tt.wantCode != "" {
				assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)
				assert.Contains(t, err.Error(), "June 13, 2025")
				assert.Equal(t, "2025-06-30", store.get("OVAL-2025-001").Date)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, store.get("OVAL-2025-001").Date)
		})
	}
}

func TestReschedule_TodayFollowsInstitutionZone(t *testing.T) {
	store := newMemStore(pendingBooking("OVAL-2025-001", model.FacilityOval, model.RequesterStudent, "2025-06-30", "08:00", "10:00"))
	// 2025-06-10 17:00 UTC is already June 11 in Manila, so June 13 is too soon.
	now := func() time.Time { return time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC) }
	svc := newTestService(store, now)

	_, err := svc.Reschedule(context.Background(), admin, "OVAL-2025-001", model.RescheduleRequest{
		Date: "2025-06-13", StartTime: "08:00", EndTime: "10:00",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAdvanceNotice), "got %v", err)
}

func TestReschedule_BlockedDate(t *testing.T) {
	gym := model.FacilityGym
	b := pendingBooking("GYM-2025-003", model.FacilityGym, model.RequesterFaculty, "2025-09-15", "08:00", "12:00")
	b.Status = model.StatusConfirmed
	store := newMemStore(b)
	store.blocked = []*model.BlockedDateRange{{
		FacilityType: &gym,
		StartDate:    "2025-09-15",
		EndDate:      "2025-09-16",
		EventName:    "Founders Day",
		IsActive:     true,
	}}
	svc := newTestService(store, clockAt("2025-09-01"))

	_, err := svc.Reschedule(context.Background(), admin, "GYM-2025-003", model.RescheduleRequest{
		Date: "2025-09-16", StartTime: "13:00", EndTime: "17:00",
	})

	assert.True(t, apperrors.HasCode(err, apperrors.CodeBlockedDate), "got %v", err)
	assert.Equal(t, model.StatusConfirmed, store.get("GYM-2025-003").Status)
	assert.Equal(t, "2025-09-15", store.get("GYM-2025-003").Date)
}

func TestReschedule_ConflictAndSelfOverlap(t *testing.T) {
	store := newMemStore(
		pendingBooking("OVAL-2025-001", model.FacilityOval, model.RequesterStudent, "2025-07-01", "08:00", "10:00"),
		pendingBooking("OVAL-2025-002", model.FacilityOval, model.RequesterStudent, "2025-07-01", "13:00", "15:00"),
	)
	svc := newTestService(store, clockAt("2025-06-01"))

	_, err := svc.Reschedule(context.Background(), admin, "OVAL-2025-002", model.RescheduleRequest{
		Date: "2025-07-01", StartTime: "09:00", EndTime: "11:00",
	})
	require.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)
	assert.Equal(t, []string{"OVAL-2025-001"}, apperrors.AsAppError(err).Details["conflicting_booking_ids"])

	got, err := svc.Reschedule(context.Background(), admin, "OVAL-2025-001", model.RescheduleRequest{
		Date: "2025-07-01", StartTime: "9:00", EndTime: "11:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "09:00", got.StartTime)
	assert.Equal(t, "11:00", got.EndTime)
}

func TestReschedule_RecordsHistory(t *testing.T) {
	store := newMemStore(pendingBooking("GYM-2025-014", model.FacilityGym, model.RequesterStaff, "2025-07-01", "08:00", "12:00"))
	svc := newTestService(store, clockAt("2025-06-01"))

	_, err := svc.Reschedule(context.Background(), admin, "GYM-2025-014", model.RescheduleRequest{
		Date: "2025-07-02", StartTime: "13:00", EndTime: "17:00", Reason: "Varsity practice",
	})
	require.NoError(t, err)

	got, err := svc.Reschedule(context.Background(), admin, "GYM-2025-014", model.RescheduleRequest{
		Date: "2025-07-03", StartTime: "08:00", EndTime: "12:00",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusRescheduled, got.Status)
	assert.Equal(t, 2, got.Metadata.RescheduleCount)
	assert.Equal(t, "admin-1", got.Metadata.RescheduledBy)
	require.Len(t, got.Metadata.PreviousSlots, 2)
	assert.Equal(t, "2025-07-01", got.Metadata.PreviousSlots[0].Date)
	assert.Equal(t, "2025-07-02", got.Metadata.PreviousSlots[1].Date)

	events := store.events()
	require.Len(t, events, 2)
	first := events[0].Payload
	assert.Equal(t, "Gym Reservation Rescheduled", first.Title)
	assert.Equal(t, model.CategoryInfo, first.Category)
	assert.Equal(t, "/faculty/gym", first.DeepLink)
	assert.Contains(t, first.Body, "from July 1, 2025 08:00-12:00 to July 2, 2025 13:00-17:00")
	assert.Contains(t, first.Body, "Reason: Varsity practice")
}

func TestReschedule_InvalidInput(t *testing.T) {
	store := newMemStore(pendingBooking("GYM-2025-014", model.FacilityGym, model.RequesterStaff, "2025-07-01", "08:00", "12:00"))
	svc := newTestService(store, clockAt("2025-06-01"))

	for _, req := range []model.RescheduleRequest{
		{Date: "2025-07-10", StartTime: "12:00", EndTime: "08:00"},
		{Date: "July 10", StartTime: "08:00", EndTime: "12:00"},
		{Date: "2025-07-10", StartTime: "noon", EndTime: "13:00"},
	} {
		_, err := svc.Reschedule(context.Background(), admin, "GYM-2025-014", req)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "req %+v: got %v", req, err)
	}
}

func TestTransition_PersistenceFailureLeavesStateUntouched(t *testing.T) {
	store := newMemStore(pendingBooking("GYM-2025-001", model.FacilityGym, model.RequesterStudent, "2025-07-10", "08:00", "12:00"))
	store.updateErr = errors.New("server selection timeout")
	svc := newTestService(store, clockAt("2025-07-01"))

	_, err := svc.Cancel(context.Background(), admin, "GYM-2025-001", model.CancelRequest{Reason: "Rain"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodePersistence), "got %v", err)
	assert.Equal(t, model.StatusPending, store.get("GYM-2025-001").Status)
	assert.Empty(t, store.events())
}

func TestTransition_OutboxFailureRollsBack(t *testing.T) {
	store := newMemStore(pendingBooking("GYM-2025-001", model.FacilityGym, model.RequesterStudent, "2025-07-10", "08:00", "12:00"))
	store.appendErr = errors.New("write concern timeout")
	svc := newTestService(store, clockAt("2025-07-01"))

	_, err := svc.Approve(context.Background(), admin, "GYM-2025-001", model.ApproveRequest{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodePersistence), "got %v", err)
	assert.Equal(t, model.StatusPending, store.get("GYM-2025-001").Status)
}

func TestReschedule_ConcurrentRequestsKeepSlotsDisjoint(t *testing.T) {
	const n = 12
	var bookings []*model.Booking
	for i := 0; i < n; i++ {
		bookings = append(bookings, pendingBooking(
			fmt.Sprintf("OVAL-2025-%03d", i), model.FacilityOval, model.RequesterStudent,
			fmt.Sprintf("2025-08-%02d", i+1), "08:00", "10:00",
		))
	}
	store := newMemStore(bookings...)
	svc := newTestService(store, clockAt("2025-07-01"))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, conflicts := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Every request targets an interval overlapping 09:00-10:00.
			start := fmt.Sprintf("%02d:00", 7+i%3)
			_, err := svc.Reschedule(context.Background(), admin, fmt.Sprintf("OVAL-2025-%03d", i), model.RescheduleRequest{
				Date: "2025-07-20", StartTime: start, EndTime: "10:00",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.HasCode(err, apperrors.CodeConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)

	active, err := store.FindActive(context.Background(), model.FacilityOval, "2025-07-20", "")
	require.NoError(t, err)
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			assert.False(t, active[i].Slot().Overlaps(active[j].Slot()),
				"%s overlaps %s", active[i].BookingID, active[j].BookingID)
		}
	}
}

func TestGetByID(t *testing.T) {
	store := newMemStore(pendingBooking("GYM-2025-001", model.FacilityGym, model.RequesterStudent, "2025-07-10", "08:00", "12:00"))
	svc := newTestService(store, clockAt("2025-07-01"))

	got, err := svc.GetByID(context.Background(), " GYM-2025-001 ")
	require.NoError(t, err)
	assert.Equal(t, "GYM-2025-001", got.BookingID)

	_, err = svc.GetByID(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	_, err = svc.GetByID(context.Background(), "GYM-404")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
