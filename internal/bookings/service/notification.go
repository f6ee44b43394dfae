package service

import (
	"campusres/pkg/model"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var actionWording = map[model.Action]struct {
	title    string
	category model.NotificationCategory
}{
	model.ActionApprove:    {"Approved", model.CategorySuccess},
	model.ActionReject:     {"Rejected", model.CategoryError},
	model.ActionReschedule: {"Rescheduled", model.CategoryInfo},
	model.ActionCancel:     {"Cancelled", model.CategoryError},
}

// deepLink points the requester at the reservation page of their portal.
// Staff share the faculty portal.
func deepLink(class model.RequesterClass, facility model.FacilityType) string {
	portal := "student"
	switch class {
	case model.RequesterExternal:
		portal = "external"
	case model.RequesterFaculty, model.RequesterStaff:
		portal = "faculty"
	}
	return fmt.Sprintf("/%s/%s", portal, facility)
}

// buildNotification describes the transition from before to after.
func buildNotification(action model.Action, before, after *model.Booking, reason string, at time.Time) model.Notification {
	wording := actionWording[action]
	facility := after.FacilityType.DisplayName()
	subject := fmt.Sprintf("Your %s reservation (ID: %s)", strings.ToLower(facility), after.BookingID)

	var body string
	switch action {
	case model.ActionApprove:
		body = fmt.Sprintf("%s for %s has been approved!", subject, model.FormatLongDate(after.Date))
	case model.ActionReject:
		body = fmt.Sprintf("%s for %s has been rejected.", subject, model.FormatLongDate(after.Date))
	case model.ActionReschedule:
		body = fmt.Sprintf("%s has been rescheduled from %s to %s.", subject,
			describeSlot(before), describeSlot(after))
	case model.ActionCancel:
		body = fmt.Sprintf("%s for %s has been cancelled.", subject, model.FormatLongDate(after.Date))
	}
	if reason != "" {
		body += " Reason: " + reason
	}

	return model.Notification{
		EventID:     uuid.NewString(),
		RequesterID: after.RequesterID,
		BookingID:   after.BookingID,
		Action:      action,
		Title:       fmt.Sprintf("%s Reservation %s", facility, wording.title),
		Body:        body,
		Category:    wording.category,
		DeepLink:    deepLink(after.RequesterClass, after.FacilityType),
		OccurredAt:  at,
	}
}

func describeSlot(b *model.Booking) string {
	return fmt.Sprintf("%s %s-%s", model.FormatLongDate(b.Date), b.StartTime, b.EndTime)
}
