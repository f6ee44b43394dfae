package service

import (
	"campusres/pkg/config"
	apperrors "campusres/pkg/errors"
	"campusres/pkg/model"
	"campusres/pkg/obs"
	"campusres/pkg/sanitizer"
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// BookingReader is the part of the reservation store the engine reads.
type BookingReader interface {
	FindActive(ctx context.Context, facility model.FacilityType, date string, excludeBookingID string) ([]*model.Booking, error)
	FindActiveOverlapping(ctx context.Context, facility model.FacilityType, date string, slot model.Interval, excludeBookingID string) ([]*model.Booking, error)
	FindBookedDates(ctx context.Context, facility model.FacilityType, fromDate string, excludeBookingID string) ([]string, error)
}

type BlockedDateReader interface {
	FindActiveCovering(ctx context.Context, facility model.FacilityType, date string) ([]*model.BlockedDateRange, error)
}

// AvailabilityService answers slot questions for one facility and date. Every
// method takes the caller's context, so calls made with a transaction's session
// context read that transaction's snapshot.
type AvailabilityService interface {
	QueryAvailability(ctx context.Context, facility model.FacilityType, date string, excludeBookingID string) (*model.AvailabilityReport, error)
	CheckConflict(ctx context.Context, facility model.FacilityType, date string, startTime string, endTime string, excludeBookingID string) (*model.ConflictResult, error)
	QueryBookedDates(ctx context.Context, facility model.FacilityType, excludeBookingID string) ([]string, error)
	Blocked(ctx context.Context, facility model.FacilityType, date string) (*model.BlockedInfo, error)
}

type availabilityService struct {
	bookings BookingReader
	blocked  BlockedDateReader
	cfg      *config.Config
	now      func() time.Time
}

func NewAvailabilityService(bookings BookingReader, blocked BlockedDateReader, cfg *config.Config) AvailabilityService {
	return NewAvailabilityServiceWithClock(bookings, blocked, cfg, time.Now)
}

func NewAvailabilityServiceWithClock(bookings BookingReader, blocked BlockedDateReader, cfg *config.Config, now func() time.Time) AvailabilityService {
	return &availabilityService{
		bookings: bookings,
		blocked:  blocked,
		cfg:      cfg,
		now:      now,
	}
}

func (s *availabilityService) QueryAvailability(ctx context.Context, facility model.FacilityType, date string, excludeBookingID string) (report *model.AvailabilityReport, err error) {
	ctx, span := obs.Start(ctx, "availability.query")
	defer func() { obs.End(span, err) }()
	span.SetAttributes(
		attribute.String("facility_type", string(facility)),
		attribute.String("date", date),
	)

	if err := s.validateFacilityDate(facility, date); err != nil {
		return nil, err
	}
	excludeBookingID = sanitizer.SanitizeIdentifier(excludeBookingID)

	report = &model.AvailabilityReport{
		FacilityType: facility,
		Date:         date,
	}

	info, err := s.Blocked(ctx, facility, date)
	if err != nil {
		return nil, err
	}
	if info != nil {
		report.IsBlocked = true
		report.BlockedInfo = info
		return report, nil
	}

	active, err := s.bookings.FindActive(ctx, facility, date, excludeBookingID)
	if err != nil {
		s.cfg.Log.Error("Failed to load active bookings",
			"facility_type", facility,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Persistence("Failed to load bookings", err)
	}

	report.Booked = model.BookedIntervals(active)
	report.Sessions = model.EvaluateSessions(s.cfg.SessionsFor(facility), report.Booked)

	return report, nil
}

func (s *availabilityService) CheckConflict(
	ctx context.Context,
	facility model.FacilityType,
	date string,
	startTime string,
	endTime string,
	excludeBookingID string,
) (result *model.ConflictResult, err error) {
	ctx, span := obs.Start(ctx, "availability.check_conflict")
	defer func() { obs.End(span, err) }()

	if err := s.validateFacilityDate(facility, date); err != nil {
		return nil, err
	}
	slot, err := parseSlot(startTime, endTime)
	if err != nil {
		return nil, err
	}
	excludeBookingID = sanitizer.SanitizeIdentifier(excludeBookingID)

	span.SetAttributes(
		attribute.String("facility_type", string(facility)),
		attribute.String("date", date),
		attribute.String("slot", slot.Start+"-"+slot.End),
	)

	result = &model.ConflictResult{}

	info, err := s.Blocked(ctx, facility, date)
	if err != nil {
		return nil, err
	}
	if info != nil {
		result.Blocked = info
		result.Conflict = true
		return result, nil
	}

	overlapping, err := s.bookings.FindActiveOverlapping(ctx, facility, date, slot, excludeBookingID)
	if err != nil {
		s.cfg.Log.Error("Failed to load overlapping bookings",
			"facility_type", facility,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Persistence("Failed to load bookings", err)
	}

	result.Conflicting = model.FindConflicts(slot, model.BookedIntervals(overlapping))
	result.Conflict = len(result.Conflicting) > 0

	return result, nil
}

func (s *availabilityService) QueryBookedDates(ctx context.Context, facility model.FacilityType, excludeBookingID string) (dates []string, err error) {
	ctx, span := obs.Start(ctx, "availability.booked_dates")
	defer func() { obs.End(span, err) }()

	if !facility.IsValid() {
		return nil, invalidFacility(facility)
	}
	excludeBookingID = sanitizer.SanitizeIdentifier(excludeBookingID)

	today := s.cfg.Today(s.now()).Format(model.DateLayout)

	dates, err = s.bookings.FindBookedDates(ctx, facility, today, excludeBookingID)
	if err != nil {
		s.cfg.Log.Error("Failed to load booked dates",
			"facility_type", facility,
			"error", err,
		)
		return nil, apperrors.Persistence("Failed to load booked dates", err)
	}
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

// Blocked returns the first active blocked range covering date, or nil.
func (s *availabilityService) Blocked(ctx context.Context, facility model.FacilityType, date string) (*model.BlockedInfo, error) {
	ranges, err := s.blocked.FindActiveCovering(ctx, facility, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load blocked dates",
			"facility_type", facility,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Persistence("Failed to load blocked dates", err)
	}

	for _, r := range ranges {
		if r.Covers(facility, date) {
			return r.Info(), nil
		}
	}
	return nil, nil
}

func (s *availabilityService) validateFacilityDate(facility model.FacilityType, date string) error {
	if !facility.IsValid() {
		return invalidFacility(facility)
	}
	if _, err := model.ParseDate(date, s.cfg.Location); err != nil {
		return apperrors.Validation(err.Error(), map[string]any{"date": date})
	}
	return nil
}

func parseSlot(startTime, endTime string) (model.Interval, error) {
	start, err := model.ParseClock(startTime)
	if err != nil {
		return model.Interval{}, apperrors.Validation(err.Error(), map[string]any{"start_time": startTime})
	}
	end, err := model.ParseClock(endTime)
	if err != nil {
		return model.Interval{}, apperrors.Validation(err.Error(), map[string]any{"end_time": endTime})
	}

	slot := model.Interval{Start: start, End: end}
	if !slot.IsValid() {
		return model.Interval{}, apperrors.Validation("End time must be after start time", map[string]any{
			"start_time": start,
			"end_time":   end,
		})
	}
	return slot, nil
}

func invalidFacility(facility model.FacilityType) error {
	return apperrors.Validation("Invalid facility type", map[string]any{
		"facility_type": string(facility),
		"allowed":       model.FacilityTypes(),
	})
}
