package service

import (
	availability "campusres/internal/availability/service"
	bookingserrors "campusres/internal/bookings/errors"
	"campusres/internal/bookings/repository"
	"campusres/internal/bookings/validator"
	"campusres/pkg/auth"
	"campusres/pkg/config"
	apperrors "campusres/pkg/errors"
	"campusres/pkg/model"
	"campusres/pkg/obs"
	"campusres/pkg/sanitizer"
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// BookingService is the transition controller. Every state change runs in one
// store transaction that re-reads the booking, evaluates the action's guards
// and writes the new state together with its notification event.
type BookingService interface {
	GetByID(ctx context.Context, bookingID string) (*model.Booking, error)
	Approve(ctx context.Context, actor auth.Actor, bookingID string, req model.ApproveRequest) (*model.Booking, error)
	Reject(ctx context.Context, actor auth.Actor, bookingID string, req model.RejectRequest) (*model.Booking, error)
	Reschedule(ctx context.Context, actor auth.Actor, bookingID string, req model.RescheduleRequest) (*model.Booking, error)
	Cancel(ctx context.Context, actor auth.Actor, bookingID string, req model.CancelRequest) (*model.Booking, error)
	Transition(ctx context.Context, actor auth.Actor, bookingID string, action model.Action, req model.TransitionRequest) (*model.Booking, error)
}

type bookingService struct {
	repo         repository.BookingRepository
	guards       repository.SlotGuardRepository
	outbox       repository.OutboxRepository
	availability availability.AvailabilityService
	validator    *validator.BookingValidator
	cfg          *config.Config
	now          func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	guards repository.SlotGuardRepository,
	outbox repository.OutboxRepository,
	availability availability.AvailabilityService,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return NewBookingServiceWithClock(repo, guards, outbox, availability, validator, cfg, time.Now)
}

func NewBookingServiceWithClock(
	repo repository.BookingRepository,
	guards repository.SlotGuardRepository,
	outbox repository.OutboxRepository,
	availability availability.AvailabilityService,
	validator *validator.BookingValidator,
	cfg *config.Config,
	now func() time.Time,
) BookingService {
	return &bookingService{
		repo:         repo,
		guards:       guards,
		outbox:       outbox,
		availability: availability,
		validator:    validator,
		cfg:          cfg,
		now:          now,
	}
}

// mutation runs an action's guards against b and applies its field changes.
// It may run more than once when the store retries the transaction.
type mutation func(ctx context.Context, b *model.Booking, at time.Time) error

func (s *bookingService) GetByID(ctx context.Context, bookingID string) (*model.Booking, error) {
	bookingID = sanitizer.SanitizeIdentifier(bookingID)
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		s.cfg.Log.Error("Failed to get booking",
			"booking_id", bookingID,
			"error", err,
		)
		return nil, apperrors.Persistence("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) Approve(ctx context.Context, actor auth.Actor, bookingID string, req model.ApproveRequest) (*model.Booking, error) {
	req.ReceiptNumber = sanitizer.SanitizeReceiptNumber(req.ReceiptNumber)
	req.Remarks = sanitizer.SanitizeFreeText(req.Remarks)

	if err := s.validator.ValidateApprove(&req); err != nil {
		return nil, s.validationFailed(model.ActionApprove, bookingID, err)
	}

	return s.transition(ctx, actor, bookingID, model.ActionApprove, "", func(ctx context.Context, b *model.Booking, at time.Time) error {
		receipt := req.ReceiptNumber
		if receipt == "" {
			receipt = b.ReceiptNumber
		}

		switch {
		case receipt == "" && b.RequesterClass == model.RequesterExternal:
			return apperrors.MissingReceipt()
		case receipt != "" && !validator.IsReceiptNumber(receipt):
			return apperrors.InvalidReceiptFormat()
		}

		if err := s.claimSlot(ctx, b.FacilityType, b.Date, b.Slot(), b.BookingID); err != nil {
			return err
		}

		b.ReceiptNumber = receipt
		if req.Remarks != "" {
			b.Metadata.AdminRemarks = req.Remarks
		}
		return nil
	})
}

func (s *bookingService) Reject(ctx context.Context, actor auth.Actor, bookingID string, req model.RejectRequest) (*model.Booking, error) {
	req.Reason = sanitizer.SanitizeFreeText(req.Reason)

	if err := s.validator.ValidateReject(&req); err != nil {
		return nil, s.validationFailed(model.ActionReject, bookingID, err)
	}

	return s.transition(ctx, actor, bookingID, model.ActionReject, req.Reason, func(_ context.Context, b *model.Booking, _ time.Time) error {
		b.Metadata.RejectionReason = req.Reason
		return nil
	})
}

func (s *bookingService) Reschedule(ctx context.Context, actor auth.Actor, bookingID string, req model.RescheduleRequest) (*model.Booking, error) {
	req.Date = sanitizer.TrimAndNormalize(req.Date)
	req.StartTime = normalizeClock(req.StartTime)
	req.EndTime = normalizeClock(req.EndTime)
	req.Reason = sanitizer.SanitizeFreeText(req.Reason)

	if err := s.validator.ValidateReschedule(&req); err != nil {
		return nil, s.validationFailed(model.ActionReschedule, bookingID, err)
	}

	target, err := model.ParseDate(req.Date, s.cfg.Location)
	if err != nil {
		return nil, apperrors.Validation(err.Error(), map[string]any{"date": req.Date})
	}
	slot := model.Interval{Start: req.StartTime, End: req.EndTime}

	return s.transition(ctx, actor, bookingID, model.ActionReschedule, req.Reason, func(ctx context.Context, b *model.Booking, at time.Time) error {
		earliest := s.cfg.Today(at).AddDate(0, 0, s.cfg.AdvanceNoticeDays)
		if target.Before(earliest) {
			return apperrors.AdvanceNotice(s.cfg.AdvanceNoticeDays, model.FormatLongDate(earliest.Format(model.DateLayout)))
		}

		if err := s.claimSlot(ctx, b.FacilityType, req.Date, slot, b.BookingID); err != nil {
			return err
		}

		b.Metadata.PreviousSlots = append(b.Metadata.PreviousSlots, model.SlotHistory{
			Date:      b.Date,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			MovedAt:   at,
		})
		b.Date = req.Date
		b.StartTime = slot.Start
		b.EndTime = slot.End

		b.Metadata.RescheduleReason = req.Reason
		b.Metadata.RescheduledBy = actor.ID
		b.Metadata.RescheduledAt = &at
		b.Metadata.RescheduleCount++
		return nil
	})
}

func (s *bookingService) Cancel(ctx context.Context, actor auth.Actor, bookingID string, req model.CancelRequest) (*model.Booking, error) {
	req.Reason = sanitizer.SanitizeFreeText(req.Reason)

	if err := s.validator.ValidateCancel(&req); err != nil {
		return nil, s.validationFailed(model.ActionCancel, bookingID, err)
	}

	return s.transition(ctx, actor, bookingID, model.ActionCancel, "", func(_ context.Context, b *model.Booking, _ time.Time) error {
		b.Metadata.CancellationReason = req.Reason
		return nil
	})
}

func (s *bookingService) Transition(ctx context.Context, actor auth.Actor, bookingID string, action model.Action, req model.TransitionRequest) (*model.Booking, error) {
	switch action {
	case model.ActionApprove:
		return s.Approve(ctx, actor, bookingID, req.Approve())
	case model.ActionReject:
		return s.Reject(ctx, actor, bookingID, req.Reject())
	case model.ActionReschedule:
		return s.Reschedule(ctx, actor, bookingID, req.Reschedule())
	case model.ActionCancel:
		return s.Cancel(ctx, actor, bookingID, req.Cancel())
	}
	return nil, apperrors.InvalidInput("Unknown action: " + string(action))
}

func (s *bookingService) transition(
	ctx context.Context,
	actor auth.Actor,
	bookingID string,
	action model.Action,
	reason string,
	mutate mutation,
) (result *model.Booking, err error) {
	ctx, span := obs.Start(ctx, "bookings."+string(action))
	defer func() { obs.End(span, err) }()

	if !actor.Authorized {
		s.cfg.Log.Warn("Unauthorized transition attempt",
			"booking_id", bookingID,
			"action", action,
			"actor_id", actor.ID,
			"actor_role", actor.Role,
		)
		return nil, apperrors.Forbidden("You are not allowed to change reservations.")
	}

	bookingID = sanitizer.SanitizeIdentifier(bookingID)
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	span.SetAttributes(
		attribute.String("booking_id", bookingID),
		attribute.String("actor_id", actor.ID),
	)

	var from model.Status
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		b, err := s.repo.FindByBookingID(txCtx, bookingID)
		if err != nil {
			return err
		}

		next, ok := b.Status.Next(action)
		if !ok {
			return apperrors.InvalidTransition(string(b.Status), string(action))
		}

		at := s.now().UTC().Truncate(time.Millisecond)
		before := *b
		if err := mutate(txCtx, b, at); err != nil {
			return err
		}

		b.Status = next
		b.Metadata.DecidedBy = actor.ID
		b.Metadata.DecidedAt = &at
		if b.Metadata.SchemaVersion == 0 {
			b.Metadata.SchemaVersion = model.MetadataSchemaVersion
		}

		if err := s.repo.Update(txCtx, b); err != nil {
			return err
		}

		notification := buildNotification(action, &before, b, reason, at)
		if err := s.outbox.Append(txCtx, &model.OutboxEvent{
			ID:          notification.EventID,
			AggregateID: b.BookingID,
			EventType:   model.EventType(action),
			Payload:     notification,
			CreatedAt:   at,
		}); err != nil {
			return err
		}

		from = before.Status
		result = b
		return nil
	})

	if err != nil {
		err = s.mapTransitionError(err, bookingID)
		s.logTransitionFailure(action, bookingID, actor, err)
		return nil, err
	}

	s.cfg.Log.Info("Booking transitioned",
		"booking_id", result.BookingID,
		"action", action,
		"from", from,
		"to", result.Status,
		"actor_id", actor.ID,
		"facility_type", result.FacilityType,
		"date", result.Date,
	)

	return result, nil
}

// claimSlot serializes with every other transaction on facility and date, then
// fails if slot is blocked or overlaps another active booking.
func (s *bookingService) claimSlot(ctx context.Context, facility model.FacilityType, date string, slot model.Interval, bookingID string) error {
	if err := s.guards.Touch(ctx, facility, date); err != nil {
		return err
	}

	result, err := s.availability.CheckConflict(ctx, facility, date, slot.Start, slot.End, bookingID)
	if err != nil {
		return err
	}

	if result.Blocked != nil {
		return apperrors.BlockedDate(result.Blocked.EventName).WithDetails(map[string]any{
			"event_name": result.Blocked.EventName,
			"event_type": result.Blocked.EventType,
			"start_date": result.Blocked.StartDate,
			"end_date":   result.Blocked.EndDate,
		})
	}

	if result.Conflict {
		ids := make([]string, 0, len(result.Conflicting))
		for _, c := range result.Conflicting {
			ids = append(ids, c.BookingID)
		}
		return apperrors.Conflict("The selected date and time slot is already booked. Please choose another time.").
			WithDetails(map[string]any{"conflicting_booking_ids": ids})
	}

	return nil
}

func (s *bookingService) mapTransitionError(err error, bookingID string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", bookingID)
	case errors.Is(err, bookingserrors.ErrVersionConflict):
		return apperrors.Conflict("The booking was changed by another request. Please reload and try again.")
	case apperrors.IsAppError(err):
		return err
	}
	return apperrors.Persistence("Failed to save booking", err)
}

func (s *bookingService) logTransitionFailure(action model.Action, bookingID string, actor auth.Actor, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr != nil && appErr.HTTPStatus < 500 {
		s.cfg.Log.Warn("Booking transition rejected",
			"booking_id", bookingID,
			"action", action,
			"actor_id", actor.ID,
			"code", appErr.Code,
			"reason", appErr.Message,
		)
		return
	}
	s.cfg.Log.Error("Booking transition failed",
		"booking_id", bookingID,
		"action", action,
		"actor_id", actor.ID,
		"error", err,
	)
}

func (s *bookingService) validationFailed(action model.Action, bookingID string, err error) error {
	s.cfg.Log.Warn("Transition request validation failed",
		"booking_id", bookingID,
		"action", action,
		"error", err,
	)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(verrs[0].Message, verrs.Fields())
	}
	return apperrors.Validation("Invalid request", map[string]any{"error": err.Error()})
}

// normalizeClock zero-pads a parseable time such as "8:00"; anything else is
// left for the validator to report.
func normalizeClock(s string) string {
	s = sanitizer.TrimAndNormalize(s)
	if padded, err := model.ParseClock(s); err == nil {
		return padded
	}
	return s
}
