package service

import (
	"context"
	"time"

	"campusres/internal/bookings/validator"
	apperrors "campusres/pkg/errors"
	"campusres/pkg/kafka"
	"campusres/pkg/logger"
	"campusres/pkg/model"
)

// Handler turns reservation events from Kafka into dispatched notifications.
type Handler struct {
	dispatcher Dispatcher
	validator  *validator.BookingValidator
	timeout    time.Duration
	log        *logger.Logger
}

func NewHandler(dispatcher Dispatcher, validator *validator.BookingValidator, timeout time.Duration, log *logger.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		validator:  validator,
		timeout:    timeout,
		log:        log,
	}
}

// Handle is a kafka.MessageHandler. Malformed events are permanent failures;
// dispatch failures are transient so the consumer retries them.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var n model.Notification
	if err := msg.DecodeValue(&n); err != nil {
		return kafka.NewPermanentError("failed to decode notification", err)
	}

	if err := h.validator.ValidateNotification(&n); err != nil {
		return kafka.NewPermanentError("invalid notification", err)
	}

	if eventID := msg.GetEventID(); eventID != "" && eventID != n.EventID {
		h.log.Warn("Event id header does not match payload",
			"header_event_id", eventID,
			"payload_event_id", n.EventID,
		)
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.dispatcher.Dispatch(dispatchCtx, n); err != nil {
		dispatchErr := apperrors.NotificationDispatch("Failed to dispatch notification", err)
		h.log.Error("Notification dispatch failed",
			"event_id", n.EventID,
			"booking_id", n.BookingID,
			"requester_id", n.RequesterID,
			"retry_count", msg.GetRetryCount(),
			"error", dispatchErr,
		)
		return kafka.NewTransientError("dispatch failed", dispatchErr)
	}

	return nil
}
