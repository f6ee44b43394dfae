package outbox

import (
	"context"
	"time"

	"campusres/internal/bookings/repository"
	"campusres/pkg/config"
	apperrors "campusres/pkg/errors"
	"campusres/pkg/kafka"
	"campusres/pkg/model"
)

const eventSource = "reservations"

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Relay moves committed outbox events to the reservation events topic.
// Delivery is at least once; consumers dedupe on the event-id header.
type Relay struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewRelay(outbox repository.OutboxRepository, publisher Publisher, cfg *config.Config) *Relay {
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.OutboxPollInterval)
	defer ticker.Stop()

	r.cfg.Log.Info("Outbox relay started",
		"poll_interval", r.cfg.OutboxPollInterval,
		"batch_size", r.cfg.OutboxBatchSize,
		"topic", r.cfg.ReservationEventsTopic,
	)

	for {
		select {
		case <-ctx.Done():
			r.cfg.Log.Info("Outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.cfg.Log.Error("Outbox relay poll failed", "error", err)
			}
		}
	}
}

// RunOnce publishes one batch of pending events and returns how many were delivered.
// A failed event is marked and left for the next poll; it never blocks the rest.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	events, err := r.outbox.FetchPending(ctx, r.cfg.OutboxBatchSize, r.cfg.OutboxMaxAttempts)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range events {
		if ctx.Err() != nil {
			return published, ctx.Err()
		}

		if err := r.publish(ctx, event); err != nil {
			dispatchErr := apperrors.NotificationDispatch("Failed to publish reservation event", err)
			r.cfg.Log.Error("Failed to relay outbox event",
				"event_id", event.ID,
				"booking_id", event.AggregateID,
				"event_type", event.EventType,
				"attempt", event.Attempts+1,
				"error", dispatchErr,
			)
			if markErr := r.outbox.MarkFailed(ctx, event.ID, err); markErr != nil {
				r.cfg.Log.Error("Failed to record outbox failure", "event_id", event.ID, "error", markErr)
			}
			continue
		}

		if err := r.outbox.MarkPublished(ctx, event.ID, r.now().UTC()); err != nil {
			// The event will be sent again; consumers tolerate the duplicate.
			r.cfg.Log.Warn("Failed to mark outbox event published", "event_id", event.ID, "error", err)
			continue
		}
		published++
	}

	if published > 0 {
		r.cfg.Log.Debug("Relayed outbox events", "count", published)
	}
	return published, nil
}

func (r *Relay) publish(ctx context.Context, event *model.OutboxEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.AggregateID).
		WithEventID(event.ID).
		WithEventType(event.EventType).
		WithSource(eventSource).
		WithTimestamp(event.CreatedAt).
		WithJSON(event.Payload).
		Build()
	if err != nil {
		return err
	}
	return r.publisher.Publish(ctx, msg)
}
