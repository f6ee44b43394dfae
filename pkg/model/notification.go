package model

import "time"

type NotificationCategory string

const (
	CategorySuccess NotificationCategory = "success"
	CategoryError   NotificationCategory = "error"
	CategoryInfo    NotificationCategory = "info"
	CategoryWarning NotificationCategory = "warning"
)

type Notification struct {
	EventID     string               `json:"event_id" bson:"event_id" validate:"required"`
	RequesterID string               `json:"requester_id" bson:"requester_id" validate:"required"`
	BookingID   string               `json:"booking_id" bson:"booking_id" validate:"required"`
	Action      Action               `json:"action" bson:"action" validate:"required"`
	Title       string               `json:"title" bson:"title" validate:"required"`
	Body        string               `json:"body" bson:"body" validate:"required"`
	Category    NotificationCategory `json:"category" bson:"category" validate:"required,oneof=success error info warning"`
	DeepLink    string               `json:"deep_link,omitempty" bson:"deep_link,omitempty"`
	OccurredAt  time.Time            `json:"occurred_at" bson:"occurred_at"`
}

// OutboxEvent is written in the same transaction as the state change it
// describes and relayed to the broker afterwards.
type OutboxEvent struct {
	ID          string       `json:"id" bson:"_id"`
	AggregateID string       `json:"aggregate_id" bson:"aggregate_id"`
	EventType   string       `json:"event_type" bson:"event_type"`
	Payload     Notification `json:"payload" bson:"payload"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	PublishedAt *time.Time   `json:"published_at,omitempty" bson:"published_at,omitempty"`
	Attempts    int          `json:"attempts" bson:"attempts"`
	LastError   string       `json:"last_error,omitempty" bson:"last_error,omitempty"`
}

func EventType(action Action) string {
	return "reservation." + string(action)
}
