package model

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusRejected    Status = "rejected"
	StatusRescheduled Status = "rescheduled"
	StatusCancelled   Status = "cancelled"
)

// legacyApproved is accepted on input only; it is stored as confirmed.
const legacyApproved = "approved"

type Action string

const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionReschedule Action = "reschedule"
	ActionCancel     Action = "cancel"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionReschedule, ActionCancel:
		return true
	}
	return false
}

var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove:    StatusConfirmed,
		ActionReject:     StatusRejected,
		ActionReschedule: StatusRescheduled,
		ActionCancel:     StatusCancelled,
	},
	StatusConfirmed: {
		ActionReschedule: StatusRescheduled,
		ActionCancel:     StatusCancelled,
	},
	StatusRescheduled: {
		ActionReschedule: StatusRescheduled,
		ActionCancel:     StatusCancelled,
	},
}

// Next returns the status reached by applying action, or false when the
// edge is not part of the lifecycle.
func (s Status) Next(action Action) (Status, bool) {
	to, ok := transitions[s][action]
	return to, ok
}

func (s Status) CanApply(action Action) bool {
	_, ok := s.Next(action)
	return ok
}

// IsActive reports whether the booking occupies its slot.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusRescheduled
}

func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusRescheduled, StatusCancelled:
		return true
	}
	return false
}

// Label is the presentation name; confirmed bookings are shown as "approved".
func (s Status) Label() string {
	if s == StatusConfirmed {
		return legacyApproved
	}
	return string(s)
}

func ParseStatus(s string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == legacyApproved {
		return StatusConfirmed, nil
	}
	status := Status(normalized)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %q", s)
	}
	return status, nil
}

func ActiveStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusRescheduled}
}
