package model

import "sort"

// Interval is a half-open [Start, End) range of HH:MM times.
// Zero-padded times compare lexicographically in chronological order.
type Interval struct {
	Start string `json:"start" bson:"start"`
	End   string `json:"end" bson:"end"`
}

func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

func (i Interval) IsValid() bool {
	return i.Start < i.End
}

type SessionDefinition struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type Session struct {
	Type      string `json:"type"`
	Label     string `json:"label"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

type BookedInterval struct {
	BookingID string `json:"booking_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Status    Status `json:"status"`
}

type BlockedInfo struct {
	EventName   string `json:"event_name"`
	EventType   string `json:"event_type,omitempty"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type AvailabilityReport struct {
	FacilityType FacilityType     `json:"facility_type"`
	Date         string           `json:"date"`
	IsBlocked    bool             `json:"is_blocked"`
	BlockedInfo  *BlockedInfo     `json:"blocked_info,omitempty"`
	Sessions     []Session        `json:"sessions,omitempty"`
	Booked       []BookedInterval `json:"booked,omitempty"`
}

type ConflictResult struct {
	Conflict    bool             `json:"conflict"`
	Blocked     *BlockedInfo     `json:"blocked,omitempty"`
	Conflicting []BookedInterval `json:"conflicting,omitempty"`
}

// BookedIntervals converts active bookings to intervals sorted by start time.
// Inactive bookings are skipped.
func BookedIntervals(bookings []*Booking) []BookedInterval {
	out := make([]BookedInterval, 0, len(bookings))
	for _, b := range bookings {
		if b == nil || !b.IsActive() {
			continue
		}
		out = append(out, BookedInterval{
			BookingID: b.BookingID,
			Start:     b.StartTime,
			End:       b.EndTime,
			Status:    b.Status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start == out[j].Start {
			return out[i].End < out[j].End
		}
		return out[i].Start < out[j].Start
	})
	return out
}

// EvaluateSessions marks each session available iff it overlaps none of booked.
func EvaluateSessions(defs []SessionDefinition, booked []BookedInterval) []Session {
	sessions := make([]Session, 0, len(defs))
	for _, def := range defs {
		slot := Interval{Start: def.Start, End: def.End}
		sessions = append(sessions, Session{
			Type:      def.Type,
			Label:     def.Label,
			Start:     def.Start,
			End:       def.End,
			Available: len(FindConflicts(slot, booked)) == 0,
		})
	}
	return sessions
}

// FindConflicts returns every booked interval overlapping candidate.
func FindConflicts(candidate Interval, booked []BookedInterval) []BookedInterval {
	var conflicts []BookedInterval
	for _, b := range booked {
		if candidate.Overlaps(Interval{Start: b.Start, End: b.End}) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}
