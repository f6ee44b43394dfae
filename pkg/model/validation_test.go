package model

import (
	"testing"
)

func TestStatus_Next(t *testing.T) {
	tests := []struct {
		from   Status
		action Action
		want   Status
		ok     bool
	}{
		{StatusPending, ActionApprove, StatusConfirmed, true},
		{StatusPending, ActionReject, StatusRejected, true},
		{StatusPending, ActionReschedule, StatusRescheduled, true},
		{StatusPending, ActionCancel, StatusCancelled, true},
		{StatusConfirmed, ActionReschedule, StatusRescheduled, true},
		{StatusConfirmed, ActionCancel, StatusCancelled, true},
		{StatusRescheduled, ActionReschedule, StatusRescheduled, true},
		{StatusRescheduled, ActionCancel, StatusCancelled, true},

		{StatusConfirmed, ActionApprove, "", false},
		{StatusConfirmed, ActionReject, "", false},
		{StatusRescheduled, ActionApprove, "", false},
		{StatusRescheduled, ActionReject, "", false},
		{StatusRejected, ActionApprove, "", false},
		{StatusRejected, ActionCancel, "", false},
		{StatusRejected, ActionReschedule, "", false},
		{StatusCancelled, ActionApprove, "", false},
		{StatusCancelled, ActionReschedule, "", false},
		{StatusCancelled, ActionCancel, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.action), func(t *testing.T) {
			got, ok := tt.from.Next(tt.action)
			if ok != tt.ok {
				t.Fatalf("Next(%s) ok = %v, want %v", tt.action, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Next(%s) = %q, want %q", tt.action, got, tt.want)
			}
		})
	}
}

func TestStatus_TerminalStatusesHaveNoEdges(t *testing.T) {
	actions := []Action{ActionApprove, ActionReject, ActionReschedule, ActionCancel}
	for _, s := range []Status{StatusRejected, StatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
		for _, a := range actions {
			if s.CanApply(a) {
				t.Errorf("%s should not accept %s", s, a)
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"approved", StatusConfirmed, false},
		{" Approved ", StatusConfirmed, false},
		{"confirmed", StatusConfirmed, false},
		{"cancelled", StatusCancelled, false},
		{"done", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	if StatusConfirmed.Label() != "approved" {
		t.Errorf("confirmed label = %q, want approved", StatusConfirmed.Label())
	}
}

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"adjacent before", Interval{"08:00", "10:00"}, Interval{"10:00", "12:00"}, false},
		{"adjacent after", Interval{"10:00", "12:00"}, Interval{"08:00", "10:00"}, false},
		{"partial overlap", Interval{"08:00", "10:30"}, Interval{"10:00", "12:00"}, true},
		{"contained", Interval{"09:00", "10:00"}, Interval{"08:00", "12:00"}, true},
		{"identical", Interval{"08:00", "12:00"}, Interval{"08:00", "12:00"}, true},
		{"disjoint", Interval{"06:00", "07:00"}, Interval{"13:00", "17:00"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps is not symmetric: got %v", got)
			}
		})
	}
}

func TestEvaluateSessions(t *testing.T) {
	defs := []SessionDefinition{
		{Type: "whole_day", Label: "Whole Day", Start: "08:00", End: "17:00"},
		{Type: "morning", Label: "Morning", Start: "08:00", End: "12:00"},
		{Type: "afternoon", Label: "Afternoon", Start: "13:00", End: "17:00"},
	}
	booked := BookedIntervals([]*Booking{
		{BookingID: "GYM-1", StartTime: "09:00", EndTime: "11:00", Status: StatusConfirmed},
		{BookingID: "GYM-2", StartTime: "13:00", EndTime: "14:00", Status: StatusCancelled},
	})

	sessions := EvaluateSessions(defs, booked)
	want := map[string]bool{"whole_day": false, "morning": false, "afternoon": true}
	for _, s := range sessions {
		if s.Available != want[s.Type] {
			t.Errorf("session %s available = %v, want %v", s.Type, s.Available, want[s.Type])
		}
	}
	if len(booked) != 1 {
		t.Errorf("expected cancelled booking to be excluded, got %d intervals", len(booked))
	}
}

func TestBookedIntervals_SortedByStart(t *testing.T) {
	booked := BookedIntervals([]*Booking{
		{BookingID: "B", StartTime: "13:00", EndTime: "15:00", Status: StatusPending},
		{BookingID: "A", StartTime: "08:00", EndTime: "10:00", Status: StatusRescheduled},
	})
	if len(booked) != 2 || booked[0].BookingID != "A" || booked[1].BookingID != "B" {
		t.Errorf("unexpected order: %+v", booked)
	}
}

func TestBlockedDateRange_Covers(t *testing.T) {
	gym := FacilityGym
	scoped := &BlockedDateRange{FacilityType: &gym, StartDate: "2025-07-10", EndDate: "2025-07-12", IsActive: true}
	global := &BlockedDateRange{StartDate: "2025-07-10", EndDate: "2025-07-10", IsActive: true}
	inactive := &BlockedDateRange{StartDate: "2025-07-10", EndDate: "2025-07-12", IsActive: false}

	tests := []struct {
		name     string
		r        *BlockedDateRange
		facility FacilityType
		date     string
		want     bool
	}{
		{"start inclusive", scoped, FacilityGym, "2025-07-10", true},
		{"end inclusive", scoped, FacilityGym, "2025-07-12", true},
		{"after end", scoped, FacilityGym, "2025-07-13", false},
		{"other facility", scoped, FacilityOval, "2025-07-11", false},
		{"all facilities", global, FacilityOval, "2025-07-10", true},
		{"inactive", inactive, FacilityGym, "2025-07-11", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Covers(tt.facility, tt.date); got != tt.want {
				t.Errorf("Covers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	if got, err := ParseClock("8:05"); err != nil || got != "08:05" {
		t.Errorf("ParseClock(8:05) = %q, %v", got, err)
	}
	if _, err := ParseClock("25:00"); err == nil {
		t.Error("expected error for 25:00")
	}
	if got := FormatLongDate("2025-01-02"); got != "January 2, 2025" {
		t.Errorf("FormatLongDate = %q", got)
	}
}
