package model

import (
	"fmt"
	"strings"
	"time"
)

type FacilityType string

const (
	FacilityGym  FacilityType = "gym"
	FacilityOval FacilityType = "oval"
)

var facilityDisplayNames = map[FacilityType]string{
	FacilityGym:  "Gym",
	FacilityOval: "Oval Field",
}

func (f FacilityType) IsValid() bool {
	_, ok := facilityDisplayNames[f]
	return ok
}

// DisplayName is the facility name shown to requesters, e.g. "Oval Field".
func (f FacilityType) DisplayName() string {
	if name, ok := facilityDisplayNames[f]; ok {
		return name
	}
	return string(f)
}

func FacilityTypes() []FacilityType {
	return []FacilityType{FacilityGym, FacilityOval}
}

type RequesterClass string

const (
	RequesterStudent  RequesterClass = "student"
	RequesterFaculty  RequesterClass = "faculty"
	RequesterStaff    RequesterClass = "staff"
	RequesterExternal RequesterClass = "external"
)

func (c RequesterClass) IsValid() bool {
	switch c {
	case RequesterStudent, RequesterFaculty, RequesterStaff, RequesterExternal:
		return true
	}
	return false
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	MetadataSchemaVersion = 1
)

type Booking struct {
	BookingID      string          `json:"booking_id" bson:"booking_id" validate:"required,min=3,max=64"`
	FacilityType   FacilityType    `json:"facility_type" bson:"facility_type" validate:"required,facility_type"`
	RequesterID    string          `json:"requester_id" bson:"requester_id" validate:"required"`
	RequesterClass RequesterClass  `json:"requester_class" bson:"requester_class" validate:"required,oneof=student faculty staff external"`
	Date           string          `json:"date" bson:"date" validate:"required,iso_date"`
	StartTime      string          `json:"start_time" bson:"start_time" validate:"required,clock_time"`
	EndTime        string          `json:"end_time" bson:"end_time" validate:"required,clock_time"`
	Status         Status          `json:"status" bson:"status" validate:"required,booking_status"`
	Purpose        string          `json:"purpose" bson:"purpose" validate:"max=500"`
	Attendees      int             `json:"attendees" bson:"attendees" validate:"min=0"`
	ReceiptNumber  string          `json:"receipt_number,omitempty" bson:"receipt_number,omitempty" validate:"omitempty,receipt_number"`
	Metadata       BookingMetadata `json:"metadata" bson:"metadata"`
	Version        int64           `json:"version" bson:"version"`
	CreatedAt      time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" bson:"updated_at"`
}

// Slot returns the booking's half-open time interval.
func (b *Booking) Slot() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

// BookingMetadata replaces the free-form JSON column with explicit optional fields.
// Unknown additions go to Extra so older readers keep working.
type BookingMetadata struct {
	SchemaVersion       int               `json:"schema_version" bson:"schema_version"`
	AdminRemarks        string            `json:"admin_remarks,omitempty" bson:"admin_remarks,omitempty"`
	RejectionReason     string            `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	CancellationReason  string            `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	RescheduleReason    string            `json:"reschedule_reason,omitempty" bson:"reschedule_reason,omitempty"`
	RescheduledBy       string            `json:"rescheduled_by,omitempty" bson:"rescheduled_by,omitempty"`
	RescheduledAt       *time.Time        `json:"rescheduled_at,omitempty" bson:"rescheduled_at,omitempty"`
	RescheduleCount     int               `json:"reschedule_count,omitempty" bson:"reschedule_count,omitempty"`
	PreviousSlots       []SlotHistory     `json:"previous_slots,omitempty" bson:"previous_slots,omitempty"`
	DecidedBy           string            `json:"decided_by,omitempty" bson:"decided_by,omitempty"`
	DecidedAt           *time.Time        `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
	SupportingLetterRef string            `json:"supporting_letter_ref,omitempty" bson:"supporting_letter_ref,omitempty"`
	CostBreakdown       []CostLine        `json:"cost_breakdown,omitempty" bson:"cost_breakdown,omitempty"`
	Extra               map[string]string `json:"extra,omitempty" bson:"extra,omitempty"`
}

type SlotHistory struct {
	Date      string    `json:"date" bson:"date"`
	StartTime string    `json:"start_time" bson:"start_time"`
	EndTime   string    `json:"end_time" bson:"end_time"`
	MovedAt   time.Time `json:"moved_at" bson:"moved_at"`
}

type CostLine struct {
	Item      string  `json:"item" bson:"item"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	UnitPrice float64 `json:"unit_price" bson:"unit_price"`
	Amount    float64 `json:"amount" bson:"amount"`
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseClock validates an HH:MM time of day and returns it zero padded.
func ParseClock(s string) (string, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Format(TimeLayout), nil
}

// FormatLongDate renders a YYYY-MM-DD date as "January 2, 2006".
// Malformed input is returned unchanged.
func FormatLongDate(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}
