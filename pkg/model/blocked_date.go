package model

import "time"

// BlockedDateRange closes a facility (or every facility when FacilityType is nil)
// for each date in [StartDate, EndDate].
type BlockedDateRange struct {
	ID           string        `json:"id,omitempty" bson:"_id,omitempty"`
	FacilityType *FacilityType `json:"facility_type,omitempty" bson:"facility_type"`
	StartDate    string        `json:"start_date" bson:"start_date" validate:"required,iso_date"`
	EndDate      string        `json:"end_date" bson:"end_date" validate:"required,iso_date"`
	EventName    string        `json:"event_name" bson:"event_name" validate:"required,max=200"`
	EventType    string        `json:"event_type,omitempty" bson:"event_type,omitempty" validate:"max=50"`
	Description  string        `json:"description,omitempty" bson:"description,omitempty" validate:"max=1000"`
	IsActive     bool          `json:"is_active" bson:"is_active"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
}

// Covers reports whether the range applies to facility on date.
func (r *BlockedDateRange) Covers(facility FacilityType, date string) bool {
	if !r.IsActive {
		return false
	}
	if r.FacilityType != nil && *r.FacilityType != facility {
		return false
	}
	return r.StartDate <= date && date <= r.EndDate
}

func (r *BlockedDateRange) Info() *BlockedInfo {
	return &BlockedInfo{
		EventName:   r.EventName,
		EventType:   r.EventType,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
}
