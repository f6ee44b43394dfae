package model

import (
	"fmt"
	"time"
)

// SlotGuard is bumped by every transaction that reads or changes the active
// bookings of one facility on one date. Two transactions touching the same
// guard cannot both commit, which serializes their guard checks.
type SlotGuard struct {
	ID        string    `bson:"_id" json:"id"`
	Version   int64     `bson:"version" json:"version"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func SlotGuardID(facility FacilityType, date string) string {
	return fmt.Sprintf("%s|%s", facility, date)
}
