// Package models defines data structures shared across the scheduler.
package models

import (
	"fmt"
	"time"
)

// Location is a DPS office eligible for scanning. The JSON tags match the
// scheduling API's casing so the same struct serves the wire and the
// on-disk selection cache. Immutable once selected for the scan set.
type Location struct {
	ID       int     `json:"Id"`
	Name     string  `json:"Name"`
	Address  string  `json:"Address"`
	ZipCode  string  `json:"ZipCode"`
	Distance float64 `json:"Distance"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s (%.1f mi, %s)", l.Name, l.Distance, l.ZipCode)
}

// TimeSlot is a concrete bookable instant at one location. StartAt carries
// the office-local wall clock exactly as the API reported it, with no zone
// conversion applied.
type TimeSlot struct {
	SlotID   int
	StartAt  time.Time
	Duration int // minutes
}

// AvailabilityDate is one calendar date with its ordered slot list, produced
// fresh on every poll round and never persisted.
type AvailabilityDate struct {
	Date  time.Time
	Slots []TimeSlot
}

// Candidate pairs a location with the first date and slot that survived
// filtering in input order.
type Candidate struct {
	Location Location
	Date     time.Time
	Slot     TimeSlot
}

// ExistingBooking is the operator's current appointment, if any. At most one
// exists per operator; it is queried once at startup and consulted again
// only when a new hold succeeds.
type ExistingBooking struct {
	ConfirmationNumber string
	SiteName           string
	StartAt            time.Time
	ServiceTypeID      int
}
