// Package availability narrows raw location calendars to the configured
// booking window.
package availability

import (
	"time"

	"github.com/ri-erusk/texas-dps-scheduler/models"
)

// Window is the date and time filter applied to every location's calendar.
// Reference anchors the day-offset bounds and is normally the wall clock at
// poll time. An empty Weekdays set admits every weekday.
type Window struct {
	SameDay         bool
	StartOffsetDays int
	EndOffsetDays   int
	Weekdays        map[time.Weekday]bool
	StartHour       int
	EndHour         int // exclusive
	Reference       time.Time
}

// FilterDates returns the dates surviving w, each narrowed to its surviving
// slots, preserving the input's date and slot order. The input is never
// mutated.
//
// Same-day mode keeps every date carrying at least one slot, with no
// narrowing. Windowed mode keeps a date iff its calendar-day offset from
// Reference lies within [StartOffsetDays, EndOffsetDays] inclusive, its
// weekday is admitted, and at least one slot starts within the hour window.
func FilterDates(dates []models.AvailabilityDate, w Window) []models.AvailabilityDate {
	kept := make([]models.AvailabilityDate, 0, len(dates))
	for _, d := range dates {
		if w.SameDay {
			if len(d.Slots) > 0 {
				kept = append(kept, d)
			}
			continue
		}

		offset := dayOffset(w.Reference, d.Date)
		if offset < w.StartOffsetDays || offset > w.EndOffsetDays {
			continue
		}
		if len(w.Weekdays) > 0 && !w.Weekdays[d.Date.Weekday()] {
			continue
		}

		slots := filterSlots(d.Slots, w)
		if len(slots) == 0 {
			continue
		}
		kept = append(kept, models.AvailabilityDate{Date: d.Date, Slots: slots})
	}
	return kept
}

// FirstCandidate selects from a filtered calendar: the first date in input
// order and its first slot. The second return is false when the calendar is
// empty. Selection is by position, not by value; FilterDates preserves the
// API's ordering and that ordering is the tie-break.
func FirstCandidate(loc models.Location, filtered []models.AvailabilityDate) (models.Candidate, bool) {
	for _, d := range filtered {
		if len(d.Slots) == 0 {
			continue
		}
		return models.Candidate{Location: loc, Date: d.Date, Slot: d.Slots[0]}, true
	}
	return models.Candidate{}, false
}

// filterSlots keeps slots whose local start hour h satisfies
// StartHour <= h < EndHour.
func filterSlots(slots []models.TimeSlot, w Window) []models.TimeSlot {
	kept := make([]models.TimeSlot, 0, len(slots))
	for _, s := range slots {
		h := s.StartAt.Hour()
		if h >= w.StartHour && h < w.EndHour {
			kept = append(kept, s)
		}
	}
	return kept
}

// dayOffset is the calendar-day difference between two wall-clock
// timestamps, ignoring their zones and times of day.
func dayOffset(reference, date time.Time) int {
	refYear, refMonth, refDay := reference.Date()
	year, month, day := date.Date()
	ref := time.Date(refYear, refMonth, refDay, 0, 0, 0, 0, time.UTC)
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return int(d.Sub(ref).Hours() / 24)
}
