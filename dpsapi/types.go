package dpsapi

import (
	"log/slog"
	"time"

	"github.com/ri-erusk/texas-dps-scheduler/models"
)

// apiTimeLayout is the zone-less local datetime format the API uses for
// availability dates, slot starts, and booking datetimes.
const apiTimeLayout = "2006-01-02T15:04:05"

type availableLocationRequest struct {
	CityName     string `json:"CityName"`
	TypeID       int    `json:"TypeId"`
	ZipCode      string `json:"ZipCode"`
	PreferredDay int    `json:"PreferredDay"`
}

type availableLocationDatesRequest struct {
	LocationID   int  `json:"LocationId"`
	TypeID       int  `json:"TypeId"`
	SameDay      bool `json:"SameDay"`
	StartDate    any  `json:"StartDate"`
	PreferredDay int  `json:"PreferredDay"`
}

type availableLocationDatesResponse struct {
	LocationAvailabilityDates []wireAvailabilityDate `json:"LocationAvailabilityDates"`
}

type wireAvailabilityDate struct {
	AvailabilityDate   string         `json:"AvailabilityDate"`
	AvailableTimeSlots []wireTimeSlot `json:"AvailableTimeSlots"`
}

type wireTimeSlot struct {
	SlotID        int    `json:"SlotId"`
	StartDateTime string `json:"StartDateTime"`
	EndDateTime   string `json:"EndDateTime"`
	Duration      int    `json:"Duration"`
}

// toModel converts the wire calendar into model types, preserving the API's
// date and slot ordering. Entries with unparseable timestamps are dropped
// with a warning rather than failing the whole poll.
func (r availableLocationDatesResponse) toModel() []models.AvailabilityDate {
	dates := make([]models.AvailabilityDate, 0, len(r.LocationAvailabilityDates))
	for _, d := range r.LocationAvailabilityDates {
		day, err := time.Parse(apiTimeLayout, d.AvailabilityDate)
		if err != nil {
			slog.Warn("skipping malformed availability date",
				slog.String("value", d.AvailabilityDate),
				slog.Any("error", err),
			)
			continue
		}
		slots := make([]models.TimeSlot, 0, len(d.AvailableTimeSlots))
		for _, s := range d.AvailableTimeSlots {
			startAt, err := time.Parse(apiTimeLayout, s.StartDateTime)
			if err != nil {
				slog.Warn("skipping malformed time slot",
					slog.String("value", s.StartDateTime),
					slog.Any("error", err),
				)
				continue
			}
			slots = append(slots, models.TimeSlot{
				SlotID:   s.SlotID,
				StartAt:  startAt,
				Duration: s.Duration,
			})
		}
		dates = append(dates, models.AvailabilityDate{Date: day, Slots: slots})
	}
	return dates
}

type holdSlotRequest struct {
	SlotID int `json:"SlotId"`
}

type holdSlotResponse struct {
	SlotHeldSuccessfully bool `json:"SlotHeldSuccessfully"`
}

// HoldResult reports whether the API granted a slot hold. Message carries
// the raw response body when it did not.
type HoldResult struct {
	Held    bool
	Message string
}

type eligibilityRequest struct {
	DateOfBirth       string `json:"DateOfBirth"`
	FirstName         string `json:"FirstName"`
	LastName          string `json:"LastName"`
	LastFourDigitsSsn string `json:"LastFourDigitsSsn"`
	CardNumber        string `json:"CardNumber"`
}

type eligibilityEntry struct {
	ResponseID int64 `json:"ResponseId"`
}

type newBookingRequest struct {
	CardNumber      string `json:"CardNumber"`
	FirstName       string `json:"FirstName"`
	LastName        string `json:"LastName"`
	DateOfBirth     string `json:"DateOfBirth"`
	Email           string `json:"Email"`
	CellPhone       string `json:"CellPhone"`
	HomePhone       string `json:"HomePhone"`
	ServiceTypeID   int    `json:"ServiceTypeId"`
	BookingDateTime string `json:"BookingDateTime"`
	BookingDuration int    `json:"BookingDuration"`
	SpanishLanguage string `json:"SpanishLanguage"`
	SiteID          int    `json:"SiteId"`
	SendSms         bool   `json:"SendSms"`
	AdaRequired     bool   `json:"AdaRequired"`
	ResponseID      int64  `json:"ResponseId"`
}

type newBookingResponse struct {
	Booking *wireBooking `json:"Booking"`
}

type wireBooking struct {
	ConfirmationNumber string `json:"ConfirmationNumber"`
}

// BookingResult reports the outcome of a booking submission. A transport
// success with a null Booking object means the API rejected the booking;
// Message then carries the raw response body.
type BookingResult struct {
	Confirmed          bool
	ConfirmationNumber string
	Message            string
}

type bookingQueryRequest struct {
	FirstName         string `json:"FirstName"`
	LastName          string `json:"LastName"`
	DateOfBirth       string `json:"DateOfBirth"`
	LastFourDigitsSsn string `json:"LastFourDigitsSsn"`
}

type wireExistingBooking struct {
	ConfirmationNumber string `json:"ConfirmationNumber"`
	BookingDateTime    string `json:"BookingDateTime"`
	SiteName           string `json:"SiteName"`
	ServiceTypeID      int    `json:"ServiceTypeId"`
}

type cancelBookingRequest struct {
	ConfirmationNumber string `json:"ConfirmationNumber"`
}
