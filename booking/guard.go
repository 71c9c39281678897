package booking

import (
	"context"

	"github.com/ri-erusk/texas-dps-scheduler/dpsapi"
	"github.com/ri-erusk/texas-dps-scheduler/models"
)

// Snapshot queries the operator's current bookings once and returns the one
// matching the configured appointment type, or nil when none exists. The
// result is taken at startup and reused for the pre-hold policy check and
// the cancel-before-book step.
func Snapshot(ctx context.Context, client *dpsapi.Client, appointmentTypeID int) (*models.ExistingBooking, error) {
	bookings, err := client.ExistingBookings(ctx)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if b.ServiceTypeID == appointmentTypeID {
			match := b
			return &match, nil
		}
	}
	return nil, nil
}
