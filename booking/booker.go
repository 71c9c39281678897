package booking

import (
	"context"
	"log/slog"

	"github.com/ri-erusk/texas-dps-scheduler/config"
	"github.com/ri-erusk/texas-dps-scheduler/dpsapi"
	"github.com/ri-erusk/texas-dps-scheduler/metrics"
	"github.com/ri-erusk/texas-dps-scheduler/models"
)

// Outcome reports how an attempt ended.
type Outcome int

const (
	// OutcomeSkipped means another attempt was already in flight and this
	// candidate was dropped without side effects.
	OutcomeSkipped Outcome = iota
	// OutcomeRetry means the hold or booking was rejected; the machine is
	// back in scanning and polling may resume.
	OutcomeRetry
	// OutcomeBooked means the appointment is confirmed and the run is over.
	OutcomeBooked
)

// Result is the terminal value of one attempt.
type Result struct {
	Outcome            Outcome
	ConfirmationNumber string
}

// Booker executes the hold → book sequence for one candidate at a time.
// The existing-booking snapshot is taken once at startup; it gates the
// pre-hold policy and names the booking to cancel before replacing it.
type Booker struct {
	cfg      *config.Config
	client   *dpsapi.Client
	machine  *Machine
	metrics  *metrics.Metrics
	existing *models.ExistingBooking
}

// NewBooker wires an attempt executor around the shared state machine.
func NewBooker(cfg *config.Config, client *dpsapi.Client, machine *Machine, m *metrics.Metrics, existing *models.ExistingBooking) *Booker {
	return &Booker{
		cfg:      cfg,
		client:   client,
		machine:  machine,
		metrics:  m,
		existing: existing,
	}
}

// Attempt drives candidate through hold and book. A nil error with
// OutcomeRetry means the machine is re-armed and polling continues; any
// returned error is fatal for the run and leaves the machine in failed.
func (b *Booker) Attempt(ctx context.Context, candidate models.Candidate) (Result, error) {
	if !b.machine.TryHold() {
		slog.Debug("attempt already in flight, skipping candidate",
			slog.String("location", candidate.Location.Name),
		)
		return Result{Outcome: OutcomeSkipped}, nil
	}

	if b.existing != nil && !b.cfg.App.CancelExisting {
		b.machine.Fail()
		slog.Error("existing booking blocks a new one and cancel_existing is disabled",
			slog.String("confirmation", b.existing.ConfirmationNumber),
			slog.String("site", b.existing.SiteName),
		)
		return Result{}, ErrExistingBooking
	}

	slog.Info("holding slot",
		slog.String("location", candidate.Location.Name),
		slog.Time("start", candidate.Slot.StartAt),
		slog.Int("slot_id", candidate.Slot.SlotID),
	)
	hold, err := b.client.HoldSlot(ctx, candidate.Slot.SlotID)
	if err != nil {
		b.metrics.IncHold("error")
		b.machine.Fail()
		return Result{}, err
	}
	if !hold.Held {
		b.metrics.IncHold("rejected")
		slog.Warn("hold rejected, resuming polling",
			slog.String("location", candidate.Location.Name),
			slog.String("message", hold.Message),
		)
		b.machine.Fail()
		b.machine.Rearm()
		return Result{Outcome: OutcomeRetry}, nil
	}
	b.metrics.IncHold("granted")

	// Best-effort: a failed cancel is logged and booking proceeds anyway,
	// which can leave two live appointments until DPS reaps the stale one.
	if b.existing != nil {
		if err := b.client.CancelBooking(ctx, b.existing.ConfirmationNumber); err != nil {
			slog.Error("cancel of existing booking failed, booking anyway",
				slog.String("confirmation", b.existing.ConfirmationNumber),
				slog.Any("error", err),
			)
		} else {
			slog.Info("cancelled existing booking",
				slog.String("confirmation", b.existing.ConfirmationNumber),
			)
		}
	}

	responseID, err := b.client.Eligibility(ctx)
	if err != nil {
		b.metrics.IncBooking("error")
		b.machine.Fail()
		return Result{}, err
	}

	booked, err := b.client.SubmitBooking(ctx, candidate, responseID)
	if err != nil {
		b.metrics.IncBooking("error")
		b.machine.Fail()
		return Result{}, err
	}
	if !booked.Confirmed {
		b.metrics.IncBooking("rejected")
		slog.Warn("booking rejected, resuming polling",
			slog.String("location", candidate.Location.Name),
			slog.String("message", booked.Message),
		)
		b.machine.Fail()
		b.machine.Rearm()
		return Result{Outcome: OutcomeRetry}, nil
	}

	b.metrics.IncBooking("confirmed")
	b.machine.Book()
	slog.Info("appointment booked",
		slog.String("location", candidate.Location.Name),
		slog.Time("start", candidate.Slot.StartAt),
		slog.String("confirmation", booked.ConfirmationNumber),
		slog.String("url", dpsapi.ConfirmationURL(booked.ConfirmationNumber)),
	)
	return Result{Outcome: OutcomeBooked, ConfirmationNumber: booked.ConfirmationNumber}, nil
}
