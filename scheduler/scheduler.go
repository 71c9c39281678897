// Package scheduler runs the serialized poll loop over the scan set:
// every round checks each location in configured order, dispatches a
// booking attempt on the first surviving candidate, then sleeps a fixed
// interval before the next round.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/ri-erusk/texas-dps-scheduler/availability"
	"github.com/ri-erusk/texas-dps-scheduler/booking"
	"github.com/ri-erusk/texas-dps-scheduler/config"
	"github.com/ri-erusk/texas-dps-scheduler/dpsapi"
	"github.com/ri-erusk/texas-dps-scheduler/metrics"
	"github.com/ri-erusk/texas-dps-scheduler/models"
)

const announcerSize = 1024

// RunResult is the terminal value of a poll run. Booked is false only when
// the run ended without a confirmed appointment, which the loop itself
// never does voluntarily; callers see it on context cancellation.
type RunResult struct {
	Booked             bool
	ConfirmationNumber string
}

// Scheduler owns the poll loop. Location checks are strictly serialized;
// no check is dispatched while a hold → book attempt is in flight.
type Scheduler struct {
	cfg       *config.Config
	client    *dpsapi.Client
	booker    *booking.Booker
	metrics   *metrics.Metrics
	scanSet   []models.Location
	weekdays  map[time.Weekday]bool
	announcer *announcer
}

// New builds a scheduler over the resolved scan set. The weekday set is
// parsed once; Validate has already rejected unknown names.
func New(cfg *config.Config, client *dpsapi.Client, booker *booking.Booker, m *metrics.Metrics, scanSet []models.Location) (*Scheduler, error) {
	weekdays, err := cfg.Window.Weekdays()
	if err != nil {
		return nil, err
	}
	ann, err := newAnnouncer(announcerSize)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:       cfg,
		client:    client,
		booker:    booker,
		metrics:   m,
		scanSet:   scanSet,
		weekdays:  weekdays,
		announcer: ann,
	}, nil
}

// Run polls until an appointment is booked, a fatal error escalates, or ctx
// is cancelled. Recoverable hold and book rejections re-arm the machine and
// the loop keeps going with no cap on attempts.
func (s *Scheduler) Run(ctx context.Context) (RunResult, error) {
	slog.Info("starting poll loop",
		slog.Int("locations", len(s.scanSet)),
		slog.Duration("interval", s.cfg.App.PollInterval()),
	)

	for {
		for _, loc := range s.scanSet {
			if err := ctx.Err(); err != nil {
				return RunResult{}, err
			}
			result, err := s.check(ctx, loc)
			if err != nil {
				return RunResult{}, err
			}
			if result != nil {
				return *result, nil
			}
		}
		s.metrics.IncRound()

		select {
		case <-ctx.Done():
			return RunResult{}, ctx.Err()
		case <-time.After(s.cfg.App.PollInterval()):
		}
	}
}

// check polls one location and drives a booking attempt when a candidate
// survives the window. The result is non-nil only on a confirmed booking.
func (s *Scheduler) check(ctx context.Context, loc models.Location) (*RunResult, error) {
	dates, err := s.client.LocationDates(ctx, loc.ID)
	if err != nil {
		return nil, err
	}

	filtered := availability.FilterDates(dates, s.window(time.Now()))
	candidate, ok := availability.FirstCandidate(loc, filtered)
	if !ok {
		slog.Debug("no availability in window", slog.String("location", loc.Name))
		return nil, nil
	}
	s.announcer.Announce(loc, filtered)
	s.metrics.IncAvailabilityFound()

	result, err := s.booker.Attempt(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if result.Outcome == booking.OutcomeBooked {
		return &RunResult{Booked: true, ConfirmationNumber: result.ConfirmationNumber}, nil
	}
	return nil, nil
}

func (s *Scheduler) window(now time.Time) availability.Window {
	return availability.Window{
		SameDay:         s.cfg.Window.SameDay,
		StartOffsetDays: s.cfg.Window.StartDaysOut,
		EndOffsetDays:   s.cfg.Window.EndDaysOut,
		Weekdays:        s.weekdays,
		StartHour:       s.cfg.Window.StartHour,
		EndHour:         s.cfg.Window.EndHour,
		Reference:       now,
	}
}
