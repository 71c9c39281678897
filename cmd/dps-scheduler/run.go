package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ri-erusk/texas-dps-scheduler/booking"
	"github.com/ri-erusk/texas-dps-scheduler/config"
	"github.com/ri-erusk/texas-dps-scheduler/dpsapi"
	"github.com/ri-erusk/texas-dps-scheduler/keepalive"
	"github.com/ri-erusk/texas-dps-scheduler/locations"
	"github.com/ri-erusk/texas-dps-scheduler/metrics"
	"github.com/ri-erusk/texas-dps-scheduler/scheduler"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll for openings and book the first slot inside the configured window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runBot(cfg)
		},
	}
}

func runBot(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	client := dpsapi.New(cfg, m)

	if cfg.App.KeepaliveAddr != "" {
		ka := keepalive.New(cfg.App.KeepaliveAddr, m)
		ka.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ka.Shutdown(shutdownCtx); err != nil {
				slog.Error("keep-alive shutdown failed", slog.Any("error", err))
			}
		}()
	}

	scanSet, err := buildScanSet(ctx, cfg, client, false)
	if err != nil {
		return mapSelectionErr(err, cfg)
	}

	existing, err := booking.Snapshot(ctx, client, cfg.Personal.AppointmentTypeID)
	if err != nil {
		return fmt.Errorf("query existing bookings: %w", err)
	}
	if existing != nil {
		slog.Info("existing appointment on file",
			slog.String("confirmation", existing.ConfirmationNumber),
			slog.String("site", existing.SiteName),
			slog.Time("start", existing.StartAt),
			slog.Bool("cancel_existing", cfg.App.CancelExisting),
		)
	}

	machine, err := booking.NewMachine()
	if err != nil {
		return err
	}
	booker := booking.NewBooker(cfg, client, machine, m, existing)

	sched, err := scheduler.New(cfg, client, booker, m, scanSet)
	if err != nil {
		return err
	}

	result, err := sched.Run(ctx)
	switch {
	case err == nil && result.Booked:
		slog.Info("appointment booked, exiting",
			slog.String("confirmation", result.ConfirmationNumber),
			slog.String("url", dpsapi.ConfirmationURL(result.ConfirmationNumber)),
		)
		return nil
	case errors.Is(err, context.Canceled):
		slog.Info("shutdown requested, exiting cleanly")
		return nil
	default:
		return err
	}
}

// mapSelectionErr keeps the exit-code contract: an empty scan set and a
// user-aborted picker end the process cleanly, everything else is fatal.
func mapSelectionErr(err error, cfg *config.Config) error {
	switch {
	case errors.Is(err, locations.ErrNoLocations):
		slog.Warn("no locations within distance, nothing to scan",
			slog.Float64("max_miles", cfg.Locations.MaxDistanceMiles))
		return nil
	case errors.Is(err, locations.ErrSelectionAborted):
		slog.Info("location selection aborted")
		return nil
	default:
		return err
	}
}
