package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ri-erusk/texas-dps-scheduler/config"
	"github.com/ri-erusk/texas-dps-scheduler/dpsapi"
	"github.com/ri-erusk/texas-dps-scheduler/locations"
	"github.com/ri-erusk/texas-dps-scheduler/metrics"
	"github.com/ri-erusk/texas-dps-scheduler/models"
	"github.com/spf13/cobra"
)

func newLocationsCmd() *cobra.Command {
	var repick bool

	cmd := &cobra.Command{
		Use:   "locations",
		Short: "Search nearby offices and refresh the saved selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := dpsapi.New(cfg, metrics.New())
			scanSet, err := buildScanSet(ctx, cfg, client, repick)
			if err != nil {
				return mapSelectionErr(err, cfg)
			}

			fmt.Printf("Scanning %d location(s):\n", len(scanSet))
			for _, loc := range scanSet {
				fmt.Printf("  %5d  %s\n", loc.ID, loc)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&repick, "re-pick", false, "Ignore the cached selection and choose again")
	return cmd
}

// buildScanSet resolves the locations to poll. A previous selection is
// reused from the cache unless refresh is set; otherwise every configured
// zip code is searched, filtered by distance, and optionally narrowed by
// the interactive picker before being cached for the next run.
func buildScanSet(ctx context.Context, cfg *config.Config, client *dpsapi.Client, refresh bool) ([]models.Location, error) {
	if !refresh {
		cached, err := locations.LoadCache(cfg.Locations.CacheFile)
		if err != nil {
			return nil, fmt.Errorf("read location cache: %w", err)
		}
		if len(cached) > 0 {
			slog.Info("using cached location selection",
				slog.Int("count", len(cached)),
				slog.String("file", cfg.Locations.CacheFile))
			return cached, nil
		}
	}

	found, err := locations.Search(ctx, client, cfg.Locations.ZipCodes)
	if err != nil {
		return nil, fmt.Errorf("search locations: %w", err)
	}
	nearby := locations.WithinDistance(found, cfg.Locations.MaxDistanceMiles)
	slog.Info("location search finished",
		slog.Int("found", len(found)),
		slog.Int("within_distance", len(nearby)))
	if len(nearby) == 0 {
		return nil, locations.ErrNoLocations
	}

	selected := nearby
	if cfg.Locations.Interactive {
		selected, err = locations.Pick(nearby)
		if err != nil {
			return nil, err
		}
	}

	if err := locations.SaveCache(cfg.Locations.CacheFile, selected); err != nil {
		return nil, fmt.Errorf("save location cache: %w", err)
	}
	slog.Info("location selection saved",
		slog.Int("count", len(selected)),
		slog.String("file", cfg.Locations.CacheFile))
	return selected, nil
}
