// Package locations resolves the scan set: per-zip search, merge and
// distance filtering, interactive selection, and the on-disk cache of a
// previous selection.
package locations

import (
	"context"
	"errors"

	"github.com/ri-erusk/texas-dps-scheduler/dpsapi"
	"github.com/ri-erusk/texas-dps-scheduler/models"
)

// ErrNoLocations means the search found offices but none within the
// configured distance, leaving nothing to scan.
var ErrNoLocations = errors.New("no locations within the configured distance")

// Search queries every zip code and merges the results. Duplicates are
// dropped by location id with the first occurrence winning, so the API's
// distance ordering within each zip is preserved.
func Search(ctx context.Context, client *dpsapi.Client, zipCodes []string) ([]models.Location, error) {
	seen := make(map[int]bool)
	var merged []models.Location
	for _, zip := range zipCodes {
		locs, err := client.SearchLocations(ctx, zip)
		if err != nil {
			return nil, err
		}
		for _, loc := range locs {
			if seen[loc.ID] {
				continue
			}
			seen[loc.ID] = true
			merged = append(merged, loc)
		}
	}
	return merged, nil
}

// WithinDistance keeps locations no farther than maxMiles from their owning
// zip code.
func WithinDistance(locations []models.Location, maxMiles float64) []models.Location {
	kept := make([]models.Location, 0, len(locations))
	for _, loc := range locations {
		if loc.Distance <= maxMiles {
			kept = append(kept, loc)
		}
	}
	return kept
}
