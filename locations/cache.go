package locations

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ri-erusk/texas-dps-scheduler/models"
)

// LoadCache reads a previously selected scan set. A missing file is not an
// error; it returns an empty set so the caller falls back to search.
func LoadCache(path string) ([]models.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read location cache: %w", err)
	}
	var locations []models.Location
	if err := json.Unmarshal(data, &locations); err != nil {
		return nil, fmt.Errorf("parse location cache: %w", err)
	}
	return locations, nil
}

// SaveCache persists the selected scan set, creating parent directories as
// needed.
func SaveCache(path string, locations []models.Location) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(locations, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal location cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write location cache: %w", err)
	}
	return nil
}
