// Package config loads and validates the scheduler configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full configuration tree read from config.yml.
type Config struct {
	Personal  PersonalConfig  `yaml:"personal"`
	Locations LocationsConfig `yaml:"locations"`
	Window    WindowConfig    `yaml:"window"`
	App       AppConfig       `yaml:"app"`
}

// PersonalConfig carries the operator identity submitted with eligibility,
// hold, and booking requests.
type PersonalConfig struct {
	FirstName         string `yaml:"first_name"`
	LastName          string `yaml:"last_name"`
	DateOfBirth       string `yaml:"date_of_birth"` // MM/DD/YYYY
	LastFourSSN       string `yaml:"last_four_ssn"`
	Email             string `yaml:"email"`
	CellPhone         string `yaml:"cell_phone"` // optional
	AppointmentTypeID int    `yaml:"appointment_type_id"`
}

// LocationsConfig controls which offices enter the scan set.
type LocationsConfig struct {
	ZipCodes         []string `yaml:"zip_codes"`
	MaxDistanceMiles float64  `yaml:"max_distance_miles"`
	Interactive      bool     `yaml:"interactive"`
	CacheFile        string   `yaml:"cache_file"`
}

// WindowConfig narrows which dates and times qualify for booking.
type WindowConfig struct {
	SameDay           bool     `yaml:"same_day"`
	StartDaysOut      int      `yaml:"start_days_out"`
	EndDaysOut        int      `yaml:"end_days_out"`
	PreferredWeekdays []string `yaml:"preferred_weekdays"`
	StartHour         int      `yaml:"start_hour"`
	EndHour           int      `yaml:"end_hour"` // exclusive
}

// Weekdays returns the preferred weekday set. An empty configuration means
// every weekday qualifies and yields an empty map.
func (w WindowConfig) Weekdays() (map[time.Weekday]bool, error) {
	days := make(map[time.Weekday]bool, len(w.PreferredWeekdays))
	for _, name := range w.PreferredWeekdays {
		d, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days[d] = true
	}
	return days, nil
}

// AppConfig carries process-level settings.
type AppConfig struct {
	BaseURL         string `yaml:"base_url"`
	PollIntervalMS  int    `yaml:"poll_interval_ms"`
	HeaderTimeoutMS int    `yaml:"header_timeout_ms"`
	MaxRetries      int    `yaml:"max_retries"`
	CancelExisting  bool   `yaml:"cancel_existing"`
	KeepaliveAddr   string `yaml:"keepalive_addr"` // empty disables the liveness server
	Verbose         bool   `yaml:"verbose"`
}

// PollInterval is the fixed sleep between poll rounds.
func (a AppConfig) PollInterval() time.Duration {
	return time.Duration(a.PollIntervalMS) * time.Millisecond
}

// HeaderTimeout bounds the wait for response headers on every request.
func (a AppConfig) HeaderTimeout() time.Duration {
	return time.Duration(a.HeaderTimeoutMS) * time.Millisecond
}

// DefaultConfig returns conservative defaults for everything except the
// operator identity, which has no sensible default.
func DefaultConfig() *Config {
	return &Config{
		Personal: PersonalConfig{
			AppointmentTypeID: 71,
		},
		Locations: LocationsConfig{
			MaxDistanceMiles: 25,
			Interactive:      true,
			CacheFile:        "locations.json",
		},
		Window: WindowConfig{
			StartDaysOut: 1,
			EndDaysOut:   14,
			StartHour:    8,
			EndHour:      17,
		},
		App: AppConfig{
			BaseURL:         "https://publicapi.txdpsscheduler.com",
			PollIntervalMS:  10000,
			HeaderTimeoutMS: 20000,
			MaxRetries:      3,
			CancelExisting:  false,
		},
	}
}

// Load reads path, layers it over DefaultConfig, and returns the result.
// Callers are expected to run Validate before using it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

const dobLayout = "01/02/2006"

var (
	zipPattern  = regexp.MustCompile(`^\d{5}$`)
	ssn4Pattern = regexp.MustCompile(`^\d{4}$`)
)

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Personal.FirstName) == "" {
		return fmt.Errorf("personal: first name cannot be empty")
	}
	if strings.TrimSpace(c.Personal.LastName) == "" {
		return fmt.Errorf("personal: last name cannot be empty")
	}
	if _, err := time.Parse(dobLayout, c.Personal.DateOfBirth); err != nil {
		return fmt.Errorf("personal: date of birth must be MM/DD/YYYY: %w", err)
	}
	if !ssn4Pattern.MatchString(c.Personal.LastFourSSN) {
		return fmt.Errorf("personal: last four SSN must be exactly 4 digits")
	}
	if !strings.Contains(c.Personal.Email, "@") {
		return fmt.Errorf("personal: email looks invalid")
	}
	if c.Personal.AppointmentTypeID <= 0 {
		return fmt.Errorf("personal: appointment type id must be positive")
	}

	if len(c.Locations.ZipCodes) == 0 {
		return fmt.Errorf("locations: at least one zip code is required")
	}
	for _, zip := range c.Locations.ZipCodes {
		if !zipPattern.MatchString(zip) {
			return fmt.Errorf("locations: zip code %q must be 5 digits", zip)
		}
	}
	if c.Locations.MaxDistanceMiles <= 0 {
		return fmt.Errorf("locations: max distance must be positive")
	}
	if c.Locations.Interactive && strings.TrimSpace(c.Locations.CacheFile) == "" {
		return fmt.Errorf("locations: cache file is required with interactive selection")
	}

	if !c.Window.SameDay {
		if c.Window.StartDaysOut < 0 {
			return fmt.Errorf("window: start days out cannot be negative")
		}
		if c.Window.EndDaysOut < c.Window.StartDaysOut {
			return fmt.Errorf("window: end days out cannot precede start days out")
		}
		if c.Window.StartHour < 0 || c.Window.StartHour > 23 {
			return fmt.Errorf("window: start hour must be within 0-23")
		}
		if c.Window.EndHour < 1 || c.Window.EndHour > 24 {
			return fmt.Errorf("window: end hour must be within 1-24")
		}
		if c.Window.StartHour >= c.Window.EndHour {
			return fmt.Errorf("window: start hour must be before end hour")
		}
	}
	if _, err := c.Window.Weekdays(); err != nil {
		return fmt.Errorf("window: %w", err)
	}

	parsed, err := url.Parse(c.App.BaseURL)
	if err != nil {
		return fmt.Errorf("app: invalid base URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("app: base URL must include a host")
	}
	if c.App.PollIntervalMS <= 0 {
		return fmt.Errorf("app: poll interval must be positive")
	}
	if c.App.HeaderTimeoutMS <= 0 {
		return fmt.Errorf("app: header timeout must be positive")
	}
	if c.App.MaxRetries < 0 {
		return fmt.Errorf("app: max retries cannot be negative")
	}

	return nil
}

// ParseWeekday converts a weekday name such as "Monday" (any case) to its
// time.Weekday value.
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
